package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"card-advisor/internal/domain"
	"card-advisor/internal/llm"
	"card-advisor/internal/repository"
)

// AdvisorService orquesta cada turno conversacional: arma el prompt, pide la
// decisión al LLM, mezcla la actualización del perfil y, cuando corresponde,
// corre el filtro de elegibilidad y el scorer.
type AdvisorService struct {
	llmClient      llm.LLMClient
	cardRepo       repository.CardRepository
	messageService *MessageService
	profiles       ProfileStore
	contextService ContextService
	promptBuilder  AdvisorPromptBuilder
	parser         AdvisorResponseParser
	engine         RecommendEngine
	logger         *zap.Logger
}

func NewAdvisorService(
	llmClient llm.LLMClient,
	cardRepo repository.CardRepository,
	messageService *MessageService,
	profiles ProfileStore,
	contextService ContextService,
	promptBuilder AdvisorPromptBuilder,
	parser AdvisorResponseParser,
	engine RecommendEngine,
	logger *zap.Logger,
) *AdvisorService {
	return &AdvisorService{
		llmClient:      llmClient,
		cardRepo:       cardRepo,
		messageService: messageService,
		profiles:       profiles,
		contextService: contextService,
		promptBuilder:  promptBuilder,
		parser:         parser,
		engine:         engine,
		logger:         logger,
	}
}

// TurnResult es la salida de un turno: la respuesta del asesor, las
// recomendaciones (si las hubo) y el perfil resultante.
type TurnResult struct {
	Reply           string
	Recommendations []domain.Recommendation
	Profile         domain.UserProfile
	AdvisorMessage  domain.Message
}

// Chat procesa un turno completo y persiste el mensaje del asesor. Las
// recomendaciones calculadas no se persisten; viven solo en la respuesta.
func (s *AdvisorService) Chat(ctx context.Context, userID, sessionID, userMessage string) (TurnResult, error) {
	profile, err := s.profiles.Get(ctx, sessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("get profile: %w", err)
	}

	contextText, err := s.contextService.GetContext(ctx, sessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("get context: %w", err)
	}

	prompt := s.promptBuilder.BuildTurnPrompt(profile, contextText, userMessage)

	rawResponse, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return TurnResult{}, fmt.Errorf("llm generate: %w", err)
	}

	decision, ok := s.parser.ParseDecision(rawResponse)
	if !ok {
		return TurnResult{}, fmt.Errorf("unusable llm response")
	}

	if decision.ProfileUpdate != nil {
		updated, applyErr := s.profiles.Apply(ctx, sessionID, *decision.ProfileUpdate)
		if applyErr != nil {
			// Una actualización inválida no corta la conversación; se ignora
			// y el asesor vuelve a preguntar en el siguiente turno.
			s.logger.Warn("profile update rejected",
				zap.Error(applyErr),
				zap.String("session_id", sessionID),
			)
		} else {
			profile = updated
		}
	}

	result := TurnResult{
		Reply:   decision.Reply,
		Profile: profile,
	}

	if decision.Action == domain.ActionRecommend {
		if !profile.IsComplete() {
			s.logger.Warn("recommend requested with incomplete profile", zap.String("session_id", sessionID))
		} else {
			recommendations, recErr := s.Recommend(ctx, profile)
			if recErr != nil {
				return TurnResult{}, recErr
			}
			result.Recommendations = recommendations
		}
	}

	advisorMsg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Content:   decision.Reply,
		Role:      domain.RoleAdvisor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageService.Save(ctx, advisorMsg); err != nil {
		return TurnResult{}, fmt.Errorf("persist advisor message: %w", err)
	}
	result.AdvisorMessage = advisorMsg

	return result, nil
}

// Recommend corre el pipeline determinista: filtro de elegibilidad sobre el
// catálogo y ranking por beneficio neto. Requiere un perfil completo.
func (s *AdvisorService) Recommend(ctx context.Context, profile domain.UserProfile) ([]domain.Recommendation, error) {
	if profile.MonthlyIncome == nil || profile.CreditScore == nil {
		return nil, fmt.Errorf("profile missing income or credit score")
	}

	candidates, err := s.cardRepo.FindEligible(ctx, *profile.MonthlyIncome, *profile.CreditScore, profile.PreferredBenefits)
	if err != nil {
		return nil, fmt.Errorf("find eligible cards: %w", err)
	}

	return s.engine.Rank(candidates, profile), nil
}
