package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"card-advisor/internal/catalog"
	"card-advisor/internal/config"
	"card-advisor/internal/domain"
	"card-advisor/internal/llm"
	"card-advisor/internal/repository"
	"card-advisor/internal/service"
)

// REPL local del asesor: catálogo embebido en memoria, sin base de datos.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	cardRepo := repository.NewMemoryCardRepository()
	if err := catalog.Seed(ctx, cardRepo, logger); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	messageRepo := repository.NewMemoryMessageRepository()
	messageSvc := service.NewMessageService(messageRepo)
	contextSvc := service.NewBasicContextService(messageRepo)
	profileStore := service.NewMemoryProfileStore()
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	advisorSvc := service.NewAdvisorService(
		llmClient,
		cardRepo,
		messageSvc,
		profileStore,
		contextSvc,
		service.AdvisorPromptBuilder{},
		service.AdvisorResponseParser{},
		service.DefaultRecommendEngine,
		logger,
	)

	userID := uuid.NewString()
	sessionID := uuid.NewString()

	fmt.Println("Card advisor CLI. Escribe 'exit' para salir.")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		userMsg := domain.Message{
			UserID:    userID,
			SessionID: sessionID,
			Content:   line,
			Role:      domain.RoleUser,
		}
		if err := messageSvc.Save(ctx, userMsg); err != nil {
			log.Printf("save message: %v", err)
			continue
		}

		turn, err := advisorSvc.Chat(ctx, userID, sessionID, line)
		if err != nil {
			log.Printf("advisor: %v", err)
			continue
		}

		fmt.Println(turn.Reply)
		for _, rec := range turn.Recommendations {
			fmt.Printf("  - %s (net benefit Rs. %.2f)\n", rec.CardName, rec.NetBenefit)
			fmt.Printf("      %s\n", rec.KeyReasons)
		}
	}
}
