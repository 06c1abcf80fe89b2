package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"card-advisor/internal/domain"
	"card-advisor/internal/llm"
	"card-advisor/internal/repository"
)

func newAdvisorFixture(t *testing.T, client llm.LLMClient) (*AdvisorService, *mockMessageServiceRepo, ProfileStore) {
	t.Helper()

	cardRepo := repository.NewMemoryCardRepository()
	cards := []domain.CardRecord{
		{
			ID:                     "c1",
			Name:                   "Easy Cashback",
			Issuer:                 "Test Bank",
			RewardType:             "Cashback",
			RewardRate:             0.02,
			EligibilityIncome:      20000,
			EligibilityCreditScore: 650,
			SpecialPerks:           "2% cashback on all spends",
		},
		{
			ID:                     "c2",
			Name:                   "Premium Travel",
			Issuer:                 "Test Bank",
			JoiningFee:             5000,
			AnnualFee:              5000,
			RewardType:             "Travel Points",
			RewardRate:             0.04,
			EligibilityIncome:      150000,
			EligibilityCreditScore: 800,
			SpecialPerks:           "lounge access, travel insurance",
		},
	}
	for _, card := range cards {
		if err := cardRepo.Insert(context.Background(), card); err != nil {
			t.Fatalf("seed card: %v", err)
		}
	}

	msgRepo := &mockMessageServiceRepo{}
	profiles := NewMemoryProfileStore()

	svc := NewAdvisorService(
		client,
		cardRepo,
		NewMessageService(msgRepo),
		profiles,
		NewBasicContextService(msgRepo),
		AdvisorPromptBuilder{},
		AdvisorResponseParser{},
		DefaultRecommendEngine,
		zap.NewNop(),
	)
	return svc, msgRepo, profiles
}

func completeProfileUpdate() domain.ProfileUpdate {
	income := 50000.0
	score := 750
	return domain.ProfileUpdate{
		MonthlyIncome:     &income,
		SpendingHabits:    map[string]float64{"groceries": 5000, "dining": 3000},
		PreferredBenefits: []string{"cashback"},
		ExistingCards:     []string{},
		CreditScore:       &score,
	}
}

func TestAdvisorServiceChat_AskTurnUpdatesProfile(t *testing.T) {
	client := &llm.MockClient{
		Response: `{"reply": "Thanks! What do you spend on monthly?", "action": "ask", "profile_update": {"monthly_income": 50000}}`,
	}
	svc, msgRepo, _ := newAdvisorFixture(t, client)

	turn, err := svc.Chat(context.Background(), "u1", "s1", "I earn 50k per month")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if turn.Reply != "Thanks! What do you spend on monthly?" {
		t.Fatalf("unexpected reply: %q", turn.Reply)
	}
	if len(turn.Recommendations) != 0 {
		t.Fatalf("expected no recommendations on ask turn, got %d", len(turn.Recommendations))
	}
	if turn.Profile.MonthlyIncome == nil || *turn.Profile.MonthlyIncome != 50000 {
		t.Fatalf("expected income stored, got %+v", turn.Profile.MonthlyIncome)
	}
	if msgRepo.lastCreated.Role != domain.RoleAdvisor || msgRepo.lastCreated.SessionID != "s1" {
		t.Fatalf("expected advisor message persisted, got %+v", msgRepo.lastCreated)
	}
}

func TestAdvisorServiceChat_RecommendTurn(t *testing.T) {
	client := &llm.MockClient{
		Response: `{"reply": "Here are my picks!", "action": "recommend"}`,
	}
	svc, _, profiles := newAdvisorFixture(t, client)

	if _, err := profiles.Apply(context.Background(), "s1", completeProfileUpdate()); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	turn, err := svc.Chat(context.Background(), "u1", "s1", "show me the cards")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(turn.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(turn.Recommendations))
	}
	// La premium queda fuera por elegibilidad (ingreso 150k, score 800).
	if turn.Recommendations[0].CardName != "Easy Cashback" {
		t.Fatalf("unexpected recommendation: %+v", turn.Recommendations[0])
	}
}

func TestAdvisorServiceChat_RecommendWithIncompleteProfile(t *testing.T) {
	client := &llm.MockClient{
		Response: `{"reply": "Let me check...", "action": "recommend"}`,
	}
	svc, _, _ := newAdvisorFixture(t, client)

	turn, err := svc.Chat(context.Background(), "u1", "s1", "recommend now")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(turn.Recommendations) != 0 {
		t.Fatalf("expected no recommendations with incomplete profile, got %d", len(turn.Recommendations))
	}
}

func TestAdvisorServiceChat_InvalidUpdateIsIgnored(t *testing.T) {
	client := &llm.MockClient{
		Response: `{"reply": "Noted", "action": "ask", "profile_update": {"monthly_income": -10}}`,
	}
	svc, _, profiles := newAdvisorFixture(t, client)

	turn, err := svc.Chat(context.Background(), "u1", "s1", "my income is minus ten")
	if err != nil {
		t.Fatalf("chat should survive invalid update: %v", err)
	}
	if turn.Profile.MonthlyIncome != nil {
		t.Fatalf("expected invalid income rejected, got %+v", turn.Profile.MonthlyIncome)
	}

	profile, err := profiles.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.MonthlyIncome != nil {
		t.Fatalf("expected stored profile untouched, got %+v", profile.MonthlyIncome)
	}
}

func TestAdvisorServiceChat_LLMFailure(t *testing.T) {
	client := &llm.MockClient{Err: errors.New("upstream down")}
	svc, _, _ := newAdvisorFixture(t, client)

	if _, err := svc.Chat(context.Background(), "u1", "s1", "hello"); err == nil {
		t.Fatalf("expected error when llm fails")
	}
}

func TestAdvisorServiceRecommend_RequiresIncomeAndScore(t *testing.T) {
	svc, _, _ := newAdvisorFixture(t, &llm.MockClient{})

	if _, err := svc.Recommend(context.Background(), domain.NewUserProfile()); err == nil {
		t.Fatalf("expected error without income and score")
	}
}
