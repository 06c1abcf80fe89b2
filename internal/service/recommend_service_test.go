package service

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"card-advisor/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func testProfile() domain.UserProfile {
	return domain.UserProfile{
		MonthlyIncome: floatPtr(50000),
		SpendingHabits: map[string]float64{
			"groceries": 5000,
			"dining":    3000,
		},
		PreferredBenefits: []string{"cashback"},
		CreditScore:       intPtr(750),
	}
}

func TestRecommendEngine_ExpensiveCardNeedsPositiveNet(t *testing.T) {
	card := domain.CardRecord{
		Name:                   "Plain Cashback",
		JoiningFee:             999,
		AnnualFee:              999,
		RewardType:             "Cashback",
		RewardRate:             0.01,
		EligibilityIncome:      20000,
		EligibilityCreditScore: 670,
		SpecialPerks:           "1% cashback on everything",
	}

	// 8000*0.01*12 = 960; 960 - 1998 = -1038 y las cuotas superan 750.
	recs := DefaultRecommendEngine.Rank([]domain.CardRecord{card}, testProfile())
	if len(recs) != 0 {
		t.Fatalf("expected expensive negative-net card excluded, got %+v", recs)
	}
}

func TestRecommendEngine_CheapCardSurvivesNegativeNet(t *testing.T) {
	profile := testProfile()
	profile.SpendingHabits["fuel"] = 2000

	card := domain.CardRecord{
		Name:         "Everyday Fuel",
		JoiningFee:   500,
		AnnualFee:    500,
		RewardType:   "Fuel",
		RewardRate:   0.02,
		SpecialPerks: "fuel surcharge waiver",
	}

	recs := DefaultRecommendEngine.Rank([]domain.CardRecord{card}, profile)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	// 2000*0.02*12 = 480; 480 - 1000 = -520.
	if recs[0].NetBenefit < -520.01 || recs[0].NetBenefit > -519.99 {
		t.Fatalf("expected net benefit -520, got %v", recs[0].NetBenefit)
	}
}

func TestRecommendEngine_FuelCardWithoutFuelSpend(t *testing.T) {
	card := domain.CardRecord{
		Name:       "Everyday Fuel",
		RewardType: "Fuel",
		RewardRate: 0.05,
	}

	recs := DefaultRecommendEngine.Rank([]domain.CardRecord{card}, testProfile())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if recs[0].NetBenefit != 0 {
		t.Fatalf("expected zero rewards without fuel spend, got %v", recs[0].NetBenefit)
	}
	if !strings.Contains(recs[0].KeyReasons, "Primarily a fuel card") {
		t.Fatalf("expected fuel fallback reason, got %q", recs[0].KeyReasons)
	}
}

func TestRecommendEngine_DedupByNameKeepsBest(t *testing.T) {
	profile := domain.UserProfile{
		MonthlyIncome:     floatPtr(50000),
		SpendingHabits:    map[string]float64{"groceries": 1000},
		PreferredBenefits: []string{"any"},
		CreditScore:       intPtr(750),
	}

	// Mismo nombre, distinta tasa: 1000*r*12 sin cuotas.
	cards := []domain.CardRecord{
		{Name: "X", RewardType: "Cashback", RewardRate: 10.0 / 12000},
		{Name: "X", RewardType: "Cashback", RewardRate: 20.0 / 12000},
	}

	recs := DefaultRecommendEngine.Rank(cards, profile)
	if len(recs) != 1 {
		t.Fatalf("expected single entry for duplicated name, got %d", len(recs))
	}
	if recs[0].CardName != "X" || recs[0].NetBenefit < 19.99 || recs[0].NetBenefit > 20.01 {
		t.Fatalf("expected X with net benefit 20, got %+v", recs[0])
	}
}

func TestRecommendEngine_CapAndSortInvariants(t *testing.T) {
	profile := domain.UserProfile{
		MonthlyIncome:     floatPtr(100000),
		SpendingHabits:    map[string]float64{"groceries": 10000},
		PreferredBenefits: []string{"any"},
		CreditScore:       intPtr(800),
	}

	var cards []domain.CardRecord
	for i := 0; i < 8; i++ {
		cards = append(cards, domain.CardRecord{
			Name:       fmt.Sprintf("Card %d", i),
			RewardType: "Cashback",
			RewardRate: 0.005 * float64(i+1),
		})
	}

	recs := DefaultRecommendEngine.Rank(cards, profile)
	if len(recs) != 5 {
		t.Fatalf("expected cap at 5, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].NetBenefit > recs[i-1].NetBenefit {
			t.Fatalf("expected non-increasing net benefit, got %v after %v", recs[i].NetBenefit, recs[i-1].NetBenefit)
		}
	}
	seen := map[string]bool{}
	for _, rec := range recs {
		if seen[rec.CardName] {
			t.Fatalf("duplicate card name %q in output", rec.CardName)
		}
		seen[rec.CardName] = true
	}
}

func TestRecommendEngine_OnlineSpendsBonus(t *testing.T) {
	profile := domain.UserProfile{
		MonthlyIncome: floatPtr(60000),
		SpendingHabits: map[string]float64{
			"dining":        2000,
			"entertainment": 1000,
			"groceries":     3000,
			"travel":        1000,
			"fuel":          500,
		},
		PreferredBenefits: []string{"cashback"},
		CreditScore:       intPtr(760),
	}

	card := domain.CardRecord{
		Name:         "Online Cash",
		RewardType:   "Cashback",
		RewardRate:   0.015,
		SpecialPerks: "5% cashback on online spends",
	}

	recs := DefaultRecommendEngine.Rank([]domain.CardRecord{card}, profile)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	// Base: 7500*0.015*12 = 1350. Bonus online (dining+entertainment+
	// groceries+travel = 7000) * 0.01 * 12 = 840. Total 2190.
	if recs[0].NetBenefit < 2189.99 || recs[0].NetBenefit > 2190.01 {
		t.Fatalf("expected net benefit 2190, got %v", recs[0].NetBenefit)
	}
	if !strings.Contains(recs[0].KeyReasons, "enhanced cashback for your online spending") {
		t.Fatalf("expected online spends reason, got %q", recs[0].KeyReasons)
	}
}

func TestRecommendEngine_CoBrandedSpecialCases(t *testing.T) {
	profile := domain.UserProfile{
		MonthlyIncome: floatPtr(60000),
		SpendingHabits: map[string]float64{
			"dining":    2000,
			"groceries": 4000,
		},
		PreferredBenefits: []string{"online shopping"},
		CreditScore:       intPtr(760),
	}

	tataNeu := domain.CardRecord{Name: "Tata Neu Infinity", RewardType: "Co-branded", RewardRate: 0.05}
	amazon := domain.CardRecord{Name: "Amazon Pay ICICI", RewardType: "Co-branded", RewardRate: 0.03}
	generic := domain.CardRecord{Name: "Random Partner", RewardType: "Co-branded", RewardRate: 0.02}

	recs := DefaultRecommendEngine.Rank([]domain.CardRecord{tataNeu, amazon, generic}, profile)
	byName := map[string]domain.Recommendation{}
	for _, rec := range recs {
		byName[rec.CardName] = rec
	}

	// Tata Neu: (2000+4000)*0.05*12 = 3600.
	if rec := byName["Tata Neu Infinity"]; rec.NetBenefit < 3599.99 || rec.NetBenefit > 3600.01 {
		t.Fatalf("expected tata neu 3600, got %v", rec.NetBenefit)
	}
	// Amazon: (2000+4000+0)*0.03*12 = 2160.
	if rec := byName["Amazon Pay ICICI"]; rec.NetBenefit < 2159.99 || rec.NetBenefit > 2160.01 {
		t.Fatalf("expected amazon 2160, got %v", rec.NetBenefit)
	}
	// Genérica: 6000*0.02*12*0.6 = 864.
	if rec := byName["Random Partner"]; rec.NetBenefit < 863.99 || rec.NetBenefit > 864.01 {
		t.Fatalf("expected generic co-branded 864, got %v", rec.NetBenefit)
	}
}

func TestRecommendEngine_EmptyHabitsZeroRewards(t *testing.T) {
	profile := domain.UserProfile{
		MonthlyIncome:     floatPtr(60000),
		SpendingHabits:    map[string]float64{},
		PreferredBenefits: []string{"any"},
		CreditScore:       intPtr(760),
	}

	card := domain.CardRecord{Name: "Free Cash", RewardType: "Cashback", RewardRate: 0.02}
	recs := DefaultRecommendEngine.Rank([]domain.CardRecord{card}, profile)
	if len(recs) != 1 {
		t.Fatalf("expected card with zero fees included, got %d", len(recs))
	}
	if recs[0].NetBenefit != 0 {
		t.Fatalf("expected zero net benefit with no spending, got %v", recs[0].NetBenefit)
	}
}

// El ranking es determinista salvo el orden interno de las razones; dos
// corridas deben coincidir en nombres, beneficios y conjunto de razones.
func TestRecommendEngine_Idempotent(t *testing.T) {
	profile := testProfile()
	profile.SpendingHabits["travel"] = 4000
	profile.PreferredBenefits = []string{"cashback", "travel", "lounge access"}

	cards := []domain.CardRecord{
		{Name: "A", RewardType: "Cashback", RewardRate: 0.01, SpecialPerks: "online spends, lounge access"},
		{Name: "B", RewardType: "Travel Points", RewardRate: 0.04, SpecialPerks: "lounge access, travel insurance"},
		{Name: "C", RewardType: "Rewards", RewardRate: 0.02, SpecialPerks: "dining, groceries, movies"},
	}

	first := DefaultRecommendEngine.Rank(cards, profile)
	second := DefaultRecommendEngine.Rank(cards, profile)
	if len(first) != len(second) {
		t.Fatalf("expected stable length, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CardName != second[i].CardName || first[i].NetBenefit != second[i].NetBenefit {
			t.Fatalf("expected stable ranking, got %+v vs %+v", first[i], second[i])
		}
		if !sameReasonSet(first[i].KeyReasons, second[i].KeyReasons) {
			t.Fatalf("expected same reason set, got %q vs %q", first[i].KeyReasons, second[i].KeyReasons)
		}
	}
}

// Con beneficios netos empatados el sort estable no reordena: el corte a 5
// debe conservar el orden de entrada, idéntico entre corridas.
func TestRecommendEngine_TiedNetBenefitsKeepInputOrder(t *testing.T) {
	profile := domain.UserProfile{
		MonthlyIncome:     floatPtr(60000),
		SpendingHabits:    map[string]float64{},
		PreferredBenefits: []string{"any"},
		CreditScore:       intPtr(760),
	}

	// Sin gasto todas quedan en beneficio neto 0.
	var cards []domain.CardRecord
	for i := 0; i < 6; i++ {
		cards = append(cards, domain.CardRecord{
			Name:       fmt.Sprintf("Tie %d", i),
			RewardType: "Cashback",
			RewardRate: 0.01,
		})
	}

	for run := 0; run < 20; run++ {
		recs := DefaultRecommendEngine.Rank(cards, profile)
		if len(recs) != 5 {
			t.Fatalf("run %d: expected cap at 5, got %d", run, len(recs))
		}
		for i, rec := range recs {
			want := fmt.Sprintf("Tie %d", i)
			if rec.CardName != want {
				t.Fatalf("run %d: expected %q at position %d, got %q", run, want, i, rec.CardName)
			}
		}
	}
}

func sameReasonSet(a, b string) bool {
	as := strings.Split(a, ", ")
	bs := strings.Split(b, ", ")
	sort.Strings(as)
	sort.Strings(bs)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
