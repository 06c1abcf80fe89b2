package service

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"card-advisor/internal/domain"
)

// RecommendEngine estima el beneficio anual neto de cada tarjeta candidata y
// arma el ranking final. Es computación pura: no toca red ni base de datos.
type RecommendEngine struct{}

// DefaultRecommendEngine permite uso directo sin instanciar.
var DefaultRecommendEngine = RecommendEngine{}

// Modelo de aproximación, no calculadora financiera: los multiplicadores
// codifican qué fracción del gasto gana recompensa efectiva por categoría.
const (
	maxRecommendations = 5

	// Tarjetas baratas se mantienen aun con beneficio neto negativo: el error
	// de estimación duele menos cuando el costo es bajo.
	lowFeeThreshold = 750.0

	travelPointsFactor   = 0.5
	genericRewardsFactor = 0.35
	coBrandedFactor      = 0.6
	onlineSpendsRate     = 0.01
	tataNeuRate          = 0.05
	amazonPayRate        = 0.03
)

const fallbackReason = "A strong all-around card based on your overall financial profile."

var rupeePrinter = message.NewPrinter(language.English)

// Rank aplica el modelo de estimación sobre los candidatos ya filtrados por
// elegibilidad, deduplica por nombre quedándose con el mayor beneficio neto y
// devuelve hasta 5 recomendaciones ordenadas por beneficio descendente.
func (RecommendEngine) Rank(cards []domain.CardRecord, profile domain.UserProfile) []domain.Recommendation {
	totalMonthlySpending := profile.TotalMonthlySpending()
	preferredBenefits := profile.BenefitSet()

	var ranked []domain.Recommendation
	for _, card := range cards {
		estimated, reasons := estimateAnnualRewards(card, profile, totalMonthlySpending, preferredBenefits)

		reasons = appendPreferenceReasons(reasons, card, preferredBenefits)
		reasons = dedupeReasons(reasons)
		if len(reasons) == 0 {
			reasons = []string{fallbackReason}
		}

		netBenefit := estimated - (card.JoiningFee + card.AnnualFee)
		if netBenefit < 0 && (card.JoiningFee > lowFeeThreshold || card.AnnualFee > lowFeeThreshold) {
			continue
		}

		ranked = append(ranked, domain.Recommendation{
			CardName:         card.Name,
			ImageURL:         card.ImageURL,
			KeyReasons:       strings.Join(reasons, ", "),
			RewardSimulation: rupeePrinter.Sprintf("You could potentially save/earn up to Rs. %.2f per year!", netBenefit),
			NetBenefit:       netBenefit,
			AffiliateLink:    card.AffiliateLink,
		})
	}

	// Dedup por nombre preservando el orden de primera aparición: si el filtro
	// devolvió filas repetidas, gana la de mayor beneficio neto. El orden de
	// inserción hace determinista el desempate del sort estable y el corte a 5.
	indexByName := make(map[string]int, len(ranked))
	recommendations := make([]domain.Recommendation, 0, len(ranked))
	for _, rec := range ranked {
		if i, ok := indexByName[rec.CardName]; ok {
			if rec.NetBenefit > recommendations[i].NetBenefit {
				recommendations[i] = rec
			}
			continue
		}
		indexByName[rec.CardName] = len(recommendations)
		recommendations = append(recommendations, rec)
	}
	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].NetBenefit > recommendations[j].NetBenefit
	})
	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations
}

// estimateAnnualRewards calcula la recompensa anual estimada y las razones
// específicas del tipo de recompensa de la tarjeta.
func estimateAnnualRewards(
	card domain.CardRecord,
	profile domain.UserProfile,
	totalMonthlySpending float64,
	preferredBenefits map[string]struct{},
) (float64, []string) {
	var estimated float64
	var reasons []string

	switch strings.ToLower(card.RewardType) {
	case "cashback":
		estimated += totalMonthlySpending * card.RewardRate * 12
		reasons = appendIfMissing(reasons, fmt.Sprintf("Offers a solid base cashback of %.2f%% on general spends.", card.RewardRate*100))
		if card.PerkMentions("online spends") {
			onlineSpends := profile.SpendOn("dining") +
				profile.SpendOn("entertainment") +
				profile.SpendOn("groceries") +
				profile.SpendOn("travel")
			estimated += onlineSpends * onlineSpendsRate * 12
			reasons = appendIfMissing(reasons, "Provides enhanced cashback for your online spending habits.")
		}

	case "travel points":
		estimated += totalMonthlySpending * card.RewardRate * 12 * travelPointsFactor
		reasons = appendIfMissing(reasons, "Earns valuable travel points, ideal for your travel preferences.")

	case "rewards":
		estimated += totalMonthlySpending * card.RewardRate * 12 * genericRewardsFactor
		reasons = appendIfMissing(reasons, "Offers versatile reward points for various redemption options.")
		if profile.HasSpendCategory("dining") && card.PerkMentions("dining") {
			reasons = appendIfMissing(reasons, "Accelerated rewards on dining expenses.")
		}
		if profile.HasSpendCategory("groceries") && card.PerkMentions("groceries") {
			reasons = appendIfMissing(reasons, "Accelerated rewards on grocery purchases.")
		}
		if card.PerkMentions("movies") && (profile.HasSpendCategory("entertainment") || profile.HasSpendCategory("outings/activities")) {
			reasons = appendIfMissing(reasons, "Provides good benefits for movie and entertainment spends.")
		}

	case "co-branded":
		nameLower := strings.ToLower(card.Name)
		switch {
		case strings.Contains(nameLower, "tata neu") && (profile.HasSpendCategory("dining") || profile.HasSpendCategory("groceries")):
			estimated += (profile.SpendOn("dining") + profile.SpendOn("groceries")) * tataNeuRate * 12
			reasons = appendIfMissing(reasons, "Offers significant value-back on Tata Neu and its partner brands.")
		case strings.Contains(nameLower, "amazon pay icici") && hasBenefit(preferredBenefits, "online shopping"):
			onlineShopping := profile.SpendOn("dining") + profile.SpendOn("groceries") + profile.SpendOn("entertainment")
			estimated += onlineShopping * amazonPayRate * 12
			reasons = appendIfMissing(reasons, "Excellent for Amazon spending and general online shopping, matching your preferences.")
		default:
			estimated += totalMonthlySpending * card.RewardRate * 12 * coBrandedFactor
			reasons = appendIfMissing(reasons, "Provides specialized co-branded benefits and rewards.")
		}

	case "fuel":
		fuelSpending := profile.SpendOn("fuel")
		if fuelSpending > 0 {
			estimated += fuelSpending * card.RewardRate * 12
			reasons = appendIfMissing(reasons, fmt.Sprintf("Offers substantial savings on fuel (approx. %.2f%% value back).", card.RewardRate*100))
		} else {
			reasons = appendIfMissing(reasons, "Primarily a fuel card, but offers other general benefits suitable for your profile.")
		}
	}

	return estimated, reasons
}

// appendPreferenceReasons agrega razones por match entre beneficios
// preferidos y perks/reward_type, independientes del tipo de recompensa.
func appendPreferenceReasons(reasons []string, card domain.CardRecord, preferredBenefits map[string]struct{}) []string {
	rewardTypeLower := strings.ToLower(card.RewardType)

	if hasBenefit(preferredBenefits, "lounge access") && card.PerkMentions("lounge access") {
		reasons = appendIfMissing(reasons, "Includes valuable airport lounge access.")
	}
	if hasBenefit(preferredBenefits, "travel") && (strings.Contains(rewardTypeLower, "travel points") || card.PerkMentions("travel")) {
		reasons = appendIfMissing(reasons, "Features strong travel benefits, including potential lounge access.")
	}
	if hasBenefit(preferredBenefits, "cashback") && strings.Contains(rewardTypeLower, "cashback") {
		reasons = appendIfMissing(reasons, "Offers good cashback opportunities on your spends.")
	}
	if hasBenefit(preferredBenefits, "amazon vouchers") && card.PerkMentions("amazon vouchers") {
		reasons = appendIfMissing(reasons, "Comes with valuable Amazon vouchers.")
	}
	if hasBenefit(preferredBenefits, "dining") && card.PerkMentions("dining") {
		reasons = appendIfMissing(reasons, "Ideal for dining discounts and rewards.")
	}
	if hasBenefit(preferredBenefits, "movies") && card.PerkMentions("movies") {
		reasons = appendIfMissing(reasons, "Offers specific benefits for movie tickets.")
	}
	if hasBenefit(preferredBenefits, "fuel") && card.PerkMentions("fuel") {
		reasons = appendIfMissing(reasons, "Provides significant savings on fuel expenses.")
	}

	return reasons
}

func hasBenefit(set map[string]struct{}, tag string) bool {
	_, ok := set[tag]
	return ok
}

func appendIfMissing(reasons []string, reason string) []string {
	for _, existing := range reasons {
		if existing == reason {
			return reasons
		}
	}
	return append(reasons, reason)
}

// dedupeReasons deduplica con semántica de set: el orden de presentación no
// está garantizado después de este paso.
func dedupeReasons(reasons []string) []string {
	set := make(map[string]struct{}, len(reasons))
	for _, r := range reasons {
		set[r] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	return out
}
