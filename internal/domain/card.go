package domain

import (
	"strings"
	"time"
)

// CardRecord representa una tarjeta del catálogo. El catálogo se siembra una
// vez al inicio y es de solo lectura durante la recomendación.
type CardRecord struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Issuer                 string    `json:"issuer"`
	JoiningFee             float64   `json:"joining_fee"`
	AnnualFee              float64   `json:"annual_fee"`
	RewardType             string    `json:"reward_type"`
	RewardRate             float64   `json:"reward_rate"`
	EligibilityIncome      float64   `json:"eligibility_income"`
	EligibilityCreditScore int       `json:"eligibility_credit_score"`
	SpecialPerks           string    `json:"special_perks"`
	AffiliateLink          string    `json:"affiliate_link"`
	ImageURL               string    `json:"image_url"`
	CreatedAt              time.Time `json:"created_at"`
}

// PerkMentions indica si el texto libre de perks menciona la palabra clave.
// El matching es por substring case-insensitive: es deliberadamente impreciso
// y vive detrás de este predicado para poder cambiarlo sin tocar el scoring.
func (c CardRecord) PerkMentions(keyword string) bool {
	return strings.Contains(strings.ToLower(c.SpecialPerks), strings.ToLower(keyword))
}

// MatchesBenefit indica si un tag de beneficio aparece en perks o en el
// reward_type de la tarjeta.
func (c CardRecord) MatchesBenefit(tag string) bool {
	if c.PerkMentions(tag) {
		return true
	}
	return strings.Contains(strings.ToLower(c.RewardType), strings.ToLower(tag))
}
