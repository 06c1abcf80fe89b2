package domain

// Recommendation es una entrada del resultado final del scorer. NetBenefit se
// conserva como clave de ordenamiento aunque la UI no lo necesite.
type Recommendation struct {
	CardName         string  `json:"card_name"`
	ImageURL         string  `json:"image_url"`
	KeyReasons       string  `json:"key_reasons"`
	RewardSimulation string  `json:"reward_simulation"`
	NetBenefit       float64 `json:"net_benefit"`
	AffiliateLink    string  `json:"affiliate_link"`
}
