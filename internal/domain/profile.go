package domain

import (
	"errors"
	"strings"
)

// BenefitAny es el tag centinela que desactiva el filtro de beneficios.
const BenefitAny = "any"

// UserProfile es el estado conversacional recolectado turno a turno. Los
// campos numéricos usan puntero para distinguir "no recolectado" de cero.
type UserProfile struct {
	MonthlyIncome     *float64           `json:"monthly_income"`
	SpendingHabits    map[string]float64 `json:"spending_habits"`
	PreferredBenefits []string           `json:"preferred_benefits"`
	ExistingCards     []string           `json:"existing_cards"`
	CreditScore       *int               `json:"credit_score"`
}

// NewUserProfile devuelve un perfil vacío con colecciones inicializadas.
func NewUserProfile() UserProfile {
	return UserProfile{
		SpendingHabits:    map[string]float64{},
		PreferredBenefits: []string{},
		ExistingCards:     []string{},
	}
}

// TotalMonthlySpending suma todos los gastos mensuales declarados.
func (p UserProfile) TotalMonthlySpending() float64 {
	var total float64
	for _, amount := range p.SpendingHabits {
		total += amount
	}
	return total
}

// SpendOn devuelve el gasto mensual de una categoría, 0 si no existe.
func (p UserProfile) SpendOn(category string) float64 {
	return p.SpendingHabits[category]
}

// HasSpendCategory indica si el usuario declaró la categoría (aunque sea 0).
func (p UserProfile) HasSpendCategory(category string) bool {
	_, ok := p.SpendingHabits[category]
	return ok
}

// BenefitSet devuelve los beneficios preferidos como set para lookup rápido.
func (p UserProfile) BenefitSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.PreferredBenefits))
	for _, b := range p.PreferredBenefits {
		set[b] = struct{}{}
	}
	return set
}

// IsComplete indica si ya hay suficiente información para recomendar.
// existing_cards es informativo y no bloquea la recomendación.
func (p UserProfile) IsComplete() bool {
	return p.MonthlyIncome != nil &&
		p.CreditScore != nil &&
		len(p.SpendingHabits) > 0 &&
		len(p.PreferredBenefits) > 0
}

// ProfileUpdate es una actualización parcial tipada: solo los campos
// presentes (puntero/slice no nil) se mezclan sobre el perfil, nunca se
// pisan campos ausentes.
type ProfileUpdate struct {
	MonthlyIncome     *float64           `json:"monthly_income,omitempty"`
	SpendingHabits    map[string]float64 `json:"spending_habits,omitempty"`
	PreferredBenefits []string           `json:"preferred_benefits,omitempty"`
	ExistingCards     []string           `json:"existing_cards,omitempty"`
	CreditScore       *int               `json:"credit_score,omitempty"`
}

var (
	ErrNegativeIncome   = errors.New("monthly income must be non-negative")
	ErrNegativeSpending = errors.New("spending amounts must be non-negative")
	ErrCreditScoreRange = errors.New("credit score out of range")
)

// IsZero indica si la actualización no trae ningún campo.
func (u ProfileUpdate) IsZero() bool {
	return u.MonthlyIncome == nil &&
		u.SpendingHabits == nil &&
		u.PreferredBenefits == nil &&
		u.ExistingCards == nil &&
		u.CreditScore == nil
}

// Validate rechaza actualizaciones con valores fuera de contrato antes de que
// lleguen al scorer.
func (u ProfileUpdate) Validate() error {
	if u.MonthlyIncome != nil && *u.MonthlyIncome < 0 {
		return ErrNegativeIncome
	}
	for _, amount := range u.SpendingHabits {
		if amount < 0 {
			return ErrNegativeSpending
		}
	}
	if u.CreditScore != nil && (*u.CreditScore < 300 || *u.CreditScore > 900) {
		return ErrCreditScoreRange
	}
	return nil
}

// Apply mezcla los campos presentes de la actualización sobre el perfil.
// Las categorías de gasto se mezclan clave a clave; los beneficios llegan
// normalizados (minúsculas, sin espacios, sin vacíos).
func (p *UserProfile) Apply(u ProfileUpdate) {
	if u.MonthlyIncome != nil {
		income := *u.MonthlyIncome
		p.MonthlyIncome = &income
	}
	if u.SpendingHabits != nil {
		if p.SpendingHabits == nil {
			p.SpendingHabits = map[string]float64{}
		}
		for category, amount := range u.SpendingHabits {
			key := strings.ToLower(strings.TrimSpace(category))
			if key == "" {
				continue
			}
			p.SpendingHabits[key] = amount
		}
	}
	if u.PreferredBenefits != nil {
		p.PreferredBenefits = NormalizeBenefits(u.PreferredBenefits)
	}
	if u.ExistingCards != nil {
		cards := make([]string, 0, len(u.ExistingCards))
		for _, c := range u.ExistingCards {
			if trimmed := strings.TrimSpace(c); trimmed != "" {
				cards = append(cards, trimmed)
			}
		}
		p.ExistingCards = cards
	}
	if u.CreditScore != nil {
		score := *u.CreditScore
		p.CreditScore = &score
	}
}

// NormalizeBenefits deja los tags en minúsculas, sin espacios sobrantes,
// sin vacíos y sin duplicados, preservando el orden de llegada.
func NormalizeBenefits(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
