package repository

import (
	"context"
	"strings"
	"sync"

	"card-advisor/internal/domain"
)

// MemoryCardRepository mantiene el catálogo en memoria con la misma semántica
// de matching que la implementación Postgres. Sirve para tests y para correr
// el servicio sin base de datos.
type MemoryCardRepository struct {
	mu    sync.RWMutex
	cards []domain.CardRecord
}

func NewMemoryCardRepository() *MemoryCardRepository {
	return &MemoryCardRepository{}
}

func (r *MemoryCardRepository) Insert(_ context.Context, card domain.CardRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mismo contrato que ON CONFLICT (name, issuer) DO NOTHING.
	for _, existing := range r.cards {
		if sameCardIdentity(existing, card) {
			return nil
		}
	}
	r.cards = append(r.cards, card)
	return nil
}

func (r *MemoryCardRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards), nil
}

func (r *MemoryCardRepository) FindEligible(_ context.Context, minIncome float64, minCreditScore int, benefitTags []string) ([]domain.CardRecord, error) {
	if minIncome < 0 || minCreditScore < 0 {
		return nil, ErrInvalidCriteria
	}
	r.mu.RLock()
	snapshot := make([]domain.CardRecord, len(r.cards))
	copy(snapshot, r.cards)
	r.mu.RUnlock()

	return FilterCards(snapshot, minIncome, minCreditScore, benefitTags), nil
}

func (r *MemoryCardRepository) RemoveDuplicates(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var unique []domain.CardRecord
	for _, card := range r.cards {
		duplicate := false
		for _, kept := range unique {
			if sameCardIdentity(kept, card) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, card)
		}
	}
	r.cards = unique
	return nil
}

func sameCardIdentity(a, b domain.CardRecord) bool {
	return strings.EqualFold(a.Name, b.Name) && strings.EqualFold(a.Issuer, b.Issuer)
}
