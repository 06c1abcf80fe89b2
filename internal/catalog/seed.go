// Package catalog carga el dataset inicial de tarjetas y lo siembra en el
// repositorio al arrancar el servicio.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"card-advisor/internal/domain"
	"card-advisor/internal/repository"
)

//go:embed cards.yaml
var cardsYAML []byte

type seedCard struct {
	Name                   string  `yaml:"name"`
	Issuer                 string  `yaml:"issuer"`
	JoiningFee             float64 `yaml:"joining_fee"`
	AnnualFee              float64 `yaml:"annual_fee"`
	RewardType             string  `yaml:"reward_type"`
	RewardRate             float64 `yaml:"reward_rate"`
	EligibilityIncome      float64 `yaml:"eligibility_income"`
	EligibilityCreditScore int     `yaml:"eligibility_credit_score"`
	SpecialPerks           string  `yaml:"special_perks"`
	AffiliateLink          string  `yaml:"affiliate_link"`
	ImageURL               string  `yaml:"image_url"`
}

type seedFile struct {
	Cards []seedCard `yaml:"cards"`
}

// LoadSeedCards parsea el dataset embebido.
func LoadSeedCards() ([]domain.CardRecord, error) {
	var file seedFile
	if err := yaml.Unmarshal(cardsYAML, &file); err != nil {
		return nil, fmt.Errorf("parse cards dataset: %w", err)
	}

	now := time.Now().UTC()
	cards := make([]domain.CardRecord, 0, len(file.Cards))
	for _, c := range file.Cards {
		cards = append(cards, domain.CardRecord{
			ID:                     uuid.NewString(),
			Name:                   c.Name,
			Issuer:                 c.Issuer,
			JoiningFee:             c.JoiningFee,
			AnnualFee:              c.AnnualFee,
			RewardType:             c.RewardType,
			RewardRate:             c.RewardRate,
			EligibilityIncome:      c.EligibilityIncome,
			EligibilityCreditScore: c.EligibilityCreditScore,
			SpecialPerks:           c.SpecialPerks,
			AffiliateLink:          c.AffiliateLink,
			ImageURL:               c.ImageURL,
			CreatedAt:              now,
		})
	}
	return cards, nil
}

// Seed puebla el catálogo solo si está vacío, para no reinsertar en cada
// arranque. Antes colapsa duplicados que hayan quedado de importaciones
// anteriores.
func Seed(ctx context.Context, repo repository.CardRepository, logger *zap.Logger) error {
	if err := repo.RemoveDuplicates(ctx); err != nil {
		return fmt.Errorf("remove duplicate cards: %w", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count cards: %w", err)
	}
	if count > 0 {
		logger.Info("catalog already populated", zap.Int("cards", count))
		return nil
	}

	cards, err := LoadSeedCards()
	if err != nil {
		return err
	}

	for _, card := range cards {
		if err := repo.Insert(ctx, card); err != nil {
			return fmt.Errorf("insert card %q: %w", card.Name, err)
		}
	}

	logger.Info("catalog seeded", zap.Int("cards", len(cards)))
	return nil
}
