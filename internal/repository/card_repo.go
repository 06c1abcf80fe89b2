package repository

import (
	"context"
	"errors"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"card-advisor/internal/domain"
)

// ErrInvalidCriteria se devuelve cuando el caller pasa umbrales negativos.
var ErrInvalidCriteria = errors.New("invalid eligibility criteria")

// CardRepository define el contrato de acceso al catálogo de tarjetas.
type CardRepository interface {
	Insert(ctx context.Context, card domain.CardRecord) error
	Count(ctx context.Context) (int, error)
	FindEligible(ctx context.Context, minIncome float64, minCreditScore int, benefitTags []string) ([]domain.CardRecord, error)
	RemoveDuplicates(ctx context.Context) error
}

// activeBenefitTags normaliza los tags y devuelve nil cuando no hay filtro
// que aplicar: lista vacía o presencia del centinela "any".
func activeBenefitTags(benefitTags []string) []string {
	tags := domain.NormalizeBenefits(benefitTags)
	if len(tags) == 0 {
		return nil
	}
	for _, tag := range tags {
		if tag == domain.BenefitAny {
			return nil
		}
	}
	return tags
}

// PgCardRepository implementa CardRepository sobre Postgres. El query de
// elegibilidad se compone con squirrel porque el filtro por beneficios es
// dinámico: un OR de ILIKEs por tag contra perks y reward_type.
type PgCardRepository struct {
	pool *pgxpool.Pool
}

func NewPgCardRepository(pool *pgxpool.Pool) *PgCardRepository {
	return &PgCardRepository{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var cardColumns = []string{
	"id", "name", "issuer", "joining_fee", "annual_fee", "reward_type",
	"reward_rate", "eligibility_income", "eligibility_credit_score",
	"special_perks", "affiliate_link", "image_url", "created_at",
}

func (r *PgCardRepository) Insert(ctx context.Context, card domain.CardRecord) error {
	const query = `
		INSERT INTO credit_cards (
			id, name, issuer, joining_fee, annual_fee, reward_type, reward_rate,
			eligibility_income, eligibility_credit_score, special_perks,
			affiliate_link, image_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (name, issuer) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		card.ID,
		card.Name,
		card.Issuer,
		card.JoiningFee,
		card.AnnualFee,
		card.RewardType,
		card.RewardRate,
		card.EligibilityIncome,
		card.EligibilityCreditScore,
		card.SpecialPerks,
		card.AffiliateLink,
		card.ImageURL,
		card.CreatedAt,
	)
	return err
}

func (r *PgCardRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM credit_cards`).Scan(&count)
	return count, err
}

// FindEligible devuelve las tarjetas cuyo mínimo de ingreso y score es menor
// o igual al del usuario, opcionalmente filtradas por beneficios. El orden es
// consultivo: ingreso ASC, score ASC, reward_rate DESC; el scorer reordena
// por beneficio neto.
func (r *PgCardRepository) FindEligible(ctx context.Context, minIncome float64, minCreditScore int, benefitTags []string) ([]domain.CardRecord, error) {
	if minIncome < 0 || minCreditScore < 0 {
		return nil, ErrInvalidCriteria
	}

	builder := psql.Select(cardColumns...).
		From("credit_cards").
		Where(sq.LtOrEq{"eligibility_income": minIncome}).
		Where(sq.LtOrEq{"eligibility_credit_score": minCreditScore})

	if tags := activeBenefitTags(benefitTags); len(tags) > 0 {
		or := sq.Or{}
		for _, tag := range tags {
			pattern := "%" + tag + "%"
			or = append(or,
				sq.ILike{"special_perks": pattern},
				sq.ILike{"reward_type": pattern},
			)
		}
		builder = builder.Where(or)
	}

	builder = builder.OrderBy(
		"eligibility_income ASC",
		"eligibility_credit_score ASC",
		"reward_rate DESC",
	)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.CardRecord
	for rows.Next() {
		var card domain.CardRecord
		err = rows.Scan(
			&card.ID,
			&card.Name,
			&card.Issuer,
			&card.JoiningFee,
			&card.AnnualFee,
			&card.RewardType,
			&card.RewardRate,
			&card.EligibilityIncome,
			&card.EligibilityCreditScore,
			&card.SpecialPerks,
			&card.AffiliateLink,
			&card.ImageURL,
			&card.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// RemoveDuplicates colapsa filas duplicadas por (name, issuer) dejando una.
func (r *PgCardRepository) RemoveDuplicates(ctx context.Context) error {
	const query = `
		DELETE FROM credit_cards a
		USING credit_cards b
		WHERE a.ctid > b.ctid AND a.name = b.name AND a.issuer = b.issuer
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

// FilterCards aplica la misma regla de elegibilidad que el query SQL pero
// sobre un snapshot en memoria. El tag matchea por substring case-insensitive
// contra perks o reward_type; los tags se combinan con OR entre sí y con AND
// contra el gate de ingreso/score.
func FilterCards(cards []domain.CardRecord, minIncome float64, minCreditScore int, benefitTags []string) []domain.CardRecord {
	tags := activeBenefitTags(benefitTags)

	var matched []domain.CardRecord
	for _, card := range cards {
		if card.EligibilityIncome > minIncome || card.EligibilityCreditScore > minCreditScore {
			continue
		}
		if len(tags) > 0 && !matchesAnyBenefit(card, tags) {
			continue
		}
		matched = append(matched, card)
	}

	sortCardsForEligibility(matched)
	return matched
}

func matchesAnyBenefit(card domain.CardRecord, tags []string) bool {
	for _, tag := range tags {
		if card.MatchesBenefit(tag) {
			return true
		}
	}
	return false
}

func sortCardsForEligibility(cards []domain.CardRecord) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.EligibilityIncome != b.EligibilityIncome {
			return a.EligibilityIncome < b.EligibilityIncome
		}
		if a.EligibilityCreditScore != b.EligibilityCreditScore {
			return a.EligibilityCreditScore < b.EligibilityCreditScore
		}
		return a.RewardRate > b.RewardRate
	})
}
