package postgres

import (
	"context"

	"garage-backend/internal/domain"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

type levelRepository struct {
	db DBTX
}

func NewLevelRepository(db DBTX) repository.LevelRepository {
	return &levelRepository{db: db}
}

func (r *levelRepository) List(ctx context.Context) ([]domain.MemberLevelRule, error) {
	query := `SELECT id, level, min_points, points_earn_rate, discount_percent FROM member_levels ORDER BY min_points`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []domain.MemberLevelRule{}
	for rows.Next() {
		var rule domain.MemberLevelRule
		if err := rows.Scan(&rule.ID, &rule.Level, &rule.MinPoints, &rule.PointsEarnRate, &rule.DiscountPercent); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *levelRepository) Upsert(ctx context.Context, rule *domain.MemberLevelRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	query := `INSERT INTO member_levels (id, level, min_points, points_earn_rate, discount_percent)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (level) DO UPDATE
	          SET min_points = EXCLUDED.min_points,
	              points_earn_rate = EXCLUDED.points_earn_rate,
	              discount_percent = EXCLUDED.discount_percent
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rule.ID, rule.Level, rule.MinPoints, rule.PointsEarnRate, rule.DiscountPercent).Scan(&rule.ID)
	return mapError(err, "member level")
}
