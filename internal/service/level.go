package service

import (
	"context"
	"fmt"

	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

type tierChange struct {
	member domain.Member
	from   domain.Tier
	to     domain.Tier
}

// syncTier reclassifies a member already locked by the surrounding
// transaction and writes the tier only when it differs.
func syncTier(ctx context.Context, repos repository.Repositories, m *domain.Member) (*tierChange, error) {
	rules, err := repos.Levels.List(ctx)
	if err != nil {
		return nil, err
	}
	next := domain.Classify(rules, m.LifetimePoints)
	if next == m.Level {
		return nil, nil
	}
	if err := repos.Members.UpdateLevel(ctx, m.ID, next); err != nil {
		return nil, err
	}
	change := &tierChange{member: *m, from: m.Level, to: next}
	m.Level = next
	change.member.Level = next
	return change, nil
}

func notifyTierChange(ctx context.Context, notifier NotificationService, change *tierChange) {
	if change == nil {
		return
	}
	logger.InfoContext(ctx, "Member tier changed", "memberID", change.member.ID, "from", change.from, "to", change.to)
	if notifier == nil {
		return
	}
	if err := notifier.TierChanged(ctx, &change.member, change.from, change.to); err != nil {
		logger.WarnContext(ctx, "Tier change notification failed", "memberID", change.member.ID, "error", err)
	}
}

type levelService struct {
	store    repository.Store
	notifier NotificationService
}

func NewLevelService(store repository.Store, notifier NotificationService) LevelService {
	return &levelService{store: store, notifier: notifier}
}

func (s *levelService) ListLevels(ctx context.Context) ([]domain.MemberLevelRule, error) {
	return s.store.Repositories().Levels.List(ctx)
}

// UpsertLevel replaces the rule for one tier, rejects tables that would make
// classification non-monotonic and reclassifies every member against the new
// table.
func (s *levelService) UpsertLevel(ctx context.Context, actor domain.Identity, rule domain.MemberLevelRule) (*domain.MemberLevelRule, error) {
	logger.EnterMethod("levelService.UpsertLevel", "level", rule.Level, "minPoints", rule.MinPoints)
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	if !rule.Level.Valid() {
		return nil, &domain.ValidationError{Field: "level", Message: fmt.Sprintf("unknown level %q", rule.Level)}
	}

	var changes []*tierChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Levels.List(ctx)
		if err != nil {
			return err
		}
		merged := []domain.MemberLevelRule{rule}
		for _, r := range current {
			if r.Level != rule.Level {
				merged = append(merged, r)
			}
		}
		if err := domain.ValidateLevelTable(merged); err != nil {
			return err
		}
		if err := repos.Levels.Upsert(ctx, &rule); err != nil {
			return err
		}

		members, err := repos.Members.List(ctx)
		if err != nil {
			return err
		}
		for _, listed := range members {
			m, err := repos.Members.GetByIDForUpdate(ctx, listed.ID)
			if err != nil {
				return err
			}
			change, err := syncTier(ctx, repos, m)
			if err != nil {
				return err
			}
			if change != nil {
				changes = append(changes, change)
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("levelService.UpsertLevel", err, "level", rule.Level)
		return nil, err
	}

	for _, c := range changes {
		notifyTierChange(ctx, s.notifier, c)
	}
	logger.ExitMethod("levelService.UpsertLevel", "level", rule.Level, "reclassified", len(changes))
	return &rule, nil
}

// EnsureDefaults seeds rules when the level table is empty.
func (s *levelService) EnsureDefaults(ctx context.Context, rules []domain.MemberLevelRule) error {
	if err := domain.ValidateLevelTable(rules); err != nil {
		return fmt.Errorf("default level table: %w", err)
	}
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Levels.List(ctx)
		if err != nil {
			return err
		}
		if len(current) > 0 {
			return nil
		}
		for i := range rules {
			rule := rules[i]
			if err := repos.Levels.Upsert(ctx, &rule); err != nil {
				return err
			}
		}
		logger.Info("Seeded member level table", "levels", len(rules))
		return nil
	})
}

func (s *levelService) Classify(ctx context.Context, lifetimePoints int64) (domain.Tier, error) {
	if lifetimePoints < 0 {
		return "", &domain.ValidationError{Field: "lifetime_points", Message: "must be non-negative"}
	}
	rules, err := s.store.Repositories().Levels.List(ctx)
	if err != nil {
		return "", err
	}
	return domain.Classify(rules, lifetimePoints), nil
}

// SyncTier is idempotent: a second call finds the tier current and writes nothing.
func (s *levelService) SyncTier(ctx context.Context, memberID uuid.UUID) (domain.Tier, error) {
	var tier domain.Tier
	var change *tierChange
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		m, err := repos.Members.GetByIDForUpdate(ctx, memberID)
		if err != nil {
			return err
		}
		change, err = syncTier(ctx, repos, m)
		tier = m.Level
		return err
	})
	if err != nil {
		return "", err
	}
	notifyTierChange(ctx, s.notifier, change)
	return tier, nil
}
