package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/printforge-erp/printforge-erp/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Period, error)
	FindByDate(ctx context.Context, date time.Time) (Period, error)
}

// AuditPort records period transitions for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Policy groups optional business rules.
type Policy struct {
	// RequireEntries rejects closing a period that holds no journal entries.
	RequireEntries bool
}

// Service is the only mutation path for period status. Transitions run under
// a row lock so close/reopen are mutually exclusive per period and postings
// observe either the pre- or post-transition state.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	policy Policy
	now    func() time.Time
}

// NewService constructs the period manager.
func NewService(repo RepositoryPort, audit AuditPort, policy Policy) *Service {
	return &Service{repo: repo, audit: audit, policy: policy, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns all periods ordered by start date.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// FindByDate returns the period covering date.
func (s *Service) FindByDate(ctx context.Context, date time.Time) (Period, error) {
	return s.repo.FindByDate(ctx, date)
}

// Create inserts a new period after validating overlap and contiguity with
// the latest existing period.
func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		conflict, err := tx.RangeConflict(ctx, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if conflict {
			return ErrOverlap
		}
		latest, found, err := tx.LatestPeriod(ctx)
		if err != nil {
			return err
		}
		if found && !in.StartDate.Equal(latest.EndDate.AddDate(0, 0, 1)) {
			return ErrGap
		}
		period, err = tx.Insert(ctx, in)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, in.ActorID, "period.create", period.ID, map[string]any{"code": period.Code})
	return period, nil
}

// Close freezes an open period. Every entry attributed to the period is
// re-checked for balance before the status flips.
func (s *Service) Close(ctx context.Context, periodID, actorID int64) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(current.Status, StatusClosed); err != nil {
			return err
		}
		if s.policy.RequireEntries {
			count, err := tx.EntryCount(ctx, periodID)
			if err != nil {
				return err
			}
			if count == 0 {
				return ErrNoEntries
			}
		}
		unbalanced, err := tx.UnbalancedEntryCount(ctx, periodID)
		if err != nil {
			return err
		}
		if unbalanced > 0 {
			return fmt.Errorf("%w: %d entries", ErrEntriesUnbalanced, unbalanced)
		}
		now := s.now()
		if err := tx.SetClosed(ctx, periodID, actorID, now); err != nil {
			return err
		}
		period = current
		period.Status = StatusClosed
		period.ClosedBy = &actorID
		period.ClosedAt = &now
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actorID, "period.close", period.ID, map[string]any{"code": period.Code})
	return period, nil
}

// Reopen flips a closed period back to open. Authorization is enforced by
// the caller; this records who reopened and when. Historical entries are not
// re-validated.
func (s *Service) Reopen(ctx context.Context, periodID, actorID int64) (Period, error) {
	var period Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(current.Status, StatusOpen); err != nil {
			return err
		}
		now := s.now()
		if err := tx.SetReopened(ctx, periodID, actorID, now); err != nil {
			return err
		}
		period = current
		period.Status = StatusOpen
		period.ReopenedBy = &actorID
		period.ReopenedAt = &now
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actorID, "period.reopen", period.ID, map[string]any{"code": period.Code})
	return period, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, periodID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "fiscal_period",
		EntityID: fmt.Sprintf("%d", periodID),
		Meta:     meta,
		At:       s.now(),
	})
}
