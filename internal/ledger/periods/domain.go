package periods

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates valid period states.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Period represents a fiscal period window. Periods are contiguous and
// non-overlapping; they cycle between OPEN and CLOSED and are never deleted
// while journal entries reference them.
type Period struct {
	ID         int64
	Code       string
	StartDate  time.Time
	EndDate    time.Time
	Status     Status
	ClosedBy   *int64
	ClosedAt   *time.Time
	ReopenedBy *int64
	ReopenedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contains reports whether the given date falls inside the period window.
// The comparison uses the timestamp's own calendar date, so a posting made
// just after midnight in a non-UTC zone stays in that zone's period.
func (p Period) Contains(date time.Time) bool {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// CreateInput captures validation rules for new periods.
type CreateInput struct {
	Code      string
	StartDate time.Time
	EndDate   time.Time
	ActorID   int64
}

// Validate ensures the create input is coherent.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("periods: code required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errors.New("periods: start and end date required")
	}
	if in.StartDate.After(in.EndDate) {
		return errors.New("periods: start date cannot be after end date")
	}
	return nil
}

var (
	// ErrNotFound indicates the period does not exist.
	ErrNotFound = errors.New("periods: period not found")
	// ErrInvalidTransition indicates the requested status change is not allowed.
	ErrInvalidTransition = errors.New("periods: invalid status transition")
	// ErrOverlap indicates the requested window conflicts with an existing period.
	ErrOverlap = errors.New("periods: period overlaps existing range")
	// ErrGap indicates the requested window is not contiguous with the latest period.
	ErrGap = errors.New("periods: period not contiguous with previous")
	// ErrNoEntries is returned by Close when policy requires at least one entry.
	ErrNoEntries = errors.New("periods: period has no entries")
	// ErrEntriesUnbalanced is the defensive close assertion; it indicates an
	// entry inside the period does not balance and must be triaged manually.
	ErrEntriesUnbalanced = errors.New("periods: period contains unbalanced entries")
)

// ValidateTransition is the single authority on status changes.
func ValidateTransition(current, target Status) error {
	switch {
	case current == StatusOpen && target == StatusClosed:
		return nil
	case current == StatusClosed && target == StatusOpen:
		return nil
	default:
		return ErrInvalidTransition
	}
}
