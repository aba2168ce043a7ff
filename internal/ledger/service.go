package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/printforge-erp/printforge-erp/internal/ledger/periods"
	"github.com/printforge-erp/printforge-erp/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error)
	CountEntries(ctx context.Context) (int, error)
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the posting engine: the sole writer of the ledger store. Every
// post commits as one atomic unit or not at all.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the posting engine.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post validates and commits a journal entry. Checks run in a fixed order,
// short-circuiting on the first failure, all before any write: account
// existence, line shape, exact balance, then period state under row lock.
// The dedup key (source type, id, step) rejects retries of an already
// committed post with ErrDuplicatePosting.
func (s *Service) Post(ctx context.Context, draft Draft) (JournalEntry, error) {
	postedAt := draft.PostedAt
	if postedAt.IsZero() {
		postedAt = s.now()
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accounts, err := tx.ResolveAccounts(ctx, draft.AccountCodes())
		if err != nil {
			return err
		}
		for _, code := range draft.AccountCodes() {
			account, ok := accounts[code]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownAccount, code)
			}
			if !account.IsActive {
				return fmt.Errorf("%w: %s is inactive", ErrUnknownAccount, code)
			}
		}
		if err := draft.Validate(); err != nil {
			return err
		}
		period, err := tx.GetPeriodByDateForUpdate(ctx, postedAt)
		if err != nil {
			return err
		}
		if period.Status != periods.StatusOpen {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, period.Code)
		}
		if !period.Contains(s.now()) && !draft.Backdated {
			return fmt.Errorf("%w: backdated post to %s requires the backdate capability", ErrPeriodClosed, period.Code)
		}
		inserted, err := tx.InsertEntry(ctx, period.ID, draft, postedAt)
		if err != nil {
			return err
		}
		lines, err := tx.InsertLines(ctx, inserted.ID, draft.Lines)
		if err != nil {
			return err
		}
		if err := tx.LinkSource(ctx, draft.Source, inserted.ID); err != nil {
			return err
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  draft.PostedBy,
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"source":    draft.Source.Key(),
				"backdated": draft.Backdated,
			},
			At: s.now(),
		})
	}
	return entry, nil
}

// Reverse posts an offsetting entry for a committed entry. The original is
// never mutated; the reversal carries a deterministic dedup key so a retry
// cannot double-reverse.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var original JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		original, err = tx.GetEntryWithLines(ctx, input.EntryID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	draft := Draft{
		Source: SourceRef{
			Type: SourceReversal,
			ID:   fmt.Sprintf("%d", original.ID),
			Step: "reverse",
		},
		Memo:     reversalMemo(input.Memo, original.ID),
		PostedBy: input.ActorID,
		Lines:    reverseLines(original.Lines),
	}
	reversal, err := s.Post(ctx, draft)
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "journal.reverse",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", original.ID),
			Meta: map[string]any{
				"reversal_id": reversal.ID,
			},
			At: s.now(),
		})
	}
	return reversal, nil
}

// GetEntry loads a committed entry with its lines.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntryWithLines(ctx, entryID)
		return err
	})
	return entry, err
}

// ListEntries returns one page of committed entries, newest first.
func (s *Service) ListEntries(ctx context.Context, page, perPage int) ([]JournalEntry, shared.Pagination, error) {
	total, err := s.repo.CountEntries(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	entries, err := s.repo.ListEntries(ctx, p.PerPage, (p.Page-1)*p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, p, nil
}

func reverseLines(lines []JournalLine) []DraftLine {
	out := make([]DraftLine, 0, len(lines))
	for _, line := range lines {
		side := SideDebit
		if line.Side == SideDebit {
			side = SideCredit
		}
		out = append(out, DraftLine{
			AccountCode: line.AccountCode,
			Side:        side,
			AmountMinor: line.AmountMinor,
		})
	}
	return out
}

func reversalMemo(memo string, entryID int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of JE %d", entryID)
}
