package ledger

import (
	"errors"
	"fmt"
	"time"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Side identifies the debit or credit side of a journal line.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// NormalBalance reports the side on which accounts of the given type
// accumulate value. Derived from the account type; never stored separately.
func (t AccountType) NormalBalance() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// SourceType enumerates the document kinds that trigger postings.
type SourceType string

const (
	SourcePurchaseOrder    SourceType = "PURCHASE_ORDER"
	SourceProductionOrder  SourceType = "PRODUCTION_ORDER"
	SourceSalesOrder       SourceType = "SALES_ORDER"
	SourceManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
	SourceReversal         SourceType = "REVERSAL"
)

// SourceRef is a weak reference to the document that produced an entry.
// The triple (Type, ID, Step) is the posting deduplication key; Step
// distinguishes multiple postings driven by the same document.
type SourceRef struct {
	Type SourceType
	ID   string
	Step string
}

// Key renders the dedup key in its canonical form.
func (s SourceRef) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.Type, s.ID, s.Step)
}

// Account models one node of the GL chart of accounts.
type Account struct {
	Code      string
	Name      string
	Type      AccountType
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalBalance is the side this account naturally accumulates on.
func (a Account) NormalBalance() Side {
	return a.Type.NormalBalance()
}

// JournalEntry captures posting metadata. Entries are immutable once
// committed; corrections are posted as new offsetting entries.
type JournalEntry struct {
	ID        int64
	PeriodID  int64
	PostedAt  time.Time
	Source    SourceRef
	Memo      string
	PostedBy  int64
	CreatedAt time.Time
	Lines     []JournalLine
}

// JournalLine stores one side of a movement in minor currency units.
// Lines exist only as part of their owning entry.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountCode string
	Side        Side
	AmountMinor int64
}

// DraftLine describes a journal line in a posting request.
type DraftLine struct {
	AccountCode string
	Side        Side
	AmountMinor int64
}

// Draft groups the fields required to post a journal entry. PostedAt
// resolves the target period; a zero value means "now". Backdated must be
// set when PostedAt falls outside the period covering the current date.
type Draft struct {
	PostedAt  time.Time
	Source    SourceRef
	Memo      string
	PostedBy  int64
	Backdated bool
	Lines     []DraftLine
}

var (
	// ErrUnknownAccount indicates a line references a code missing from the registry.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrMalformedEntry indicates fewer than two lines or a missing side.
	ErrMalformedEntry = errors.New("ledger: malformed entry")
	// ErrUnbalancedEntry indicates total debits != total credits.
	ErrUnbalancedEntry = errors.New("ledger: entry does not balance")
	// ErrPeriodClosed indicates the target period does not accept postings.
	ErrPeriodClosed = errors.New("ledger: period closed")
	// ErrPeriodNotFound indicates no period covers the posting date.
	ErrPeriodNotFound = errors.New("ledger: period not found")
	// ErrDuplicatePosting indicates the dedup key was already committed.
	ErrDuplicatePosting = errors.New("ledger: duplicate posting")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
)

// Validate applies the structural checks of the posting pipeline: line
// shape first, then exact balance. Account existence is checked against
// the registry by the posting engine before this runs.
func (d Draft) Validate() error {
	if len(d.Lines) < 2 {
		return fmt.Errorf("%w: at least two lines required", ErrMalformedEntry)
	}
	if d.Source.Type == "" || d.Source.ID == "" {
		return fmt.Errorf("%w: source reference required", ErrMalformedEntry)
	}
	var debit, credit int64
	var hasDebit, hasCredit bool
	for idx, line := range d.Lines {
		if line.AccountCode == "" {
			return fmt.Errorf("%w: line %d missing account", ErrMalformedEntry, idx)
		}
		if line.AmountMinor <= 0 {
			return fmt.Errorf("%w: line %d amount must be positive", ErrMalformedEntry, idx)
		}
		switch line.Side {
		case SideDebit:
			hasDebit = true
			debit += line.AmountMinor
		case SideCredit:
			hasCredit = true
			credit += line.AmountMinor
		default:
			return fmt.Errorf("%w: line %d has no side", ErrMalformedEntry, idx)
		}
	}
	if !hasDebit || !hasCredit {
		return fmt.Errorf("%w: both sides required", ErrMalformedEntry)
	}
	if debit != credit {
		return fmt.Errorf("%w: debit %d vs credit %d", ErrUnbalancedEntry, debit, credit)
	}
	return nil
}

// AccountCodes returns the distinct account codes referenced by the draft,
// in first-seen order.
func (d Draft) AccountCodes() []string {
	seen := make(map[string]struct{}, len(d.Lines))
	codes := make([]string, 0, len(d.Lines))
	for _, line := range d.Lines {
		if _, ok := seen[line.AccountCode]; ok {
			continue
		}
		seen[line.AccountCode] = struct{}{}
		codes = append(codes, line.AccountCode)
	}
	return codes
}

// ReverseInput wraps parameters for posting an offsetting entry.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Memo    string
}

// TransientError marks infrastructure failures that are safe to retry with
// the same deduplication key.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "ledger: transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable infrastructure failure.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
