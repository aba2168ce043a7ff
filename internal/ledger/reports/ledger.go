package reports

import (
	"iter"
	"sort"
	"time"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// LedgerLine is one journal line attributed to the report's account.
type LedgerLine struct {
	EntryID     int64
	PostedAt    time.Time
	Side        ledger.Side
	AmountMinor int64
}

// LedgerRow is one row of the account ledger with its running balance.
type LedgerRow struct {
	EntryID      int64
	PostedAt     time.Time
	DebitMinor   int64
	CreditMinor  int64
	RunningMinor int64
}

// LedgerReport is the per-account ledger over a date range. Rows yields
// lazily and every call restarts from the opening balance, so the sequence
// is finite, deterministic, and re-iterable.
type LedgerReport struct {
	AccountCode  string
	From         time.Time
	To           time.Time
	OpeningMinor int64

	normal ledger.Side
	lines  []LedgerLine
}

// BuildLedger orders lines by posted_at ascending with entry id as the
// stable tie break, and fixes the opening balance the running totals
// accumulate from.
func BuildLedger(account ledger.Account, from, to time.Time, openingMinor int64, lines []LedgerLine) LedgerReport {
	ordered := append([]LedgerLine(nil), lines...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].PostedAt.Equal(ordered[j].PostedAt) {
			return ordered[i].PostedAt.Before(ordered[j].PostedAt)
		}
		return ordered[i].EntryID < ordered[j].EntryID
	})
	return LedgerReport{
		AccountCode:  account.Code,
		From:         from,
		To:           to,
		OpeningMinor: openingMinor,
		normal:       account.NormalBalance(),
		lines:        ordered,
	}
}

// Rows iterates the ledger rows, accumulating the running balance per the
// account's normal-balance convention.
func (r LedgerReport) Rows() iter.Seq[LedgerRow] {
	return func(yield func(LedgerRow) bool) {
		running := r.OpeningMinor
		for _, line := range r.lines {
			row := LedgerRow{
				EntryID:  line.EntryID,
				PostedAt: line.PostedAt,
			}
			signed := line.AmountMinor
			if line.Side == ledger.SideDebit {
				row.DebitMinor = line.AmountMinor
				if r.normal == ledger.SideCredit {
					signed = -signed
				}
			} else {
				row.CreditMinor = line.AmountMinor
				if r.normal == ledger.SideDebit {
					signed = -signed
				}
			}
			running += signed
			row.RunningMinor = running
			if !yield(row) {
				return
			}
		}
	}
}

// ClosingMinor returns the balance after the last row in range.
func (r LedgerReport) ClosingMinor() int64 {
	closing := r.OpeningMinor
	for row := range r.Rows() {
		closing = row.RunningMinor
	}
	return closing
}

// Len reports the number of rows in range.
func (r LedgerReport) Len() int {
	return len(r.lines)
}
