package reports

import (
	"sort"
	"time"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// AccountTotal carries the raw debit and credit line totals for one account
// up to the report date.
type AccountTotal struct {
	Code        string
	Name        string
	Type        ledger.AccountType
	DebitMinor  int64
	CreditMinor int64
}

// TrialBalanceRow reports one account's net balance on its natural side.
// An abnormal (net-negative) balance shows up on the opposite column rather
// than being hidden.
type TrialBalanceRow struct {
	Code               string
	Name               string
	Type               ledger.AccountType
	DebitTotalMinor    int64
	CreditTotalMinor   int64
	BalanceDebitMinor  int64
	BalanceCreditMinor int64
}

// TrialBalance is the point-in-time report across every account.
type TrialBalance struct {
	AsOf             time.Time
	Rows             []TrialBalanceRow
	TotalDebitMinor  int64
	TotalCreditMinor int64
	IsBalanced       bool
}

// BuildTrialBalance nets each account's totals against its normal balance
// and cross-checks the books. IsBalanced is computed from the raw line
// totals, independent of the posting-time balance guarantee, so a
// directly-inserted unbalanced adjustment still surfaces here.
func BuildTrialBalance(asOf time.Time, totals []AccountTotal) TrialBalance {
	rows := make([]TrialBalanceRow, 0, len(totals))
	var debitSum, creditSum int64
	for _, t := range totals {
		row := TrialBalanceRow{
			Code:             t.Code,
			Name:             t.Name,
			Type:             t.Type,
			DebitTotalMinor:  t.DebitMinor,
			CreditTotalMinor: t.CreditMinor,
		}
		net := t.DebitMinor - t.CreditMinor
		if t.Type.NormalBalance() == ledger.SideCredit {
			net = -net
		}
		switch {
		case net >= 0 && t.Type.NormalBalance() == ledger.SideDebit:
			row.BalanceDebitMinor = net
		case net >= 0:
			row.BalanceCreditMinor = net
		case t.Type.NormalBalance() == ledger.SideDebit:
			row.BalanceCreditMinor = -net
		default:
			row.BalanceDebitMinor = -net
		}
		rows = append(rows, row)
		debitSum += t.DebitMinor
		creditSum += t.CreditMinor
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	var balDebit, balCredit int64
	for _, row := range rows {
		balDebit += row.BalanceDebitMinor
		balCredit += row.BalanceCreditMinor
	}
	return TrialBalance{
		AsOf:             asOf,
		Rows:             rows,
		TotalDebitMinor:  balDebit,
		TotalCreditMinor: balCredit,
		IsBalanced:       debitSum == creditSum,
	}
}

// BalanceFor returns the net balance of one account on its natural side;
// negative means an abnormal balance.
func (tb TrialBalance) BalanceFor(code string) int64 {
	for _, row := range tb.Rows {
		if row.Code != code {
			continue
		}
		if row.Type.NormalBalance() == ledger.SideDebit {
			return row.BalanceDebitMinor - row.BalanceCreditMinor
		}
		return row.BalanceCreditMinor - row.BalanceDebitMinor
	}
	return 0
}
