package accounts

import (
	"context"
	"errors"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// Chart returns the seed chart of accounts for print-farm operations.
// The four inventory accounts (1200-1230) back the valuation reconciler.
func Chart() []ledger.Account {
	return []ledger.Account{
		{Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset},
		{Code: "1100", Name: "Accounts Receivable", Type: ledger.AccountTypeAsset},
		{Code: "1200", Name: "Raw Materials Inventory", Type: ledger.AccountTypeAsset},
		{Code: "1210", Name: "Work in Process Inventory", Type: ledger.AccountTypeAsset},
		{Code: "1220", Name: "Finished Goods Inventory", Type: ledger.AccountTypeAsset},
		{Code: "1230", Name: "Packaging Inventory", Type: ledger.AccountTypeAsset},
		{Code: "2000", Name: "Accounts Payable", Type: ledger.AccountTypeLiability},
		{Code: "3000", Name: "Owner Equity", Type: ledger.AccountTypeEquity},
		{Code: "4000", Name: "Sales Revenue", Type: ledger.AccountTypeRevenue},
		{Code: "5000", Name: "Cost of Goods Sold", Type: ledger.AccountTypeExpense},
		{Code: "5010", Name: "Shipping Expense", Type: ledger.AccountTypeExpense},
		{Code: "5020", Name: "Scrap Expense", Type: ledger.AccountTypeExpense},
	}
}

// Seed inserts the chart of accounts, skipping codes that already exist.
func Seed(ctx context.Context, repo Repository) error {
	for _, account := range Chart() {
		if _, err := repo.Insert(ctx, account); err != nil {
			if errors.Is(err, ErrDuplicateCode) {
				continue
			}
			return err
		}
	}
	return nil
}
