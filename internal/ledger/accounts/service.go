package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// Service exposes the account registry. Accounts are created at seed time
// and immutable afterwards except for administrative rename.
type Service struct {
	repo Repository
}

// NewService constructs the registry service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every registered account ordered by code.
func (s *Service) List(ctx context.Context) ([]ledger.Account, error) {
	return s.repo.List(ctx)
}

// Get returns one account by code.
func (s *Service) Get(ctx context.Context, code string) (ledger.Account, error) {
	return s.repo.GetByCode(ctx, code)
}

// Create registers a new account. The type is derived from the leading
// digit of the code by convention (1xxx asset, 2xxx liability, 3xxx equity,
// 4xxx revenue, 5xxx expense) and must match the supplied type.
func (s *Service) Create(ctx context.Context, code, name string, accType ledger.AccountType) (ledger.Account, error) {
	code = strings.TrimSpace(code)
	if err := validateCode(code); err != nil {
		return ledger.Account{}, err
	}
	if derived := TypeForCode(code); derived != accType {
		return ledger.Account{}, fmt.Errorf("accounts: code %s implies type %s, got %s", code, derived, accType)
	}
	if strings.TrimSpace(name) == "" {
		return ledger.Account{}, errors.New("accounts: name required")
	}
	return s.repo.Insert(ctx, ledger.Account{Code: code, Name: name, Type: accType})
}

// Rename changes the display name only; type and normal balance never change.
func (s *Service) Rename(ctx context.Context, code, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("accounts: name required")
	}
	return s.repo.Rename(ctx, code, name)
}

// TypeForCode derives the account type from the 4-digit code convention.
func TypeForCode(code string) ledger.AccountType {
	switch {
	case strings.HasPrefix(code, "1"):
		return ledger.AccountTypeAsset
	case strings.HasPrefix(code, "2"):
		return ledger.AccountTypeLiability
	case strings.HasPrefix(code, "3"):
		return ledger.AccountTypeEquity
	case strings.HasPrefix(code, "4"):
		return ledger.AccountTypeRevenue
	default:
		return ledger.AccountTypeExpense
	}
}

func validateCode(code string) error {
	if len(code) != 4 {
		return errors.New("accounts: code must be 4 digits")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return errors.New("accounts: code must be 4 digits")
		}
	}
	return nil
}
