package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printforge-erp/printforge-erp/internal/ledger/periods"
)

type memoryRepo struct {
	accounts map[string]Account
	periods  []periods.Period
	entries  map[int64]JournalEntry
	links    map[string]int64
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts: make(map[string]Account),
		entries:  make(map[int64]JournalEntry),
		links:    make(map[string]int64),
	}
}

func (r *memoryRepo) addAccount(code string, typ AccountType) {
	r.accounts[code] = Account{Code: code, Name: code, Type: typ, IsActive: true}
}

func (r *memoryRepo) addPeriod(code string, start, end time.Time, status periods.Status) {
	r.periods = append(r.periods, periods.Period{
		ID:        int64(len(r.periods) + 1),
		Code:      code,
		StartDate: start,
		EndDate:   end,
		Status:    status,
	})
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error) {
	out := make([]JournalEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryRepo) CountEntries(ctx context.Context) (int, error) {
	return len(r.entries), nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) ResolveAccounts(ctx context.Context, codes []string) (map[string]Account, error) {
	out := make(map[string]Account, len(codes))
	for _, code := range codes {
		if acc, ok := tx.repo.accounts[code]; ok {
			out[code] = acc
		}
	}
	return out, nil
}

func (tx *memoryTx) GetPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error) {
	for _, p := range tx.repo.periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return periods.Period{}, ErrPeriodNotFound
}

func (tx *memoryTx) InsertEntry(ctx context.Context, periodID int64, draft Draft, postedAt time.Time) (JournalEntry, error) {
	tx.repo.nextID++
	entry := JournalEntry{
		ID:       tx.repo.nextID,
		PeriodID: periodID,
		PostedAt: postedAt,
		Source:   draft.Source,
		Memo:     draft.Memo,
		PostedBy: draft.PostedBy,
	}
	tx.repo.entries[entry.ID] = entry
	return entry, nil
}

func (tx *memoryTx) InsertLines(ctx context.Context, entryID int64, lines []DraftLine) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for idx, line := range lines {
		out = append(out, JournalLine{
			ID:          int64(idx + 1),
			EntryID:     entryID,
			AccountCode: line.AccountCode,
			Side:        line.Side,
			AmountMinor: line.AmountMinor,
		})
	}
	entry := tx.repo.entries[entryID]
	entry.Lines = out
	tx.repo.entries[entryID] = entry
	return out, nil
}

func (tx *memoryTx) LinkSource(ctx context.Context, ref SourceRef, entryID int64) error {
	if _, ok := tx.repo.links[ref.Key()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePosting, ref.Key())
	}
	tx.repo.links[ref.Key()] = entryID
	return nil
}

func (tx *memoryTx) GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, ok := tx.repo.entries[entryID]
	if !ok {
		return JournalEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return testNow })
	return svc
}

func seededRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.addAccount("1200", AccountTypeAsset)
	repo.addAccount("2000", AccountTypeLiability)
	repo.addPeriod("2025-03",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		periods.StatusOpen)
	return repo
}

func TestPostCommitsBalancedEntry(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	entry, err := svc.Post(context.Background(), validDraft())
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.ID)
	require.Equal(t, int64(1), entry.PeriodID)
	require.Len(t, entry.Lines, 2)
	require.Equal(t, testNow, entry.PostedAt)
}

func TestPostRejectsUnknownAccountBeforeBalanceCheck(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	// Unbalanced AND referencing a missing account: the account check wins.
	draft := validDraft()
	draft.Lines[0].AccountCode = "9999"
	draft.Lines[0].AmountMinor = 1

	_, err := svc.Post(context.Background(), draft)
	require.ErrorIs(t, err, ErrUnknownAccount)
	require.NotErrorIs(t, err, ErrUnbalancedEntry)
	require.Empty(t, repo.entries)
}

func TestPostRejectsInactiveAccount(t *testing.T) {
	repo := seededRepo()
	acc := repo.accounts["2000"]
	acc.IsActive = false
	repo.accounts["2000"] = acc
	svc := newTestService(repo)

	_, err := svc.Post(context.Background(), validDraft())
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestPostRejectsClosedPeriod(t *testing.T) {
	repo := seededRepo()
	repo.periods[0].Status = periods.StatusClosed
	svc := newTestService(repo)

	_, err := svc.Post(context.Background(), validDraft())
	require.ErrorIs(t, err, ErrPeriodClosed)
	require.Empty(t, repo.entries)
}

func TestPostRejectsDateOutsideAnyPeriod(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	draft := validDraft()
	draft.PostedAt = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	draft.Backdated = true

	_, err := svc.Post(context.Background(), draft)
	require.ErrorIs(t, err, ErrPeriodNotFound)
}

func TestPostBackdatedRequiresFlag(t *testing.T) {
	repo := seededRepo()
	repo.addPeriod("2025-02",
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		periods.StatusOpen)
	svc := newTestService(repo)

	draft := validDraft()
	draft.PostedAt = time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Post(context.Background(), draft)
	require.ErrorIs(t, err, ErrPeriodClosed)

	draft.Backdated = true
	entry, err := svc.Post(context.Background(), draft)
	require.NoError(t, err)
	require.Equal(t, int64(2), entry.PeriodID)
}

func TestPostDuplicateDedupKey(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	_, err := svc.Post(context.Background(), validDraft())
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), validDraft())
	require.ErrorIs(t, err, ErrDuplicatePosting)

	// A different step on the same document posts fine.
	draft := validDraft()
	draft.Source.Step = "second"
	_, err = svc.Post(context.Background(), draft)
	require.NoError(t, err)
}

func TestReverseFlipsSidesAndDedups(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	entry, err := svc.Post(context.Background(), validDraft())
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), ReverseInput{EntryID: entry.ID, ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, SourceReversal, reversal.Source.Type)
	require.Equal(t, "Reversal of JE 1", reversal.Memo)

	lines := repo.entries[reversal.ID].Lines
	require.Len(t, lines, 2)
	require.Equal(t, SideCredit, lines[0].Side)
	require.Equal(t, "1200", lines[0].AccountCode)
	require.Equal(t, SideDebit, lines[1].Side)
	require.Equal(t, "2000", lines[1].AccountCode)

	// Retrying the reversal hits the deterministic dedup key.
	_, err = svc.Reverse(context.Background(), ReverseInput{EntryID: entry.ID, ActorID: 7})
	require.ErrorIs(t, err, ErrDuplicatePosting)
}

func TestReverseMissingEntry(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	_, err := svc.Reverse(context.Background(), ReverseInput{EntryID: 42, ActorID: 1})
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestListEntriesPagination(t *testing.T) {
	repo := seededRepo()
	svc := newTestService(repo)

	for i := 0; i < 5; i++ {
		draft := validDraft()
		draft.Source.ID = fmt.Sprintf("adj-%d", i)
		_, err := svc.Post(context.Background(), draft)
		require.NoError(t, err)
	}

	entries, pagination, err := svc.ListEntries(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	require.Equal(t, 2, pagination.Page)
	require.Equal(t, 2, pagination.PerPage)
	require.Equal(t, 5, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)

	// Out-of-range inputs clamp to the defaults.
	_, pagination, err = svc.ListEntries(context.Background(), 0, -1)
	require.NoError(t, err)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PerPage)
}
