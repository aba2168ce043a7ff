package ledger

import "time"

// PostRequest is the JSON body for posting a manual journal entry.
type PostRequest struct {
	PostedAt  *time.Time        `json:"posted_at"`
	SourceID  string            `json:"source_id"`
	Step      string            `json:"step"`
	Memo      string            `json:"memo" validate:"max=500"`
	Backdated bool              `json:"backdated"`
	Lines     []PostLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// PostLineRequest is one line of a posting request.
type PostLineRequest struct {
	AccountCode string `json:"account_code" validate:"required,len=4,numeric"`
	Side        string `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	AmountMinor int64  `json:"amount_minor" validate:"required,gt=0"`
}

// ReverseRequest is the JSON body for reversing an entry.
type ReverseRequest struct {
	Memo string `json:"memo" validate:"max=500"`
}

// EntryResponse is the JSON shape of a committed entry.
type EntryResponse struct {
	ID       int64          `json:"id"`
	PeriodID int64          `json:"period_id"`
	PostedAt time.Time      `json:"posted_at"`
	Source   string         `json:"source"`
	Memo     string         `json:"memo"`
	Lines    []LineResponse `json:"lines"`
}

// LineResponse is the JSON shape of a journal line.
type LineResponse struct {
	AccountCode string `json:"account_code"`
	Side        string `json:"side"`
	AmountMinor int64  `json:"amount_minor"`
}

// ToEntryResponse converts a domain entry for transport.
func ToEntryResponse(entry JournalEntry) EntryResponse {
	out := EntryResponse{
		ID:       entry.ID,
		PeriodID: entry.PeriodID,
		PostedAt: entry.PostedAt,
		Source:   entry.Source.Key(),
		Memo:     entry.Memo,
		Lines:    make([]LineResponse, 0, len(entry.Lines)),
	}
	for _, line := range entry.Lines {
		out.Lines = append(out.Lines, LineResponse{
			AccountCode: line.AccountCode,
			Side:        string(line.Side),
			AmountMinor: line.AmountMinor,
		})
	}
	return out
}
