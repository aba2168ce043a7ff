package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
	"github.com/printforge-erp/printforge-erp/internal/platform/httpx"
	"github.com/printforge-erp/printforge-erp/internal/shared"
	"github.com/printforge-erp/printforge-erp/report"
)

// Handler serves the read-only GL reports. All routes require the report
// viewing tier.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pdf     *report.Client
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// WithPDF enables format=pdf downloads through the given converter.
func (h *Handler) WithPDF(client *report.Client) *Handler {
	h.pdf = client
	return h
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/reports/trial-balance", h.TrialBalance)
	r.Get("/finance/reports/ledger/{code}", h.Ledger)
}

type trialBalanceRowResponse struct {
	Code          string             `json:"account_code"`
	Name          string             `json:"account_name"`
	Type          ledger.AccountType `json:"type"`
	DebitBalance  string             `json:"debit_balance"`
	CreditBalance string             `json:"credit_balance"`
}

type trialBalanceResponse struct {
	AsOf        string                    `json:"as_of"`
	Rows        []trialBalanceRowResponse `json:"rows"`
	TotalDebit  string                    `json:"total_debit"`
	TotalCredit string                    `json:"total_credit"`
	IsBalanced  bool                      `json:"is_balanced"`
}

type ledgerRowResponse struct {
	EntryID int64  `json:"entry_id"`
	Date    string `json:"date"`
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Running string `json:"running_balance"`
}

type ledgerResponse struct {
	AccountCode string              `json:"account_code"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Opening     string              `json:"opening_balance"`
	Closing     string              `json:"closing_balance"`
	Rows        []ledgerRowResponse `json:"rows"`
}

// TrialBalance renders the trial balance as of a date. Pass format=csv for
// a streamed CSV download.
func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	if !actor.CanViewReports() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "report access requires a paid tier")
		return
	}
	asOf, err := dateOrNow(r.URL.Query().Get("as_of"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trial_balance.csv"`)
		if err := WriteTrialBalanceCSV(w, tb); err != nil {
			h.logger.Error("trial balance csv", slog.Any("error", err))
		}
		return
	case "pdf":
		h.trialBalancePDF(w, r, tb)
		return
	}
	out := trialBalanceResponse{
		AsOf:        tb.AsOf.Format("2006-01-02"),
		Rows:        make([]trialBalanceRowResponse, 0, len(tb.Rows)),
		TotalDebit:  FormatMinor(tb.TotalDebitMinor),
		TotalCredit: FormatMinor(tb.TotalCreditMinor),
		IsBalanced:  tb.IsBalanced,
	}
	for _, row := range tb.Rows {
		out.Rows = append(out.Rows, trialBalanceRowResponse{
			Code:          row.Code,
			Name:          row.Name,
			Type:          row.Type,
			DebitBalance:  FormatMinor(row.BalanceDebitMinor),
			CreditBalance: FormatMinor(row.BalanceCreditMinor),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) trialBalancePDF(w http.ResponseWriter, r *http.Request, tb TrialBalance) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusNotImplemented, "PDF Export Disabled", "no PDF converter is configured")
		return
	}
	doc := report.TrialBalanceDoc{
		Company:     "PrintForge",
		AsOf:        tb.AsOf.Format("2006-01-02"),
		Rows:        make([]report.TrialBalanceLine, 0, len(tb.Rows)),
		TotalDebit:  FormatMinor(tb.TotalDebitMinor),
		TotalCredit: FormatMinor(tb.TotalCreditMinor),
		Balanced:    tb.IsBalanced,
	}
	for _, row := range tb.Rows {
		doc.Rows = append(doc.Rows, report.TrialBalanceLine{
			Code:   row.Code,
			Name:   row.Name,
			Debit:  FormatMinor(row.BalanceDebitMinor),
			Credit: FormatMinor(row.BalanceCreditMinor),
		})
	}
	html, err := report.RenderTrialBalanceHTML(doc)
	if err != nil {
		h.logger.Error("trial balance html", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("trial balance pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "PDF Converter Unavailable", "retry shortly or download CSV")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="trial_balance.pdf"`)
	_, _ = w.Write(pdf)
}

// Ledger renders one account's ledger with running balances over a range.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	if !actor.CanViewReports() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "report access requires a paid tier")
		return
	}
	code := chi.URLParam(r, "code")
	from, err := dateOrNow(r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
		return
	}
	to, err := dateOrNow(r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
		return
	}
	if from.After(to) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from cannot be after to")
		return
	}
	acct, err := h.service.Ledger(r.Context(), code, from, to)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := ledgerResponse{
		AccountCode: acct.AccountCode,
		From:        acct.From.Format("2006-01-02"),
		To:          acct.To.Format("2006-01-02"),
		Opening:     FormatMinor(acct.OpeningMinor),
		Closing:     FormatMinor(acct.ClosingMinor()),
		Rows:        make([]ledgerRowResponse, 0, acct.Len()),
	}
	for row := range acct.Rows() {
		out.Rows = append(out.Rows, ledgerRowResponse{
			EntryID: row.EntryID,
			Date:    row.PostedAt.Format("2006-01-02"),
			Debit:   FormatMinor(row.DebitMinor),
			Credit:  FormatMinor(row.CreditMinor),
			Running: FormatMinor(row.RunningMinor),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func dateOrNow(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnknownAccount):
		httpx.Problem(w, http.StatusNotFound, "Unknown Account", err.Error())
	case ledger.IsTransient(err):
		httpx.Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "retry shortly")
	default:
		h.logger.Error("reports handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
