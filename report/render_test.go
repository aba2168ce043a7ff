package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleDoc() TrialBalanceDoc {
	return TrialBalanceDoc{
		Company:     "PrintForge",
		AsOf:        "2025-03-31",
		Rows:        []TrialBalanceLine{{Code: "1200", Name: "Raw Materials Inventory", Debit: "600.00", Credit: "0.00"}},
		TotalDebit:  "600.00",
		TotalCredit: "600.00",
		Balanced:    true,
	}
}

func TestRenderTrialBalanceHTML(t *testing.T) {
	html, err := RenderTrialBalanceHTML(sampleDoc())
	require.NoError(t, err)
	require.Contains(t, html, "Trial balance as of 2025-03-31")
	require.Contains(t, html, "Raw Materials Inventory")
	require.Contains(t, html, "600.00")
	require.NotContains(t, html, "out of balance")
}

func TestRenderTrialBalanceHTMLFlagsImbalance(t *testing.T) {
	doc := sampleDoc()
	doc.Balanced = false
	html, err := RenderTrialBalanceHTML(doc)
	require.NoError(t, err)
	require.Contains(t, html, "Books are out of balance.")
}

func TestClientRenderHTML(t *testing.T) {
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	pdf, err := client.RenderHTML(context.Background(), "<html><body>tb</body></html>")
	require.NoError(t, err)
	require.Equal(t, "/forms/chromium/convert/html", gotPath)
	require.True(t, strings.HasPrefix(gotContentType, "multipart/form-data"))
	require.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestClientRenderHTMLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.RenderHTML(context.Background(), "<html></html>")
	require.Error(t, err)
}
