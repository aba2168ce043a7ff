package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Memo string `json:"memo"`
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"memo":"ok","mmo":"typo"}`))
	var p payload
	require.Error(t, DecodeJSON(r, &p))
}

func TestDecodeJSONRejectsTrailingContent(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"memo":"ok"}{"memo":"again"}`))
	var p payload
	require.Error(t, DecodeJSON(r, &p))
}

func TestDecodeJSONAcceptsWellFormedBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"memo":"material receipt"}`))
	var p payload
	require.NoError(t, DecodeJSON(r, &p))
	require.Equal(t, "material receipt", p.Memo)
}
