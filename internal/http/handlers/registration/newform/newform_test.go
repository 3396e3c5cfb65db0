package newform

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/paid-signup/internal/http/params"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandler_ServeHTTP(t *testing.T) {
	payment := params.PaymentInfo{PublishableKey: "pk_test", Amount: 995, Description: "Book", Currency: "usd"}
	handler := New(newNoopLogger(), payment)

	req := httptest.NewRequest(http.MethodGet, "/users/sign_up", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string          `json:"status"`
		Data   params.FormView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, params.UserForm{}, resp.Data.User)
	assert.Equal(t, payment, resp.Data.Payment)
}
