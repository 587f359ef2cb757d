package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afric-remit/bankapp/internal/auth"
	"github.com/afric-remit/bankapp/internal/ledger"
)

// errorBody is the error payload for every non-2xx response.
type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// writeError maps domain errors onto HTTP statuses. Insufficient funds is a
// client error (400) and an unknown account is 404; version conflicts
// surface as 409 and lock timeouts as 503.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "An internal server error occurred"

	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		status, msg = http.StatusNotFound, "Account not found"
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ledger.ErrBusy):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusServiceUnavailable, "request cancelled"
	}

	writeJSON(w, status, errorBody{Message: msg})
}
