package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/afric-remit/bankapp/internal/auth"
	"github.com/afric-remit/bankapp/internal/ledger"
	"github.com/afric-remit/bankapp/internal/models"
	"github.com/afric-remit/bankapp/internal/models/events"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// transactionRequest uses a pointer amount so "missing" and "zero" can be
// told apart.
type transactionRequest struct {
	AccountNumber string           `json:"accountNumber"`
	Amount        *decimal.Decimal `json:"amount"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request body"})
		return
	}

	if err := s.auth.Register(r.Context(), req.Username, req.Password, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request body"})
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}

	res, err := s.processor.Credit(r.Context(), req.AccountNumber, *req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	s.publishPosted(res, claimsFrom(r.Context()))
	writeText(w, http.StatusOK, "Credit successful")
}

func (s *Server) handleDebit(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}

	res, err := s.processor.Debit(r.Context(), req.AccountNumber, *req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	s.publishPosted(res, claimsFrom(r.Context()))
	writeText(w, http.StatusOK, "Debit successful")
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	balance, err := s.processor.Balance(r.Context(), accountNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AccountNumber string          `json:"account_number"`
		Balance       decimal.Decimal `json:"balance"`
	}{accountNumber, balance})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	entries, err := s.processor.Journal(r.Context(), accountNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (transactionRequest, bool) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request body"})
		return req, false
	}
	if req.AccountNumber == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Account number is required"})
		return req, false
	}
	if req.Amount == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Amount is required"})
		return req, false
	}
	return req, true
}

// publishPosted emits the post-commit event. Best-effort: failures are
// logged and never surfaced to the client.
func (s *Server) publishPosted(res ledger.Result, claims *auth.Claims) {
	if s.publisher == nil {
		return
	}

	event := events.TransactionPosted{
		TransactionID: res.Entry.TransactionID,
		AccountNumber: res.Entry.AccountNumber,
		Type:          string(res.Entry.Type),
		Amount:        res.Entry.Amount,
		BalanceAfter:  res.Account.Balance,
		OccurredAt:    res.Entry.Timestamp,
	}
	if claims != nil {
		event.InitiatedBy = claims.Username
	}
	if err := s.publisher.Publish(s.topic, event); err != nil {
		s.log.Warn("publish transaction event",
			zap.String("transaction_id", event.TransactionID),
			zap.Error(err),
		)
	}
}
