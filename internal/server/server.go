package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/afric-remit/bankapp/internal/auth"
	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/ledger"
)

// Server is the HTTP gateway: it deserializes requests, invokes the
// transaction processor and auth service, and maps their results onto HTTP.
type Server struct {
	processor *ledger.Processor
	auth      *auth.Service
	publisher interfaces.EventPublisher
	topic     string
	log       *zap.Logger
	router    chi.Router
}

// New builds the gateway. publisher may be nil when eventing is disabled.
func New(processor *ledger.Processor, authSvc *auth.Service, publisher interfaces.EventPublisher, topic string, log *zap.Logger) *Server {
	s := &Server{
		processor: processor,
		auth:      authSvc,
		publisher: publisher,
		topic:     topic,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Route("/account", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/credit", s.handleCredit)
			r.Post("/debit", s.handleDebit)
			r.Get("/{accountNumber}/balance", s.handleBalance)
			r.Get("/{accountNumber}/journal", s.handleJournal)
		})
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
