package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/afric-remit/bankapp/internal/auth"
	"github.com/afric-remit/bankapp/internal/config"
	"github.com/afric-remit/bankapp/internal/events/kafka"
	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/ledger"
	"github.com/afric-remit/bankapp/internal/models"
	"github.com/afric-remit/bankapp/internal/server"
	"github.com/afric-remit/bankapp/internal/storage/memory"
	"github.com/afric-remit/bankapp/internal/storage/postgres"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on system env vars")
	}
	cfg := config.Load()

	var (
		bankStore interfaces.BankStore
		userStore interfaces.UserStore
	)
	switch cfg.StoreBackend {
	case "postgres":
		db, err := connectDB(log)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()
		bankStore = postgres.NewStore(db)
		userStore = postgres.NewUserStore(db)
	default:
		bankStore = memory.NewStore()
		userStore = memory.NewUserStore()
	}

	if err := seedAccounts(context.Background(), bankStore, os.Getenv("SEED_ACCOUNTS"), log); err != nil {
		log.Fatal("account seeding failed", zap.Error(err))
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	}

	clock := interfaces.SystemClock{}
	processor := ledger.NewProcessor(bankStore, clock)
	authSvc := auth.NewService(userStore, clock, []byte(cfg.JWTSecret), cfg.JWTTTL)
	gateway := server.New(processor, authSvc, publisher, cfg.EventsTopic, log)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gateway,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreBackend))
		errCh <- httpSrv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}
}

func connectDB(log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.DatabaseURL())
	if err != nil {
		return nil, err
	}

	const maxRetries = 5
	delay := 2 * time.Second
	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return db, nil
		}
		log.Warn("database not reachable", zap.Int("attempt", i), zap.Error(err))
		if i < maxRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	db.Close()
	return nil, err
}

// seedAccounts creates the accounts listed in SEED_ACCOUNTS, e.g.
// "ACC-1001=100.00,ACC-1002=0". Accounts that already exist are left alone.
func seedAccounts(ctx context.Context, store interfaces.BankStore, list string, log *zap.Logger) error {
	if list == "" {
		return nil
	}

	for _, part := range strings.Split(list, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			return fmt.Errorf("malformed seed entry %q", part)
		}
		balance, err := decimal.NewFromString(pair[1])
		if err != nil || balance.IsNegative() {
			return fmt.Errorf("malformed seed balance %q", part)
		}

		if _, err := store.FindByAccountNumber(ctx, pair[0]); err == nil {
			continue
		}
		if err := store.Create(ctx, &models.Account{AccountNumber: pair[0], Balance: balance}); err != nil {
			return err
		}
		log.Info("seeded account", zap.String("account_number", pair[0]), zap.String("balance", balance.String()))
	}
	return nil
}
