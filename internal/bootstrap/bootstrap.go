// Package bootstrap wires configuration into stores, adapters and usecases
// for the API server and the operator CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"greenbonds/internal/adapter/checkout"
	"greenbonds/internal/adapter/gateway"
	"greenbonds/internal/adapter/razorpay"
	"greenbonds/internal/adapter/repository/mysql"
	"greenbonds/internal/adapter/repository/redisstore"
	"greenbonds/internal/config"
	"greenbonds/internal/domain/session"
	"greenbonds/internal/domain/uow"
	"greenbonds/internal/infrastructure/cache"
	"greenbonds/internal/infrastructure/db"
	"greenbonds/internal/seed"
	"greenbonds/internal/usecase/auth"
	"greenbonds/internal/usecase/investment"
	"greenbonds/internal/usecase/marketplace"
	"greenbonds/internal/usecase/payment"
	"greenbonds/internal/usecase/portfolio"
	"greenbonds/internal/usecase/reconcile"
)

// Store is the persistence for the configured backend.
type Store struct {
	Repos    uow.Repos
	UoW      uow.UnitOfWork
	Sessions session.Store

	gdb *gorm.DB
}

func (s *Store) Close() error {
	if s.gdb == nil {
		return nil
	}
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenStore opens the record store named by STORE_BACKEND. Sessions always
// live in Redis so logout can revoke tokens whatever the backend.
func OpenStore(cfg *config.Config, rdb *redis.Client, log *zap.Logger) (*Store, error) {
	rs := redisstore.New(rdb, cfg.RedisPrefix)
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return &Store{Repos: rs.Repos(), UoW: rs, Sessions: rs.Sessions()}, nil
	case config.BackendSQL:
		gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
		}
		if err := db.Migrate(gdb); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &Store{
			Repos: uow.Repos{
				Bonds:       mysql.NewBondRepository(gdb),
				Investments: mysql.NewInvestmentRepository(gdb),
				Users:       mysql.NewUserRepository(gdb),
				Impact:      mysql.NewImpactRepository(gdb),
			},
			UoW:      mysql.NewGormUoW(gdb),
			Sessions: rs.Sessions(),
			gdb:      gdb,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// App holds every usecase built from one configuration.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	Redis  *redis.Client
	Store  *Store

	// Payments is nil when the flow talks to a remote payment backend
	// and no provider keys are configured locally.
	Payments   *payment.Usecase
	Auth       *auth.Usecase
	Market     *marketplace.Usecase
	Portfolio  *portfolio.Usecase
	Reconcile  *reconcile.Usecase
	Investment *investment.Usecase
	Checkout   *checkout.Hosted
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("open redis: %w", err)
	}
	store, err := OpenStore(cfg, rdb, log)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	a := &App{Config: cfg, Log: log, Redis: rdb, Store: store}

	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		provider := razorpay.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, razorpay.WithBaseURL(cfg.RazorpayBaseURL))
		a.Payments = payment.NewUsecase(provider, cfg.Port(), cfg.Currency, log.Named("payment"))
	}

	var gw investment.Gateway
	switch {
	case cfg.PaymentBackendURL != "":
		gw = gateway.NewPayments(gateway.New(cfg.PaymentBackendURL, gateway.WithLogger(log.Named("gateway"))))
	case a.Payments != nil:
		gw = payment.NewDirect(a.Payments)
	default:
		_ = a.Close()
		return nil, errors.New("no payment backend: set PAYMENT_BACKEND_URL or the Razorpay keys")
	}

	a.Checkout = checkout.NewHosted(checkout.HTTPLoader{URL: cfg.CheckoutScriptURL}, log.Named("checkout"))
	a.Investment = investment.NewUsecase(store.UoW, gw, a.Checkout, investment.Params{
		FeeRate:      cfg.FeeRate,
		HorizonYears: cfg.ReturnHorizonYears,
		Currency:     cfg.Currency,
	}, log.Named("investment"))

	a.Auth = auth.NewUsecase(store.Repos.Users, store.Sessions, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), log.Named("auth"))
	a.Market = marketplace.NewUsecase(store.Repos.Bonds)
	a.Portfolio = portfolio.NewUsecase(store.Repos.Bonds, store.Repos.Investments, store.Repos.Impact)
	a.Reconcile = reconcile.NewUsecase(store.Repos.Bonds, store.Repos.Investments, store.UoW, log.Named("reconcile"))
	return a, nil
}

// Seed loads the embedded demo data; existing records are left alone.
func (a *App) Seed(ctx context.Context) (*seed.Result, error) {
	d, err := seed.Default()
	if err != nil {
		return nil, err
	}
	return seed.Load(ctx, a.Store.UoW, d, HashPassword, a.Log.Named("seed"))
}

func HashPassword(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	return string(h), err
}

func (a *App) Close() error {
	return errors.Join(a.Store.Close(), a.Redis.Close())
}
