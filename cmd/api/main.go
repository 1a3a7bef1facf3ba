package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "greenbonds/internal/adapter/http"
	"greenbonds/internal/adapter/middleware"
	"greenbonds/internal/bootstrap"
	"greenbonds/internal/config"
	"greenbonds/internal/infrastructure/logging"
	"greenbonds/internal/usecase/investment"
	"greenbonds/internal/usecase/reconcile"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.SeedOnStart {
		res, err := app.Seed(ctx)
		if err != nil {
			return err
		}
		logger.Info("seeded demo data", zap.Int("users", res.Users), zap.Int("bonds", res.Bonds), zap.Int("projects", res.Projects), zap.Int("investments", res.Investments))
	}

	tracker := investment.NewTracker(app.Investment, cfg.AttemptRetention, cfg.CheckoutWindow, logger.Named("tracker"))
	defer tracker.Close()

	if cfg.ReconcileCron != "" {
		sched, err := reconcile.NewScheduler(app.Reconcile, cfg.ReconcileCron, cfg.ReconcileRepair, logger.Named("reconcile"))
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("reconcile scheduled", zap.String("cron", cfg.ReconcileCron), zap.Time("next", sched.Next()))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))

	h := httpadp.Handlers{
		Auth:      httpadp.NewAuthHandler(app.Auth, logger.Named("http")),
		Bonds:     httpadp.NewBondHandler(app.Market, tracker, logger.Named("http")),
		Checkout:  httpadp.NewCheckoutHandler(app.Checkout, tracker),
		Dashboard: httpadp.NewDashboardHandler(app.Portfolio, logger.Named("http")),
	}
	if app.Payments != nil {
		h.Payments = httpadp.NewPaymentHandler(app.Payments, logger.Named("http"))
	}
	httpadp.Register(e, h, httpadp.Guards{
		RequireAuth: middleware.RequireAuth(app.Auth),
		Idempotency: middleware.Idempotency(app.Redis, middleware.IdempotencyConfig{
			TTL:      cfg.IdempotencyTTL(),
			Prefix:   cfg.RedisPrefix,
			Identify: middleware.UserID,
			Optional: true,
			Log:      logger.Named("idempotency"),
		}),
	})

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("store", cfg.StoreBackend))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
