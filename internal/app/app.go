// Package app wires the services, sinks and router of one API process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/analytics"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/config"
	"github.com/01moynul/storefront-golang/internal/events"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/live"
	"github.com/01moynul/storefront-golang/internal/metrics"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/01moynul/storefront-golang/internal/routes"
	"github.com/01moynul/storefront-golang/internal/store"
)

const limiterSweepInterval = time.Minute

type App struct {
	Router  *gin.Engine
	Hub     *live.Hub
	Limiter *middleware.UserRateLimiter

	cfg   config.Config
	store store.Store
	kafka *events.KafkaSink
	log   *logrus.Entry
}

func New(cfg config.Config, st store.Store, logger *logrus.Logger) *App {
	log := logrus.NewEntry(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. --- Event sinks ---
	hub := live.NewHub(log, cfg.ClientURL)
	sinks := events.Multi{events.NewLogSink(log), hub}
	var kafka *events.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		kafka = events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, kafka)
		log.WithFields(logrus.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic}).Info("Publishing order events to Kafka")
	}

	// 2. --- Services ---
	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	limiter := middleware.NewUserRateLimiter(cfg.OrderRateLimit, cfg.OrderRateBurst)

	h := &handlers.Handlers{
		Accounts:      accounts.NewService(st, tokens, log),
		Catalog:       catalog.NewService(st, log),
		Cart:          cart.NewService(st, st, log),
		Orders:        orders.NewService(st, st, st, sinks, m, log, orders.Options{CompensateStock: cfg.CompensateStock}),
		Analytics:     analytics.NewService(st),
		Live:          hub,
		Log:           log,
		SecureCookies: cfg.IsProduction(),
	}

	// 3. --- Router ---
	router := routes.SetupRouter(h, routes.Options{
		ClientURL:    cfg.ClientURL,
		Metrics:      m,
		OrderLimiter: limiter,
	})

	return &App{
		Router:  router,
		Hub:     hub,
		Limiter: limiter,
		cfg:     cfg,
		store:   st,
		kafka:   kafka,
		log:     log,
	}
}

// Run serves HTTP until ctx is cancelled, then drains connections and closes the store.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Background worker: forget idle rate limiter buckets ---
	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.Limiter.Sweep()
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("port", a.cfg.Port).Info("Starting storefront API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Close(context.Background())
			return errors.Wrap(err, "listen")
		}
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("Graceful shutdown failed")
	}
	return a.Close(shutdownCtx)
}

func (a *App) Close(ctx context.Context) error {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.log.WithError(err).Warn("Closing Kafka writer failed")
		}
	}
	return a.store.Close(ctx)
}
