// Package server boots the storefront process: config, connections, the
// HTTP kernel and the background workers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/perennia/storefront/app/events"
	"github.com/perennia/storefront/app/jobs"
	"github.com/perennia/storefront/app/services"
	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/internal/kernel"
	"github.com/perennia/storefront/pkg/cache"
	"github.com/perennia/storefront/pkg/database"
	"github.com/perennia/storefront/pkg/event"
	"github.com/perennia/storefront/pkg/grpc"
	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/notification"
	"github.com/perennia/storefront/pkg/payment"
	"github.com/perennia/storefront/pkg/queue"
	"github.com/perennia/storefront/pkg/schedule"
	"github.com/perennia/storefront/pkg/storage"
	"github.com/perennia/storefront/pkg/ws"
)

const (
	shutdownTimeout  = 10 * time.Second
	reconcileTimeout = 5 * time.Minute
)

// Boot loads config, opens the database, cache, queue and storage, and
// wires the application. The returned func releases what Boot opened.
func Boot() (*kernel.App, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, fmt.Errorf("server: load config: %w", err)
	}
	logger.Setup(config.IsProduction())

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if uri := config.MongoURL(); uri != "" {
		closeMongo, err := logger.EnableMongo(uri, config.MongoDB())
		if err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		} else {
			closers = append(closers, closeMongo)
		}
	}

	if err := database.Connect(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("server: %w", err)
	}
	closers = append(closers, func() { database.Close() })

	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, using in-memory cache", "error", err)
	}
	if config.QueueDriver() == "redis" {
		if cache.RDB == nil {
			logger.Warn("QUEUE_DRIVER=redis but redis is unavailable, using memory queue")
		} else {
			d := queue.NewRedisDriver(cache.RDB)
			queue.SetDriver(d)
			closers = append(closers, d.Close)
		}
	}
	queue.UseDB(database.DB)

	storage.Connect()
	notification.SetSlackWebhook(config.SlackWebhookURL())
	ws.SetCheckOrigin(ws.AllowOrigins(config.CORSOrigins()))

	gateway, err := newGateway()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	app, err := kernel.New(database.DB, kernel.Options{
		Gateway:       gateway,
		Disk:          storage.Default(),
		Production:    config.IsProduction(),
		AdminEmail:    config.AdminEmail(),
		AdminPassword: config.AdminPassword(),
		Poll: services.PollOptions{
			Attempts: config.PaymentPollAttempts(),
			Interval: config.PaymentPollInterval(),
		},
		RateLimit: config.RateLimitPerMinute(),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	jobs.Register(app.Orders, config.AdminNotifyEmail())
	events.Register(app.Hub)
	registerSchedule(app)

	return app, cleanup, nil
}

// newGateway returns the Stripe adapter, or nil when STRIPE_API_KEY is unset.
func newGateway() (payment.Gateway, error) {
	if config.StripeAPIKey() == "" {
		logger.Warn("STRIPE_API_KEY not set, checkout is disabled")
		return nil, nil
	}
	cfg := payment.StripeConfigFromEnv()
	if cfg.WebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhooks are accepted unsigned")
	}
	a, err := payment.NewStripeAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("server: stripe: %w", err)
	}
	return a, nil
}

func registerSchedule(app *kernel.App) {
	schedule.Reset()
	schedule.Every(10).Minutes().Name("payments:reconcile").WithoutOverlapping().Run(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
		defer cancel()
		if _, err := app.Checkout.Reconcile(ctx); err != nil {
			logger.Error("payment reconciliation failed", "error", err)
		}
	})
	schedule.Cron("0 3 * * *").Name("payments:expire").Run(func(ctx context.Context) {
		if _, err := app.Checkout.ExpireAbandoned(ctx); err != nil {
			logger.Error("expiring abandoned payments failed", "error", err)
		}
	})
}

// Run serves HTTP (and gRPC when GRPC_PORT is set) with the queue workers,
// the admin feed and the scheduler, until SIGINT or SIGTERM.
func Run() error {
	app, cleanup, err := Boot()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.Hub.Run(ctx)
	workers := queue.StartWorkers(ctx, config.QueueWorkers())
	schedule.Start(ctx)

	var rpc *grpc.Server
	if port := config.GRPCPort(); port != "" {
		if rpc, err = grpc.Start(port); err != nil {
			return err
		}
		logger.Info("gRPC health server listening", "port", port)
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("http server failed", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Error("http shutdown incomplete", "error", serr)
	}
	rpc.Stop()
	workers.Wait()
	event.Wait()
	return err
}
