package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	reviewservice "tandem/contexts/community-experience/review-service"
	reviewworkers "tandem/contexts/community-experience/review-service/application/workers"
	paymentservice "tandem/contexts/finance-core/payment-service"
	paymentworkers "tandem/contexts/finance-core/payment-service/application/workers"
	campaignservice "tandem/contexts/marketplace/campaign-service"
	campaignpostgres "tandem/contexts/marketplace/campaign-service/adapters/postgres"
	campaignworkers "tandem/contexts/marketplace/campaign-service/application/workers"
	transactionservice "tandem/contexts/marketplace/transaction-service"
	transactionpostgres "tandem/contexts/marketplace/transaction-service/adapters/postgres"
	"tandem/contexts/marketplace/transaction-service/application/commands"
	transactionworkers "tandem/contexts/marketplace/transaction-service/application/workers"
	moderationservice "tandem/contexts/moderation-safety/moderation-service"
	"tandem/internal/platform/config"
	"tandem/internal/platform/db"
	"tandem/internal/platform/httpserver"
	"tandem/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres              *db.Postgres
	campaignRelay         campaignworkers.OutboxRelay
	transactionRelay      transactionworkers.OutboxRelay
	paymentRelay          paymentworkers.OutboxRelay
	deadlineCompletion    campaignworkers.DeadlineCompletionJob
	offerExpirer          transactionworkers.OfferExpirer
	campaignProjection    transactionworkers.CampaignProjectionConsumer
	transactionProjection reviewworkers.TransactionProjectionConsumer
	payoutConsumer        paymentworkers.PayoutConsumer
	payoutConsumerEnabled bool
	outboxRelayEnabled    bool
	pollInterval          time.Duration
	logger                *slog.Logger
}

// terminationBridge lets the moderation module terminate marketplace
// transactions without importing the transaction module directly.
type terminationBridge struct {
	terminate commands.TerminateUseCase
}

func (b terminationBridge) TerminateTransaction(ctx context.Context, transactionID string, moderatorID string, reason string) error {
	return b.terminate.Execute(ctx, commands.TerminateCommand{
		TransactionID: transactionID,
		ActorID:       moderatorID,
		Override:      true,
		Reason:        reason,
	})
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var pg *db.Postgres
	var campaigns campaignservice.Module
	var transactions transactionservice.Module

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		campaignRepo := campaignpostgres.NewRepository(pg.DB, logger)
		campaigns = campaignservice.NewModule(campaignservice.Dependencies{
			Campaigns:      campaignRepo,
			Idempotency:    campaignRepo,
			Outbox:         campaignRepo,
			Clock:          campaignpostgres.SystemClock{},
			IDGenerator:    campaignpostgres.UUIDGenerator{},
			IdempotencyTTL: 7 * 24 * time.Hour,
			Logger:         logger,
		})

		transactionRepo := transactionpostgres.NewRepository(pg.DB, logger)
		transactions = transactionservice.NewModule(transactionservice.Dependencies{
			Transactions:   transactionRepo,
			Campaigns:      transactionRepo,
			Idempotency:    transactionRepo,
			Outbox:         transactionRepo,
			Clock:          transactionpostgres.SystemClock{},
			IDGenerator:    transactionpostgres.UUIDGenerator{},
			IdempotencyTTL: 7 * 24 * time.Hour,
			OfferTTL:       commands.DefaultOfferTTL,
			Logger:         logger,
		})
	} else {
		logger.Warn("postgres dsn missing, using in-memory stores",
			"event", "bootstrap_memory_fallback",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		campaigns = campaignservice.NewInMemoryModule(nil, logger)
		transactions = transactionservice.NewInMemoryModule(nil, logger)
	}

	payments := paymentservice.NewInMemoryModule(logger)
	reviews := reviewservice.NewInMemoryModule(logger)
	moderation := moderationservice.NewInMemoryModule(terminationBridge{
		terminate: transactions.Terminate,
	}, logger)

	server := httpserver.New(campaigns, transactions, payments, reviews, moderation, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	bus, err := messaging.NewBus(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	app := &WorkerApp{
		payoutConsumerEnabled: cfg.EnablePayoutConsumer,
		outboxRelayEnabled:    cfg.EnableOutboxRelay,
		pollInterval:          2 * time.Second,
		logger:                logger,
	}

	payments := paymentservice.NewInMemoryModule(logger)
	reviews := reviewservice.NewInMemoryModule(logger)

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		app.postgres = pg

		campaignRepo := campaignpostgres.NewRepository(pg.DB, logger)
		transactionRepo := transactionpostgres.NewRepository(pg.DB, logger)

		app.campaignRelay = campaignworkers.OutboxRelay{
			Outbox:    campaignRepo,
			Publisher: bus,
			Clock:     campaignpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		app.transactionRelay = transactionworkers.OutboxRelay{
			Outbox:    transactionRepo,
			Publisher: bus,
			Clock:     transactionpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		}
		app.deadlineCompletion = campaignworkers.DeadlineCompletionJob{
			Campaigns: campaignRepo,
			Outbox:    campaignRepo,
			Clock:     campaignpostgres.SystemClock{},
			IDGen:     campaignpostgres.UUIDGenerator{},
			BatchSize: 100,
			Disabled:  !cfg.EnableDeadlineCompletion,
			Logger:    logger,
		}
		app.offerExpirer = transactionworkers.OfferExpirer{
			Transactions: transactionRepo,
			Outbox:       transactionRepo,
			Clock:        transactionpostgres.SystemClock{},
			IDGen:        transactionpostgres.UUIDGenerator{},
			BatchSize:    100,
			Disabled:     !cfg.EnableOfferExpiry,
			Logger:       logger,
		}
		app.campaignProjection = transactionworkers.CampaignProjectionConsumer{
			Subscriber:    bus,
			Campaigns:     transactionRepo,
			ConsumerGroup: "transaction-campaign-projection-cg",
			Logger:        logger,
		}
	} else {
		logger.Warn("postgres dsn missing, using in-memory stores",
			"event", "bootstrap_memory_fallback",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		campaigns := campaignservice.NewInMemoryModule(nil, logger)
		transactions := transactionservice.NewInMemoryModule(nil, logger)

		app.campaignRelay = campaignworkers.OutboxRelay{
			Outbox:    campaigns.Store,
			Publisher: bus,
			Clock:     campaigns.Store,
			BatchSize: 100,
			Logger:    logger,
		}
		app.transactionRelay = transactionworkers.OutboxRelay{
			Outbox:    transactions.Store,
			Publisher: bus,
			Clock:     transactions.Store,
			BatchSize: 100,
			Logger:    logger,
		}
		app.deadlineCompletion = campaignworkers.DeadlineCompletionJob{
			Campaigns: campaigns.Store,
			Outbox:    campaigns.Store,
			Clock:     campaigns.Store,
			IDGen:     campaigns.Store,
			BatchSize: 100,
			Disabled:  !cfg.EnableDeadlineCompletion,
			Logger:    logger,
		}
		app.offerExpirer = transactionworkers.OfferExpirer{
			Transactions: transactions.Store,
			Outbox:       transactions.Store,
			Clock:        transactions.Store,
			IDGen:        transactions.Store,
			BatchSize:    100,
			Disabled:     !cfg.EnableOfferExpiry,
			Logger:       logger,
		}
		app.campaignProjection = transactionworkers.CampaignProjectionConsumer{
			Subscriber:    bus,
			Campaigns:     transactions.Store,
			ConsumerGroup: "transaction-campaign-projection-cg",
			Logger:        logger,
		}
	}

	app.paymentRelay = paymentworkers.OutboxRelay{
		Outbox:    payments.Store,
		Publisher: bus,
		Clock:     payments.Store,
		BatchSize: 100,
		Logger:    logger,
	}
	app.transactionProjection = reviews.NewTransactionProjectionConsumer(bus, logger)
	app.payoutConsumer = payments.NewPayoutConsumer(bus, logger)

	return app, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.campaignProjection.Start(ctx); err != nil {
		return err
	}
	if err := w.transactionProjection.Start(ctx); err != nil {
		return err
	}
	if w.payoutConsumerEnabled {
		if err := w.payoutConsumer.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.deadlineCompletion.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.offerExpirer.RunOnce(ctx); err != nil {
			return err
		}
		if w.outboxRelayEnabled {
			if err := w.campaignRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.transactionRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.paymentRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
