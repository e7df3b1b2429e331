package moderationservice

import (
	"log/slog"
	"time"

	httpadapter "tandem/contexts/moderation-safety/moderation-service/adapters/http"
	"tandem/contexts/moderation-safety/moderation-service/adapters/memory"
	"tandem/contexts/moderation-safety/moderation-service/application"
	"tandem/contexts/moderation-safety/moderation-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository        ports.Repository
	Idempotency       ports.IdempotencyStore
	TransactionClient ports.TransactionTerminationClient
	Clock             ports.Clock
	IDGenerator       ports.IDGenerator
	IdempotencyTTL    time.Duration
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:              deps.Repository,
		Idempotency:       deps.Idempotency,
		TransactionClient: deps.TransactionClient,
		Clock:             deps.Clock,
		IDGen:             deps.IDGenerator,
		IdempotencyTTL:    deps.IdempotencyTTL,
		Logger:            deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(transactionClient ports.TransactionTerminationClient, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:        store,
		Idempotency:       store,
		TransactionClient: transactionClient,
		Clock:             store,
		IDGenerator:       store,
		IdempotencyTTL:    7 * 24 * time.Hour,
		Logger:            logger,
	})
	module.Store = store
	return module
}
