package paymentservice

import (
	"log/slog"
	"time"

	httpadapter "tandem/contexts/finance-core/payment-service/adapters/http"
	"tandem/contexts/finance-core/payment-service/adapters/memory"
	"tandem/contexts/finance-core/payment-service/application"
	"tandem/contexts/finance-core/payment-service/application/workers"
	"tandem/contexts/finance-core/payment-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	EventDedup     ports.EventDedupStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	EventDedupTTL  time.Duration
	DefaultFeeRate float64
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:           deps.Repository,
		Idempotency:    deps.Idempotency,
		EventDedup:     deps.EventDedup,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		EventDedupTTL:  deps.EventDedupTTL,
		DefaultFeeRate: deps.DefaultFeeRate,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:     store,
		Idempotency:    store,
		EventDedup:     store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		EventDedupTTL:  7 * 24 * time.Hour,
		DefaultFeeRate: 0.15,
		Logger:         logger,
	})
	module.Store = store
	return module
}

// NewPayoutConsumer binds the module's service to the marketplace
// transaction topics.
func (m Module) NewPayoutConsumer(subscriber ports.EventSubscriber, logger *slog.Logger) workers.PayoutConsumer {
	return workers.PayoutConsumer{
		Subscriber: subscriber,
		Service:    m.Service,
		Logger:     logger,
	}
}
