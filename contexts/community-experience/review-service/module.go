package reviewservice

import (
	"log/slog"

	httpadapter "tandem/contexts/community-experience/review-service/adapters/http"
	"tandem/contexts/community-experience/review-service/adapters/memory"
	"tandem/contexts/community-experience/review-service/application"
	"tandem/contexts/community-experience/review-service/application/workers"
	"tandem/contexts/community-experience/review-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository   ports.Repository
	Transactions ports.TransactionDirectory
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:         deps.Repository,
		Transactions: deps.Transactions,
		Clock:        deps.Clock,
		IDGen:        deps.IDGenerator,
		Logger:       deps.Logger,
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
		Repository:   store,
		Transactions: store,
		Clock:        store,
		IDGenerator:  store,
		Logger:       logger,
	})
	module.Store = store
	return module
}

// NewTransactionProjectionConsumer binds the module's snapshot store to the
// marketplace transaction topics.
func (m Module) NewTransactionProjectionConsumer(subscriber ports.EventSubscriber, logger *slog.Logger) workers.TransactionProjectionConsumer {
	return workers.TransactionProjectionConsumer{
		Subscriber:   subscriber,
		Transactions: m.Service.Transactions,
		Logger:       logger,
	}
}
