package transactionservice

import (
	"log/slog"
	"time"

	httpadapter "tandem/contexts/marketplace/transaction-service/adapters/http"
	"tandem/contexts/marketplace/transaction-service/adapters/memory"
	"tandem/contexts/marketplace/transaction-service/application/commands"
	"tandem/contexts/marketplace/transaction-service/application/queries"
	"tandem/contexts/marketplace/transaction-service/domain/entities"
	"tandem/contexts/marketplace/transaction-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	// Terminate is exposed for moderation-driven overrides wired at the
	// composition root.
	Terminate commands.TerminateUseCase
	Store     *memory.Store
}

type Dependencies struct {
	Transactions   ports.TransactionRepository
	Campaigns      ports.CampaignDirectory
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	OfferTTL       time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	register := commands.RegisterUseCase{
		Transactions:   deps.Transactions,
		Campaigns:      deps.Campaigns,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	reviewRegistration := commands.ReviewRegistrationUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	sendOffer := commands.SendOfferUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		OfferTTL:     deps.OfferTTL,
		Logger:       deps.Logger,
	}
	respondOffer := commands.RespondOfferUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	confirmOfferPayment := commands.ConfirmOfferPaymentUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	submitPhase := commands.SubmitPhaseUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	reviewPhase := commands.ReviewPhaseUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	terminate := commands.TerminateUseCase{
		Transactions: deps.Transactions,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	withdrawPayout := commands.WithdrawPayoutUseCase{
		Transactions: deps.Transactions,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Transactions: deps.Transactions,
		Campaigns:    deps.Campaigns,
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Register:            register,
			ReviewRegistration:  reviewRegistration,
			SendOffer:           sendOffer,
			RespondOffer:        respondOffer,
			ConfirmOfferPayment: confirmOfferPayment,
			SubmitPhase:         submitPhase,
			ReviewPhase:         reviewPhase,
			Terminate:           terminate,
			WithdrawPayout:      withdrawPayout,
			Queries:             queryUseCase,
			Logger:              deps.Logger,
		},
		Terminate: terminate,
	}
}

func NewInMemoryModule(seed []entities.Transaction, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Transactions:   store,
		Campaigns:      store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		OfferTTL:       commands.DefaultOfferTTL,
		Logger:         logger,
	})
	module.Store = store
	return module
}
