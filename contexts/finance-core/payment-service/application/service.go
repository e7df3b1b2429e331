package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	domainerrors "tandem/contexts/finance-core/payment-service/domain/errors"
	"tandem/contexts/finance-core/payment-service/ports"
)

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	EventDedup     ports.EventDedupStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	EventDedupTTL  time.Duration
	DefaultFeeRate float64
	Logger         *slog.Logger
}

// RecordCompletion books the creator payout for a completed transaction. The
// platform fee is carved out of the campaign reward; the remainder becomes
// available for withdrawal.
func (s Service) RecordCompletion(
	ctx context.Context,
	idempotencyKey string,
	input ports.RecordCompletionInput,
) (ports.Payout, bool, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return ports.Payout{}, false, domainerrors.ErrIdempotencyKeyMissing
	}
	if !isValidCompletionInput(input) {
		return ports.Payout{}, false, domainerrors.ErrInvalidInput
	}

	now := s.now()
	feeRate := s.resolveFeeRate(input.FeeRate)
	requestHash := hashPayload(map[string]any{
		"transaction_id":  strings.TrimSpace(input.TransactionID),
		"campaign_id":     strings.TrimSpace(input.CampaignID),
		"creator_id":      strings.TrimSpace(input.CreatorID),
		"reward_amount":   round4(input.RewardAmount),
		"fee_rate":        feeRate,
		"source_event_id": strings.TrimSpace(input.SourceEventID),
	})

	record, found, err := s.Idempotency.GetRecord(ctx, strings.TrimSpace(idempotencyKey), now)
	if err != nil {
		return ports.Payout{}, false, err
	}
	if found {
		if record.RequestHash != requestHash {
			return ports.Payout{}, false, domainerrors.ErrIdempotencyConflict
		}
		var replayed ports.Payout
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return ports.Payout{}, false, err
		}
		return replayed, true, nil
	}

	payoutID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.Payout{}, false, err
	}
	createdAt := input.CompletedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	gross := round4(input.RewardAmount)
	fee := round4(gross * feeRate)
	net := round4(gross - fee)
	if net < 0 {
		net = 0
	}

	payout := ports.Payout{
		PayoutID:      strings.TrimSpace(payoutID),
		TransactionID: strings.TrimSpace(input.TransactionID),
		CampaignID:    strings.TrimSpace(input.CampaignID),
		UserID:        strings.TrimSpace(input.CreatorID),
		GrossAmount:   gross,
		FeeRate:       feeRate,
		FeeAmount:     fee,
		NetAmount:     net,
		Status:        ports.PayoutAvailable,
		CreatedAt:     createdAt,
		SourceEventID: strings.TrimSpace(input.SourceEventID),
	}
	if err := s.Repo.CreatePayout(ctx, payout); err != nil {
		return ports.Payout{}, false, err
	}
	if err := s.appendPayoutOutbox(ctx, "payout.created", payout); err != nil {
		return ports.Payout{}, false, err
	}

	payload, err := json.Marshal(payout)
	if err != nil {
		return ports.Payout{}, false, err
	}
	if err := s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(idempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	}); err != nil {
		return ports.Payout{}, false, err
	}

	resolveLogger(s.Logger).Info("payout recorded",
		"event", "payment_payout_recorded",
		"module", "finance-core/payment-service",
		"layer", "application",
		"payout_id", payout.PayoutID,
		"transaction_id", payout.TransactionID,
		"user_id", payout.UserID,
		"net_amount", payout.NetAmount,
	)
	return payout, false, nil
}

// ConsumeTransactionCompletedEvent books a payout off the marketplace's
// completion event, deduplicating on the event id.
func (s Service) ConsumeTransactionCompletedEvent(
	ctx context.Context,
	eventID string,
	event ports.TransactionCompletedEvent,
) (ports.Payout, bool, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" || !isValidCompletedEvent(event) {
		return ports.Payout{}, false, domainerrors.ErrInvalidInput
	}

	payloadHash := hashPayload(map[string]any{
		"transaction_id": event.TransactionID,
		"campaign_id":    event.CampaignID,
		"creator_id":     event.CreatorID,
		"reward_amount":  round4(event.RewardAmount),
		"completed_at":   event.CompletedAt.UTC().Format(time.RFC3339Nano),
	})

	if s.EventDedup != nil {
		if _, err := s.EventDedup.ReserveEvent(ctx, eventID, payloadHash, s.now().Add(s.eventDedupTTL())); err != nil {
			return ports.Payout{}, false, err
		}
	}

	// The idempotency store replays the original payout on redelivery.
	return s.RecordCompletion(ctx, "event:"+eventID, ports.RecordCompletionInput{
		TransactionID: event.TransactionID,
		CampaignID:    event.CampaignID,
		CreatorID:     event.CreatorID,
		RewardAmount:  event.RewardAmount,
		CompletedAt:   event.CompletedAt,
		SourceEventID: eventID,
	})
}

// RecordFunding books the sponsor charge for a funded direct offer: the
// reward amount plus the platform fee on top.
func (s Service) RecordFunding(
	ctx context.Context,
	idempotencyKey string,
	input ports.RecordFundingInput,
) (ports.Funding, bool, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return ports.Funding{}, false, domainerrors.ErrIdempotencyKeyMissing
	}
	if !isValidFundingInput(input) {
		return ports.Funding{}, false, domainerrors.ErrInvalidInput
	}

	now := s.now()
	feeRate := s.resolveFeeRate(input.FeeRate)
	requestHash := hashPayload(map[string]any{
		"transaction_id": strings.TrimSpace(input.TransactionID),
		"campaign_id":    strings.TrimSpace(input.CampaignID),
		"business_id":    strings.TrimSpace(input.BusinessID),
		"reward_amount":  round4(input.RewardAmount),
		"fee_rate":       feeRate,
	})

	record, found, err := s.Idempotency.GetRecord(ctx, strings.TrimSpace(idempotencyKey), now)
	if err != nil {
		return ports.Funding{}, false, err
	}
	if found {
		if record.RequestHash != requestHash {
			return ports.Funding{}, false, domainerrors.ErrIdempotencyConflict
		}
		var replayed ports.Funding
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return ports.Funding{}, false, err
		}
		return replayed, true, nil
	}

	fundingID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.Funding{}, false, err
	}

	reward := round4(input.RewardAmount)
	fee := round4(reward * feeRate)
	funding := ports.Funding{
		FundingID:     strings.TrimSpace(fundingID),
		TransactionID: strings.TrimSpace(input.TransactionID),
		CampaignID:    strings.TrimSpace(input.CampaignID),
		BusinessID:    strings.TrimSpace(input.BusinessID),
		RewardAmount:  reward,
		FeeRate:       feeRate,
		FeeAmount:     fee,
		TotalCharge:   round4(reward + fee),
		CreatedAt:     now,
	}
	if err := s.Repo.CreateFunding(ctx, funding); err != nil {
		return ports.Funding{}, false, err
	}

	payload, err := json.Marshal(funding)
	if err != nil {
		return ports.Funding{}, false, err
	}
	if err := s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(idempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	}); err != nil {
		return ports.Funding{}, false, err
	}

	resolveLogger(s.Logger).Info("offer funding recorded",
		"event", "payment_funding_recorded",
		"module", "finance-core/payment-service",
		"layer", "application",
		"funding_id", funding.FundingID,
		"transaction_id", funding.TransactionID,
		"business_id", funding.BusinessID,
		"total_charge", funding.TotalCharge,
	)
	return funding, false, nil
}

func (s Service) GetFunding(ctx context.Context, transactionID string) (ports.Funding, error) {
	if strings.TrimSpace(transactionID) == "" {
		return ports.Funding{}, domainerrors.ErrInvalidInput
	}
	return s.Repo.GetFundingByTransaction(ctx, strings.TrimSpace(transactionID))
}

// MarkWithdrawn settles the payout of one user on one transaction.
func (s Service) MarkWithdrawn(ctx context.Context, transactionID string, userID string) (ports.Payout, error) {
	if strings.TrimSpace(transactionID) == "" || strings.TrimSpace(userID) == "" {
		return ports.Payout{}, domainerrors.ErrInvalidInput
	}
	payout, err := s.Repo.GetPayoutByTransactionAndUser(ctx, strings.TrimSpace(transactionID), strings.TrimSpace(userID))
	if err != nil {
		return ports.Payout{}, err
	}
	if payout.Status == ports.PayoutWithdrawn {
		return ports.Payout{}, domainerrors.ErrPayoutAlreadyWithdrawn
	}

	now := s.now()
	payout.Status = ports.PayoutWithdrawn
	payout.WithdrawnAt = &now
	if err := s.Repo.UpdatePayout(ctx, payout); err != nil {
		return ports.Payout{}, err
	}
	if err := s.appendPayoutOutbox(ctx, "payout.withdrawn", payout); err != nil {
		return ports.Payout{}, err
	}

	resolveLogger(s.Logger).Info("payout withdrawn",
		"event", "payment_payout_withdrawn",
		"module", "finance-core/payment-service",
		"layer", "application",
		"payout_id", payout.PayoutID,
		"transaction_id", payout.TransactionID,
		"user_id", payout.UserID,
	)
	return payout, nil
}

func (s Service) ListPayouts(ctx context.Context, userID string, limit int, offset int) ([]ports.Payout, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListPayoutsByUser(ctx, strings.TrimSpace(userID), limit, offset)
}

func (s Service) MonthlyReport(ctx context.Context, month string) (ports.PayoutReport, error) {
	month = strings.TrimSpace(month)
	if len(month) != len("2006-01") {
		return ports.PayoutReport{}, domainerrors.ErrInvalidInput
	}
	return s.Repo.BuildMonthlyReport(ctx, month)
}

func (s Service) appendPayoutOutbox(ctx context.Context, eventType string, payout ports.Payout) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"payout_id":      payout.PayoutID,
		"transaction_id": payout.TransactionID,
		"campaign_id":    payout.CampaignID,
		"user_id":        payout.UserID,
		"gross_amount":   payout.GrossAmount,
		"fee_rate":       payout.FeeRate,
		"fee_amount":     payout.FeeAmount,
		"net_amount":     payout.NetAmount,
		"status":         string(payout.Status),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "payment-service",
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "transaction_id",
		PartitionKey:     payout.TransactionID,
		Data:             data,
	})
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) eventDedupTTL() time.Duration {
	if s.EventDedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.EventDedupTTL
}

func (s Service) resolveFeeRate(requested float64) float64 {
	rate := requested
	if rate <= 0 {
		rate = s.DefaultFeeRate
	}
	if rate <= 0 {
		rate = 0.15
	}
	if rate > 1 {
		rate = 1
	}
	return round4(rate)
}

func isValidCompletionInput(input ports.RecordCompletionInput) bool {
	return strings.TrimSpace(input.TransactionID) != "" &&
		strings.TrimSpace(input.CampaignID) != "" &&
		strings.TrimSpace(input.CreatorID) != "" &&
		input.RewardAmount > 0
}

func isValidFundingInput(input ports.RecordFundingInput) bool {
	return strings.TrimSpace(input.TransactionID) != "" &&
		strings.TrimSpace(input.CampaignID) != "" &&
		strings.TrimSpace(input.BusinessID) != "" &&
		input.RewardAmount > 0
}

func isValidCompletedEvent(input ports.TransactionCompletedEvent) bool {
	return strings.TrimSpace(input.TransactionID) != "" &&
		strings.TrimSpace(input.CampaignID) != "" &&
		strings.TrimSpace(input.CreatorID) != "" &&
		input.RewardAmount > 0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
