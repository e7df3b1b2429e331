package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"tandem/contexts/finance-core/payment-service/adapters/memory"
	domainerrors "tandem/contexts/finance-core/payment-service/domain/errors"
	"tandem/contexts/finance-core/payment-service/ports"
)

func newPaymentService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC))
	return Service{
		Repo:           store,
		Idempotency:    store,
		EventDedup:     store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		DefaultFeeRate: 0.15,
	}, store
}

func TestRecordCompletionFeeMath(t *testing.T) {
	svc, _ := newPaymentService(t)
	payout, replayed, err := svc.RecordCompletion(context.Background(), "pay-key-1", ports.RecordCompletionInput{
		TransactionID: "tx-1",
		CampaignID:    "camp-1",
		CreatorID:     "creator-1",
		RewardAmount:  500,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if replayed {
		t.Fatalf("first call must not replay")
	}
	if payout.GrossAmount != 500 || payout.FeeRate != 0.15 {
		t.Fatalf("unexpected amounts %+v", payout)
	}
	if payout.FeeAmount != 75 || payout.NetAmount != 425 {
		t.Fatalf("expected fee 75 and net 425, got %+v", payout)
	}
	if payout.Status != ports.PayoutAvailable {
		t.Fatalf("expected available payout, got %q", payout.Status)
	}
}

func TestRecordCompletionIdempotentReplay(t *testing.T) {
	svc, _ := newPaymentService(t)
	input := ports.RecordCompletionInput{
		TransactionID: "tx-1",
		CampaignID:    "camp-1",
		CreatorID:     "creator-1",
		RewardAmount:  200,
	}
	first, _, err := svc.RecordCompletion(context.Background(), "pay-key-2", input)
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	second, replayed, err := svc.RecordCompletion(context.Background(), "pay-key-2", input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replayed || second.PayoutID != first.PayoutID {
		t.Fatalf("expected replay of payout %s, got %+v", first.PayoutID, second)
	}

	input.RewardAmount = 300
	if _, _, err := svc.RecordCompletion(context.Background(), "pay-key-2", input); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestConsumeTransactionCompletedEventDedup(t *testing.T) {
	svc, _ := newPaymentService(t)
	event := ports.TransactionCompletedEvent{
		TransactionID: "tx-7",
		CampaignID:    "camp-1",
		CreatorID:     "creator-1",
		RewardAmount:  1000,
		CompletedAt:   time.Date(2025, 4, 9, 18, 0, 0, 0, time.UTC),
	}
	first, replayed, err := svc.ConsumeTransactionCompletedEvent(context.Background(), "evt-1", event)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if replayed {
		t.Fatalf("first delivery must not replay")
	}
	if first.NetAmount != 850 {
		t.Fatalf("expected net 850, got %v", first.NetAmount)
	}

	second, replayed, err := svc.ConsumeTransactionCompletedEvent(context.Background(), "evt-1", event)
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if !replayed || second.PayoutID != first.PayoutID {
		t.Fatalf("expected replay of payout %s, got %+v", first.PayoutID, second)
	}

	// Same event id with a different payload is a poison message.
	event.RewardAmount = 999
	if _, _, err := svc.ConsumeTransactionCompletedEvent(context.Background(), "evt-1", event); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected conflict on payload drift, got %v", err)
	}
}

func TestMarkWithdrawn(t *testing.T) {
	svc, _ := newPaymentService(t)
	if _, _, err := svc.RecordCompletion(context.Background(), "pay-key-3", ports.RecordCompletionInput{
		TransactionID: "tx-3",
		CampaignID:    "camp-1",
		CreatorID:     "creator-1",
		RewardAmount:  100,
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	payout, err := svc.MarkWithdrawn(context.Background(), "tx-3", "creator-1")
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if payout.Status != ports.PayoutWithdrawn || payout.WithdrawnAt == nil {
		t.Fatalf("expected withdrawn payout, got %+v", payout)
	}

	if _, err := svc.MarkWithdrawn(context.Background(), "tx-3", "creator-1"); !errors.Is(err, domainerrors.ErrPayoutAlreadyWithdrawn) {
		t.Fatalf("expected already withdrawn, got %v", err)
	}
	if _, err := svc.MarkWithdrawn(context.Background(), "tx-missing", "creator-1"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMonthlyReportAggregates(t *testing.T) {
	svc, _ := newPaymentService(t)
	for i, tx := range []string{"tx-a", "tx-b"} {
		if _, _, err := svc.RecordCompletion(context.Background(), "rep-key-"+tx, ports.RecordCompletionInput{
			TransactionID: tx,
			CampaignID:    "camp-1",
			CreatorID:     "creator-1",
			RewardAmount:  100,
		}); err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}

	report, err := svc.MonthlyReport(context.Background(), "2025-04")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.Count != 2 {
		t.Fatalf("expected 2 payouts, got %d", report.Count)
	}
	if report.TotalGross != 200 || report.TotalFee != 30 || report.TotalNet != 170 {
		t.Fatalf("unexpected totals %+v", report)
	}

	if _, err := svc.MonthlyReport(context.Background(), "apr-2025"); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid month, got %v", err)
	}
}

func TestRecordFundingChargesFeeOnTop(t *testing.T) {
	svc, _ := newPaymentService(t)
	funding, replayed, err := svc.RecordFunding(context.Background(), "fund-key-1", ports.RecordFundingInput{
		TransactionID: "tx-7",
		CampaignID:    "camp-1",
		BusinessID:    "biz-1",
		RewardAmount:  400,
	})
	if err != nil {
		t.Fatalf("record funding failed: %v", err)
	}
	if replayed {
		t.Fatalf("first call must not replay")
	}
	if funding.FeeAmount != 60 || funding.TotalCharge != 460 {
		t.Fatalf("expected fee 60 and total 460, got %+v", funding)
	}

	again, replayed, err := svc.RecordFunding(context.Background(), "fund-key-1", ports.RecordFundingInput{
		TransactionID: "tx-7",
		CampaignID:    "camp-1",
		BusinessID:    "biz-1",
		RewardAmount:  400,
	})
	if err != nil {
		t.Fatalf("replayed funding failed: %v", err)
	}
	if !replayed || again.FundingID != funding.FundingID {
		t.Fatalf("expected replay of the original funding, got %+v", again)
	}

	got, err := svc.GetFunding(context.Background(), "tx-7")
	if err != nil {
		t.Fatalf("get funding failed: %v", err)
	}
	if got.FundingID != funding.FundingID {
		t.Fatalf("expected stored funding, got %+v", got)
	}

	_, _, err = svc.RecordFunding(context.Background(), "fund-key-1", ports.RecordFundingInput{
		TransactionID: "tx-7",
		CampaignID:    "camp-1",
		BusinessID:    "biz-1",
		RewardAmount:  900,
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}
