package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	transactionservice "tandem/contexts/marketplace/transaction-service"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	httptransport "tandem/contexts/marketplace/transaction-service/transport/http"
	"tandem/internal/shared/lifecycle"
)

var txDay0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func txDay(n int) time.Time {
	return txDay0.Add(time.Duration(n) * 24 * time.Hour)
}

func fullTimelineWindows() []lifecycle.Window {
	return []lifecycle.Window{
		{Step: lifecycle.StepRegistration, Start: txDay(0), End: txDay(2)},
		{Step: lifecycle.StepBrainstorming, Start: txDay(2), End: txDay(4)},
		{Step: lifecycle.StepContentCreation, Start: txDay(4), End: txDay(6)},
		{Step: lifecycle.StepResultSubmission, Start: txDay(6), End: txDay(8)},
	}
}

func noBrainstormWindows() []lifecycle.Window {
	return []lifecycle.Window{
		{Step: lifecycle.StepRegistration, Start: txDay(0), End: txDay(2)},
		{Step: lifecycle.StepContentCreation, Start: txDay(2), End: txDay(5)},
		{Step: lifecycle.StepResultSubmission, Start: txDay(5), End: txDay(7)},
	}
}

func newTransactionModule(t *testing.T, snapshot ports.CampaignSnapshot) transactionservice.Module {
	t.Helper()
	module := transactionservice.NewInMemoryModule(nil, nil)
	if err := module.Store.PutCampaignSnapshot(context.Background(), snapshot); err != nil {
		t.Fatalf("seed campaign snapshot failed: %v", err)
	}
	module.Store.SetNow(txDay(1))
	return module
}

func publishedSnapshot(windows []lifecycle.Window, slots int) ports.CampaignSnapshot {
	hasBrainstorm := false
	for _, window := range windows {
		if window.Step == lifecycle.StepBrainstorming {
			hasBrainstorm = true
		}
	}
	return ports.CampaignSnapshot{
		CampaignID:       "camp-1",
		BusinessID:       "biz-1",
		Status:           "published",
		Slots:            slots,
		RewardAmount:     500,
		HasBrainstorming: hasBrainstorm,
		Timeline:         windows,
	}
}

func TestTransactionRegistrationIdempotency(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 3))
	ctx := context.Background()

	first, err := module.Handler.RegisterHandler(ctx, "creator-1", "idem-reg-1", httptransport.RegisterRequest{
		CampaignID: "camp-1",
		Pitch:      "travel vlog series",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if first.Transaction.Status != string(lifecycle.StatusRegistrationPending) {
		t.Fatalf("expected registration_pending, got %s", first.Transaction.Status)
	}

	second, err := module.Handler.RegisterHandler(ctx, "creator-1", "idem-reg-1", httptransport.RegisterRequest{
		CampaignID: "camp-1",
		Pitch:      "travel vlog series",
	})
	if err != nil {
		t.Fatalf("replayed register failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay flag on second register")
	}
	if first.Transaction.TransactionID != second.Transaction.TransactionID {
		t.Fatalf("expected same transaction id on replay, got %s and %s",
			first.Transaction.TransactionID, second.Transaction.TransactionID)
	}

	_, err = module.Handler.RegisterHandler(ctx, "creator-1", "idem-reg-1", httptransport.RegisterRequest{
		CampaignID: "camp-1",
		Pitch:      "different pitch",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestTransactionRegistrationSlotCapacity(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 1))
	ctx := context.Background()

	if _, err := module.Handler.RegisterHandler(ctx, "creator-1", "idem-reg-1", httptransport.RegisterRequest{
		CampaignID: "camp-1",
	}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := module.Handler.RegisterHandler(ctx, "creator-2", "idem-reg-2", httptransport.RegisterRequest{
		CampaignID: "camp-1",
	})
	if !errors.Is(err, domainerrors.ErrCampaignFull) {
		t.Fatalf("expected campaign full, got %v", err)
	}

	_, err = module.Handler.RegisterHandler(ctx, "creator-1", "idem-reg-3", httptransport.RegisterRequest{
		CampaignID: "camp-1",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateEngagement) {
		t.Fatalf("expected duplicate engagement, got %v", err)
	}
}

func TestTransactionRegistrationClosedWindow(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 3))
	module.Store.SetNow(txDay(3))
	ctx := context.Background()

	_, err := module.Handler.RegisterHandler(ctx, "creator-1", "idem-reg-1", httptransport.RegisterRequest{
		CampaignID: "camp-1",
	})
	if !errors.Is(err, domainerrors.ErrCampaignNotOpen) {
		t.Fatalf("expected campaign not open after registration window, got %v", err)
	}
}

func registerAndApprove(t *testing.T, module transactionservice.Module, creatorID string) string {
	t.Helper()
	ctx := context.Background()
	result, err := module.Handler.RegisterHandler(ctx, creatorID, "idem-"+creatorID, httptransport.RegisterRequest{
		CampaignID: "camp-1",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := module.Handler.ReviewRegistrationHandler(ctx, "biz-1", result.Transaction.TransactionID, httptransport.ReviewRegistrationRequest{
		Decision: "approve",
	}); err != nil {
		t.Fatalf("approve registration failed: %v", err)
	}
	return result.Transaction.TransactionID
}

func TestTransactionFullLifecycleWithoutBrainstorm(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(noBrainstormWindows(), 3))
	ctx := context.Background()
	txID := registerAndApprove(t, module, "creator-1")

	module.Store.SetNow(txDay(3))
	if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
		Step:    string(lifecycle.StepContentCreation),
		Content: "https://example.com/video",
	}); err != nil {
		t.Fatalf("submit content failed: %v", err)
	}
	if err := module.Handler.ReviewPhaseHandler(ctx, "biz-1", txID, httptransport.ReviewPhaseRequest{
		Step:     string(lifecycle.StepContentCreation),
		Decision: "approve",
	}); err != nil {
		t.Fatalf("approve content failed: %v", err)
	}

	module.Store.SetNow(txDay(6))
	if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
		Step:    string(lifecycle.StepResultSubmission),
		Content: "https://example.com/published-post",
	}); err != nil {
		t.Fatalf("submit result failed: %v", err)
	}
	if err := module.Handler.ReviewPhaseHandler(ctx, "biz-1", txID, httptransport.ReviewPhaseRequest{
		Step:     string(lifecycle.StepResultSubmission),
		Decision: "approve",
	}); err != nil {
		t.Fatalf("approve result failed: %v", err)
	}

	result, err := module.Handler.GetTransactionHandler(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if result.Transaction.Status != string(lifecycle.StatusCompleted) {
		t.Fatalf("expected completed, got %s", result.Transaction.Status)
	}
	if !result.Transaction.CreatorPayout.Approved || !result.Transaction.BusinessPayout.Approved {
		t.Fatalf("expected both payouts approved after completion")
	}

	if err := module.Handler.WithdrawPayoutHandler(ctx, "creator-1", txID); err != nil {
		t.Fatalf("creator withdraw failed: %v", err)
	}
	if err := module.Handler.WithdrawPayoutHandler(ctx, "creator-1", txID); !errors.Is(err, domainerrors.ErrPayoutNotWithdrawable) {
		t.Fatalf("expected second withdraw to fail, got %v", err)
	}
	if err := module.Handler.WithdrawPayoutHandler(ctx, "biz-1", txID); err != nil {
		t.Fatalf("business withdraw failed: %v", err)
	}
}

func TestTransactionBrainstormPhase(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 3))
	ctx := context.Background()
	txID := registerAndApprove(t, module, "creator-1")

	// Content cannot be submitted while brainstorming is required first.
	module.Store.SetNow(txDay(3))
	if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
		Step:    string(lifecycle.StepContentCreation),
		Content: "early content",
	}); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected content before brainstorm to fail, got %v", err)
	}

	if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
		Step:    string(lifecycle.StepBrainstorming),
		Content: "three concept directions",
	}); err != nil {
		t.Fatalf("submit brainstorm failed: %v", err)
	}

	// Brainstorm rejection returns to registration_approved for another try.
	if err := module.Handler.ReviewPhaseHandler(ctx, "biz-1", txID, httptransport.ReviewPhaseRequest{
		Step:     string(lifecycle.StepBrainstorming),
		Decision: "reject",
		Note:     "off brief",
	}); err != nil {
		t.Fatalf("reject brainstorm failed: %v", err)
	}
	result, err := module.Handler.GetTransactionHandler(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if result.Transaction.Status != string(lifecycle.StatusRegistrationApproved) {
		t.Fatalf("expected registration_approved after brainstorm rejection, got %s", result.Transaction.Status)
	}

	if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
		Step:    string(lifecycle.StepBrainstorming),
		Content: "revised concept",
	}); err != nil {
		t.Fatalf("resubmit brainstorm failed: %v", err)
	}
	if err := module.Handler.ReviewPhaseHandler(ctx, "biz-1", txID, httptransport.ReviewPhaseRequest{
		Step:     string(lifecycle.StepBrainstorming),
		Decision: "approve",
	}); err != nil {
		t.Fatalf("approve brainstorm failed: %v", err)
	}

	module.Store.SetNow(txDay(5))
	if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
		Step:    string(lifecycle.StepContentCreation),
		Content: "https://example.com/video",
	}); err != nil {
		t.Fatalf("submit content after brainstorm failed: %v", err)
	}
}

func TestTransactionRevisionBudget(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(noBrainstormWindows(), 3))
	ctx := context.Background()
	txID := registerAndApprove(t, module, "creator-1")
	module.Store.SetNow(txDay(3))

	submitContent := func() {
		t.Helper()
		if _, err := module.Handler.SubmitPhaseHandler(ctx, "creator-1", txID, httptransport.SubmitPhaseRequest{
			Step:    string(lifecycle.StepContentCreation),
			Content: "https://example.com/cut",
		}); err != nil {
			t.Fatalf("submit content failed: %v", err)
		}
	}
	rejectMismatch := func() error {
		return module.Handler.ReviewPhaseHandler(ctx, "biz-1", txID, httptransport.ReviewPhaseRequest{
			Step:          string(lifecycle.StepContentCreation),
			Decision:      "reject",
			RejectionType: string(lifecycle.RejectionMismatch),
		})
	}

	for i := 0; i < 3; i++ {
		submitContent()
		if err := rejectMismatch(); err != nil {
			t.Fatalf("mismatch rejection %d failed: %v", i+1, err)
		}
	}

	submitContent()
	if err := rejectMismatch(); !errors.Is(err, lifecycle.ErrRevisionExhausted) {
		t.Fatalf("expected revision budget exhausted, got %v", err)
	}

	// Unreachable-link rejections stay available after the budget is spent.
	if err := module.Handler.ReviewPhaseHandler(ctx, "biz-1", txID, httptransport.ReviewPhaseRequest{
		Step:          string(lifecycle.StepContentCreation),
		Decision:      "reject",
		RejectionType: string(lifecycle.RejectionUnreachableLink),
	}); err != nil {
		t.Fatalf("unreachable link rejection failed: %v", err)
	}

	result, err := module.Handler.GetTransactionHandler(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if result.Transaction.RemainingRevisions != 0 {
		t.Fatalf("expected zero remaining revisions, got %d", result.Transaction.RemainingRevisions)
	}
	if result.Transaction.Status != string(lifecycle.StatusContentSubmitted) {
		t.Fatalf("expected content_submitted after rejection cycle, got %s", result.Transaction.Status)
	}
}

func TestTransactionOfferFlow(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 3))
	ctx := context.Background()

	offer, err := module.Handler.SendOfferHandler(ctx, "biz-1", httptransport.SendOfferRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-9",
		Message:    "we would like to work with you",
	})
	if err != nil {
		t.Fatalf("send offer failed: %v", err)
	}
	if offer.Transaction.Status != string(lifecycle.StatusOffering) {
		t.Fatalf("expected offering, got %s", offer.Transaction.Status)
	}
	txID := offer.Transaction.TransactionID

	if err := module.Handler.RespondOfferHandler(ctx, "creator-9", txID, httptransport.RespondOfferRequest{
		Decision: "accept",
	}); err != nil {
		t.Fatalf("accept offer failed: %v", err)
	}
	result, err := module.Handler.GetTransactionHandler(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if result.Transaction.Status != string(lifecycle.StatusOfferWaitingForPayment) {
		t.Fatalf("expected offer_waiting_for_payment, got %s", result.Transaction.Status)
	}

	if err := module.Handler.ConfirmOfferPaymentHandler(ctx, "biz-1", txID, httptransport.ConfirmOfferPaymentRequest{
		PaymentRef: "escrow-42",
	}); err != nil {
		t.Fatalf("confirm offer payment failed: %v", err)
	}
	result, err = module.Handler.GetTransactionHandler(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if result.Transaction.Status != string(lifecycle.StatusRegistrationApproved) {
		t.Fatalf("expected registration_approved after payment, got %s", result.Transaction.Status)
	}
}

func TestTransactionOfferDeclineFreesSlot(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 1))
	ctx := context.Background()

	offer, err := module.Handler.SendOfferHandler(ctx, "biz-1", httptransport.SendOfferRequest{
		CampaignID: "camp-1",
		CreatorID:  "creator-9",
	})
	if err != nil {
		t.Fatalf("send offer failed: %v", err)
	}
	if err := module.Handler.RespondOfferHandler(ctx, "creator-9", offer.Transaction.TransactionID, httptransport.RespondOfferRequest{
		Decision: "decline",
	}); err != nil {
		t.Fatalf("decline offer failed: %v", err)
	}

	if _, err := module.Handler.RegisterHandler(ctx, "creator-1", "idem-after-decline", httptransport.RegisterRequest{
		CampaignID: "camp-1",
	}); err != nil {
		t.Fatalf("register after declined offer failed: %v", err)
	}
}

func TestTransactionTerminateOverridesAnyLiveStatus(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(fullTimelineWindows(), 3))
	ctx := context.Background()
	txID := registerAndApprove(t, module, "creator-1")

	if err := module.Handler.TerminateHandler(ctx, "biz-1", txID, httptransport.TerminateRequest{
		Reason: "campaign cancelled",
	}); err != nil {
		t.Fatalf("terminate failed: %v", err)
	}

	result, err := module.Handler.GetTransactionHandler(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if result.Transaction.Status != string(lifecycle.StatusTerminated) {
		t.Fatalf("expected terminated, got %s", result.Transaction.Status)
	}

	if err := module.Handler.TerminateHandler(ctx, "biz-1", txID, httptransport.TerminateRequest{
		Reason: "again",
	}); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected terminating a terminated transaction to fail, got %v", err)
	}
}

func TestTransactionProgressDivergesByRole(t *testing.T) {
	module := newTransactionModule(t, publishedSnapshot(noBrainstormWindows(), 3))
	ctx := context.Background()
	txID := registerAndApprove(t, module, "creator-1")

	// Calendar sits in content creation while the creator has not submitted.
	module.Store.SetNow(txDay(3))
	creatorView, err := module.Handler.TransactionProgressHandler(ctx, txID, string(lifecycle.RoleContentCreator))
	if err != nil {
		t.Fatalf("creator progress failed: %v", err)
	}
	ownerView, err := module.Handler.TransactionProgressHandler(ctx, txID, string(lifecycle.RoleBusinessPeople))
	if err != nil {
		t.Fatalf("owner progress failed: %v", err)
	}

	wantCreator := []string{string(lifecycle.StepperSuccess), string(lifecycle.StepperInProgress)}
	if len(creatorView.Stepper) != len(wantCreator) {
		t.Fatalf("creator stepper length = %d, want %d", len(creatorView.Stepper), len(wantCreator))
	}
	for i := range wantCreator {
		if creatorView.Stepper[i] != wantCreator[i] {
			t.Fatalf("creator stepper[%d] = %s, want %s", i, creatorView.Stepper[i], wantCreator[i])
		}
	}

	wantOwner := []string{string(lifecycle.StepperSuccess), string(lifecycle.StepperSuccess)}
	for i := range wantOwner {
		if ownerView.Stepper[i] != wantOwner[i] {
			t.Fatalf("owner stepper[%d] = %s, want %s", i, ownerView.Stepper[i], wantOwner[i])
		}
	}

	if !creatorView.WaitingCreatorInput {
		t.Fatalf("expected creator to owe a submission")
	}
	if ownerView.WaitingBusinessInput {
		t.Fatalf("business owes nothing while waiting on the creator")
	}
}
