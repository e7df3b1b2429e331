package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	campaignservice "tandem/contexts/marketplace/campaign-service"
	"tandem/contexts/marketplace/campaign-service/application/workers"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	httptransport "tandem/contexts/marketplace/campaign-service/transport/http"
	"tandem/internal/shared/lifecycle"
)

var campDay0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func campDay(n int) time.Time {
	return campDay0.Add(time.Duration(n) * 24 * time.Hour)
}

func campaignTimeline() []httptransport.TimelineWindowDTO {
	return []httptransport.TimelineWindowDTO{
		{Step: string(lifecycle.StepRegistration), StartAt: campDay(0).Format(time.RFC3339), EndAt: campDay(2).Format(time.RFC3339)},
		{Step: string(lifecycle.StepBrainstorming), StartAt: campDay(2).Format(time.RFC3339), EndAt: campDay(4).Format(time.RFC3339)},
		{Step: string(lifecycle.StepContentCreation), StartAt: campDay(4).Format(time.RFC3339), EndAt: campDay(6).Format(time.RFC3339)},
		{Step: string(lifecycle.StepResultSubmission), StartAt: campDay(6).Format(time.RFC3339), EndAt: campDay(8).Format(time.RFC3339)},
	}
}

func validCampaignRequest() httptransport.CreateCampaignRequest {
	return httptransport.CreateCampaignRequest{
		Title:        "Spring launch push",
		Brief:        "Short-form video series promoting the spring product line.",
		Requirements: "At least three clips, vertical format.",
		CampaignType: "public",
		Slots:        5,
		RewardAmount: 500,
		Timeline:     campaignTimeline(),
	}
}

func newCampaignModule(t *testing.T) campaignservice.Module {
	t.Helper()
	module := campaignservice.NewInMemoryModule(nil, nil)
	module.Store.SetNow(campDay(1))
	return module
}

func mustCreateCampaign(t *testing.T, module campaignservice.Module, businessID string) string {
	t.Helper()
	resp, err := module.Handler.CreateCampaignHandler(context.Background(), businessID, "idem-camp-"+businessID, validCampaignRequest())
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return resp.Campaign.CampaignID
}

func TestCampaignCreateIdempotency(t *testing.T) {
	module := newCampaignModule(t)
	ctx := context.Background()

	first, err := module.Handler.CreateCampaignHandler(ctx, "biz-1", "idem-camp-1", validCampaignRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.Campaign.Status != "draft" {
		t.Fatalf("expected draft status, got %s", first.Campaign.Status)
	}

	second, err := module.Handler.CreateCampaignHandler(ctx, "biz-1", "idem-camp-1", validCampaignRequest())
	if err != nil {
		t.Fatalf("replayed create failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay flag on second create")
	}
	if first.Campaign.CampaignID != second.Campaign.CampaignID {
		t.Fatalf("expected same campaign id on replay, got %s and %s",
			first.Campaign.CampaignID, second.Campaign.CampaignID)
	}

	changed := validCampaignRequest()
	changed.Slots = 10
	if _, err := module.Handler.CreateCampaignHandler(ctx, "biz-1", "idem-camp-1", changed); !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}

	if _, err := module.Handler.CreateCampaignHandler(ctx, "biz-1", "", validCampaignRequest()); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected idempotency key required, got %v", err)
	}
}

func TestCampaignCreateValidation(t *testing.T) {
	module := newCampaignModule(t)
	ctx := context.Background()

	cases := map[string]func(*httptransport.CreateCampaignRequest){
		"short title":    func(r *httptransport.CreateCampaignRequest) { r.Title = "ab" },
		"zero slots":     func(r *httptransport.CreateCampaignRequest) { r.Slots = 0 },
		"zero reward":    func(r *httptransport.CreateCampaignRequest) { r.RewardAmount = 0 },
		"bad type":       func(r *httptransport.CreateCampaignRequest) { r.CampaignType = "broadcast" },
		"empty timeline": func(r *httptransport.CreateCampaignRequest) { r.Timeline = nil },
		"no registration window": func(r *httptransport.CreateCampaignRequest) {
			r.Timeline = r.Timeline[1:]
		},
	}
	for name, mutate := range cases {
		req := validCampaignRequest()
		mutate(&req)
		_, err := module.Handler.CreateCampaignHandler(ctx, "biz-1", "idem-bad-"+name, req)
		if !errors.Is(err, domainerrors.ErrInvalidCampaignInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}

func TestCampaignPublishAndCloseTransitions(t *testing.T) {
	module := newCampaignModule(t)
	ctx := context.Background()
	campaignID := mustCreateCampaign(t, module, "biz-1")

	if err := module.Handler.PublishCampaignHandler(ctx, "biz-1", campaignID, ""); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	got, err := module.Handler.GetCampaignHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Campaign.Status != "published" {
		t.Fatalf("expected published, got %s", got.Campaign.Status)
	}
	if got.Campaign.PublishedAt == "" {
		t.Fatalf("expected published_at to be set")
	}

	if err := module.Handler.PublishCampaignHandler(ctx, "biz-1", campaignID, ""); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on double publish, got %v", err)
	}

	update := httptransport.UpdateCampaignRequest{
		Title:        "Renamed campaign",
		Brief:        "Short-form video series promoting the spring product line.",
		Slots:        5,
		RewardAmount: 500,
	}
	if err := module.Handler.UpdateCampaignHandler(ctx, "biz-1", campaignID, update); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected published campaign to reject edits, got %v", err)
	}

	if err := module.Handler.CloseCampaignHandler(ctx, "biz-1", campaignID, "filled"); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	got, err = module.Handler.GetCampaignHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("get after close failed: %v", err)
	}
	if got.Campaign.Status != "closed" {
		t.Fatalf("expected closed, got %s", got.Campaign.Status)
	}
	if err := module.Handler.CloseCampaignHandler(ctx, "biz-1", campaignID, ""); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on double close, got %v", err)
	}
}

func TestCampaignOwnershipEnforced(t *testing.T) {
	module := newCampaignModule(t)
	ctx := context.Background()
	campaignID := mustCreateCampaign(t, module, "biz-1")

	if err := module.Handler.PublishCampaignHandler(ctx, "biz-2", campaignID, ""); !errors.Is(err, domainerrors.ErrUnauthorizedActor) {
		t.Fatalf("expected unauthorized publish, got %v", err)
	}
	update := httptransport.UpdateCampaignRequest{
		Title:        "Hijacked",
		Brief:        "Some other brief long enough to validate.",
		Slots:        5,
		RewardAmount: 500,
	}
	if err := module.Handler.UpdateCampaignHandler(ctx, "biz-2", campaignID, update); !errors.Is(err, domainerrors.ErrUnauthorizedActor) {
		t.Fatalf("expected unauthorized update, got %v", err)
	}
}

func TestCampaignProgressStepper(t *testing.T) {
	module := newCampaignModule(t)
	ctx := context.Background()
	campaignID := mustCreateCampaign(t, module, "biz-1")

	module.Store.SetNow(campDay(3))
	progress, err := module.Handler.CampaignProgressHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.ActiveStep != string(lifecycle.StepBrainstorming) {
		t.Fatalf("expected active brainstorming, got %q", progress.ActiveStep)
	}
	if len(progress.Stepper) != 2 {
		t.Fatalf("expected 2 stepper entries, got %d", len(progress.Stepper))
	}
	for i, state := range progress.Stepper {
		if state != string(lifecycle.StepperSuccess) {
			t.Fatalf("owner stepper entry %d: expected success, got %s", i, state)
		}
	}

	module.Store.SetNow(campDay(9))
	progress, err = module.Handler.CampaignProgressHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("progress after end failed: %v", err)
	}
	if progress.ActiveStep != "" {
		t.Fatalf("expected no active step past the timeline, got %q", progress.ActiveStep)
	}
}

func TestCampaignDeadlineCompletionCloses(t *testing.T) {
	module := newCampaignModule(t)
	ctx := context.Background()
	campaignID := mustCreateCampaign(t, module, "biz-1")
	if err := module.Handler.PublishCampaignHandler(ctx, "biz-1", campaignID, ""); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	job := workers.DeadlineCompletionJob{
		Campaigns: module.Store,
		Outbox:    module.Store,
		Clock:     module.Store,
		IDGen:     module.Store,
	}

	// Still inside the timeline: nothing closes.
	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("run before deadline failed: %v", err)
	}
	got, err := module.Handler.GetCampaignHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Campaign.Status != "published" {
		t.Fatalf("expected campaign to stay published, got %s", got.Campaign.Status)
	}

	module.Store.SetNow(campDay(9))
	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("run after deadline failed: %v", err)
	}
	got, err = module.Handler.GetCampaignHandler(ctx, campaignID)
	if err != nil {
		t.Fatalf("get after deadline failed: %v", err)
	}
	if got.Campaign.Status != "closed" {
		t.Fatalf("expected campaign closed past deadline, got %s", got.Campaign.Status)
	}

	disabled := job
	disabled.Disabled = true
	if err := disabled.RunOnce(ctx); err != nil {
		t.Fatalf("disabled job should be a no-op, got %v", err)
	}
}
