package application

import (
	"context"
	"errors"
	"testing"

	"tandem/contexts/moderation-safety/moderation-service/adapters/memory"
	domainerrors "tandem/contexts/moderation-safety/moderation-service/domain/errors"
	"tandem/contexts/moderation-safety/moderation-service/ports"
)

type fakeTerminationClient struct {
	calls []string
	err   error
}

func (c *fakeTerminationClient) TerminateTransaction(_ context.Context, transactionID string, _ string, _ string) error {
	c.calls = append(c.calls, transactionID)
	return c.err
}

func newService(client ports.TransactionTerminationClient) (Service, *memory.Store) {
	store := memory.NewStore()
	return Service{
		Repo:              store,
		Idempotency:       store,
		TransactionClient: client,
		Clock:             store,
		IDGen:             store,
	}, store
}

func TestSubmitReportIdempotent(t *testing.T) {
	svc, _ := newService(nil)
	input := ports.SubmitReportInput{
		TransactionID: "tx-1",
		SubjectUserID: "creator-1",
		Reason:        "spam",
	}
	first, err := svc.SubmitReport(context.Background(), "rep-key-1", "biz-1", input)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := svc.SubmitReport(context.Background(), "rep-key-1", "biz-1", input)
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if first.ReportID != second.ReportID {
		t.Fatalf("expected idempotent replay with same report id")
	}
	if first.Status != ports.ReportStatusOpen {
		t.Fatalf("expected open report, got %q", first.Status)
	}
}

func TestSubmitReportConflictOnDifferentPayload(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.SubmitReport(context.Background(), "rep-key-2", "biz-1", ports.SubmitReportInput{
		TransactionID: "tx-1",
		Reason:        "spam",
	})
	if err != nil {
		t.Fatalf("seed submit failed: %v", err)
	}
	_, err = svc.SubmitReport(context.Background(), "rep-key-2", "biz-1", ports.SubmitReportInput{
		TransactionID: "tx-1",
		Reason:        "fraud",
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestSubmitReportRequiresTarget(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.SubmitReport(context.Background(), "rep-key-3", "biz-1", ports.SubmitReportInput{
		Reason: "spam",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestDismissClosesReport(t *testing.T) {
	svc, _ := newService(nil)
	report, err := svc.SubmitReport(context.Background(), "rep-key-4", "biz-1", ports.SubmitReportInput{
		TransactionID: "tx-1",
		Reason:        "spam",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	resolved, err := svc.Dismiss(context.Background(), "res-key-1", "mod-1", ports.ResolveReportInput{
		ReportID:   report.ReportID,
		Resolution: "no violation found",
	})
	if err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}
	if resolved.Status != ports.ReportStatusDismissed {
		t.Fatalf("expected dismissed report, got %q", resolved.Status)
	}
	if resolved.TransactionTerminated {
		t.Fatalf("dismiss must not terminate the transaction")
	}
	if resolved.ResolvedBy != "mod-1" || resolved.ResolvedAt == nil {
		t.Fatalf("expected resolution metadata, got %+v", resolved)
	}
}

func TestTerminateCallsTransactionClient(t *testing.T) {
	client := &fakeTerminationClient{}
	svc, _ := newService(client)
	report, err := svc.SubmitReport(context.Background(), "rep-key-5", "creator-1", ports.SubmitReportInput{
		TransactionID: "tx-9",
		Reason:        "harassment",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	resolved, err := svc.Terminate(context.Background(), "res-key-2", "mod-1", ports.ResolveReportInput{
		ReportID:   report.ReportID,
		Resolution: "terms violation confirmed",
	})
	if err != nil {
		t.Fatalf("terminate failed: %v", err)
	}
	if resolved.Status != ports.ReportStatusResolved {
		t.Fatalf("expected resolved report, got %q", resolved.Status)
	}
	if !resolved.TransactionTerminated {
		t.Fatalf("expected transaction termination flag")
	}
	if len(client.calls) != 1 || client.calls[0] != "tx-9" {
		t.Fatalf("expected one termination call for tx-9, got %v", client.calls)
	}

	// Replay must not terminate twice.
	if _, err := svc.Terminate(context.Background(), "res-key-2", "mod-1", ports.ResolveReportInput{
		ReportID:   report.ReportID,
		Resolution: "terms violation confirmed",
	}); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected replay to skip the client, got %d calls", len(client.calls))
	}
}

func TestTerminateWithoutClientFails(t *testing.T) {
	svc, _ := newService(nil)
	report, err := svc.SubmitReport(context.Background(), "rep-key-6", "biz-1", ports.SubmitReportInput{
		TransactionID: "tx-1",
		Reason:        "spam",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	_, err = svc.Terminate(context.Background(), "res-key-3", "mod-1", ports.ResolveReportInput{
		ReportID:   report.ReportID,
		Resolution: "spam confirmed",
	})
	if !errors.Is(err, domainerrors.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestResolveAlreadyResolvedReport(t *testing.T) {
	svc, _ := newService(nil)
	report, err := svc.SubmitReport(context.Background(), "rep-key-7", "biz-1", ports.SubmitReportInput{
		TransactionID: "tx-1",
		Reason:        "spam",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Dismiss(context.Background(), "res-key-4", "mod-1", ports.ResolveReportInput{
		ReportID: report.ReportID,
	}); err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}
	_, err = svc.Dismiss(context.Background(), "res-key-5", "mod-2", ports.ResolveReportInput{
		ReportID: report.ReportID,
	})
	if !errors.Is(err, domainerrors.ErrReportAlreadyResolved) {
		t.Fatalf("expected already resolved, got %v", err)
	}
}

func TestListQueueFiltersByStatus(t *testing.T) {
	svc, _ := newService(nil)
	for i, key := range []string{"q-1", "q-2", "q-3"} {
		if _, err := svc.SubmitReport(context.Background(), key, "biz-1", ports.SubmitReportInput{
			TransactionID: "tx-" + key,
			Reason:        "spam",
		}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	open, err := svc.ListQueue(context.Background(), ports.QueueFilter{Status: ports.ReportStatusOpen})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("expected 3 open reports, got %d", len(open))
	}
	if _, err := svc.ListQueue(context.Background(), ports.QueueFilter{Status: "bogus"}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for unknown status, got %v", err)
	}
}
