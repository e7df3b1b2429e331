package lifecycle

import (
	"errors"
	"testing"
)

func TestParseStatusRejectsUnknownValues(t *testing.T) {
	if _, err := ParseStatus("bogus"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
	if _, err := NewMachine(Status("bogus")); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected unknown status error from machine, got %v", err)
	}
	status, err := ParseStatus("brainstorm_approved")
	if err != nil || status != StatusBrainstormApproved {
		t.Fatalf("expected brainstorm_approved, got %s err=%v", status, err)
	}
}

func TestStatusMapsAreExhaustive(t *testing.T) {
	all := []Status{
		StatusNotRegistered, StatusRegistrationPending, StatusRegistrationApproved,
		StatusRegistrationRejected, StatusOffering, StatusOfferWaitingForPayment,
		StatusBrainstormSubmitted, StatusBrainstormApproved, StatusContentSubmitted,
		StatusCompleted, StatusTerminated,
	}
	for _, status := range all {
		machine, err := NewMachine(status)
		if err != nil {
			t.Fatalf("machine for %s failed: %v", status, err)
		}
		if !IsValidStep(machine.CampaignStep()) {
			t.Fatalf("status %s maps to invalid step %s", status, machine.CampaignStep())
		}
		if _, ok := statusOrdinals[status]; !ok {
			t.Fatalf("status %s missing from ordinal map", status)
		}
		switch machine.StepperVisualState() {
		case StepperSuccess, StepperInProgress, StepperTerminated:
		default:
			t.Fatalf("status %s missing stepper state", status)
		}
	}
}

func TestOrdinalMonotonicOnForwardPaths(t *testing.T) {
	rejectionCycles := map[Status]Status{
		StatusBrainstormSubmitted: StatusRegistrationApproved,
		StatusContentSubmitted:    StatusContentSubmitted,
		StatusOffering:            StatusNotRegistered,
	}

	for _, hasBrainstorm := range []bool{true, false} {
		for from := range statusSteps {
			machine, err := NewMachine(from)
			if err != nil {
				t.Fatalf("machine for %s failed: %v", from, err)
			}
			for _, to := range machine.NextStatuses(hasBrainstorm) {
				if rejectionCycles[from] == to {
					continue
				}
				next, err := machine.Transition(to, hasBrainstorm)
				if err != nil {
					t.Fatalf("transition %s -> %s should be legal: %v", from, to, err)
				}
				if next.Ordinal() < machine.Ordinal() {
					t.Fatalf("ordinal decreased on forward path %s(%d) -> %s(%d)",
						from, machine.Ordinal(), to, next.Ordinal())
				}
			}
		}
	}
}

func TestContentRejectionCycleKeepsStepAndOrdinal(t *testing.T) {
	machine, err := NewMachine(StatusContentSubmitted)
	if err != nil {
		t.Fatalf("machine failed: %v", err)
	}
	after, err := machine.Transition(StatusContentSubmitted, true)
	if err != nil {
		t.Fatalf("resubmission cycle should be legal: %v", err)
	}
	if after.CampaignStep() != machine.CampaignStep() {
		t.Fatalf("rejection cycle changed step: %s -> %s", machine.CampaignStep(), after.CampaignStep())
	}
	if after.Ordinal() != machine.Ordinal() {
		t.Fatalf("rejection cycle changed ordinal: %d -> %d", machine.Ordinal(), after.Ordinal())
	}
}

func TestBrainstormPathDependsOnSchedule(t *testing.T) {
	machine, _ := NewMachine(StatusRegistrationApproved)

	if !machine.CanTransition(StatusBrainstormSubmitted, true) {
		t.Fatalf("expected brainstorm submission when campaign schedules brainstorming")
	}
	if machine.CanTransition(StatusBrainstormSubmitted, false) {
		t.Fatalf("brainstorm submission must be illegal without the step scheduled")
	}
	if !machine.CanTransition(StatusContentSubmitted, false) {
		t.Fatalf("expected direct content submission without brainstorming")
	}
	if machine.CanTransition(StatusContentSubmitted, true) {
		t.Fatalf("content submission must wait for brainstorm approval when scheduled")
	}
}

func TestTerminatedOverrideAndTerminalStates(t *testing.T) {
	for _, status := range []Status{
		StatusNotRegistered, StatusRegistrationPending, StatusRegistrationApproved,
		StatusBrainstormSubmitted, StatusContentSubmitted,
	} {
		machine, _ := NewMachine(status)
		if !machine.CanTransition(StatusTerminated, true) {
			t.Fatalf("terminated override must be reachable from %s", status)
		}
	}

	completed, _ := NewMachine(StatusCompleted)
	if completed.CanTransition(StatusTerminated, true) {
		t.Fatalf("completed is terminal")
	}
	terminated, _ := NewMachine(StatusTerminated)
	if _, err := terminated.Transition(StatusCompleted, true); !errors.Is(err, ErrTransitionNotPermitted) {
		t.Fatalf("expected transition refusal from terminated, got %v", err)
	}
}

func TestRevisionPolicy(t *testing.T) {
	if err := CanRejectContent(RejectionMismatch, 2); err != nil {
		t.Fatalf("mismatch with budget left should pass: %v", err)
	}
	if err := CanRejectContent(RejectionMismatch, 0); !errors.Is(err, ErrRevisionExhausted) {
		t.Fatalf("expected revision exhausted, got %v", err)
	}
	if err := CanRejectContent(RejectionUnreachableLink, 0); err != nil {
		t.Fatalf("unreachable link must stay available: %v", err)
	}
	if err := CanRejectContent(RejectionType("other"), 1); !errors.Is(err, ErrTransitionNotPermitted) {
		t.Fatalf("expected refusal for unknown rejection type, got %v", err)
	}
}

func TestWithdrawableRequiresCompletionAndApprovedPayout(t *testing.T) {
	payouts := Payouts{
		ContentCreator: PayoutState{Approved: true},
	}

	inFlight, _ := NewMachine(StatusContentSubmitted)
	if inFlight.IsWithdrawable(RoleContentCreator, payouts) {
		t.Fatalf("withdrawal must wait for completion")
	}

	completed, _ := NewMachine(StatusCompleted)
	if !completed.IsWithdrawable(RoleContentCreator, payouts) {
		t.Fatalf("approved unwithdrawn payout should be withdrawable")
	}
	if completed.IsWithdrawable(RoleBusinessPeople, payouts) {
		t.Fatalf("business payout was not approved")
	}

	payouts.ContentCreator.Withdrawn = true
	if completed.IsWithdrawable(RoleContentCreator, payouts) {
		t.Fatalf("already withdrawn payout must not be withdrawable again")
	}
}

func TestWaitingPredicates(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())
	now := day(3) // inside content creation

	pending, _ := NewMachine(StatusRegistrationPending)
	if !pending.IsWaitingBusinessAction() {
		t.Fatalf("registration review is a business action")
	}
	if pending.IsWaitingCreatorAction(schedule, now) {
		t.Fatalf("creator owes nothing while registration is pending")
	}

	approved, _ := NewMachine(StatusRegistrationApproved)
	if !approved.IsWaitingCreatorAction(schedule, now) {
		t.Fatalf("creator is behind schedule and should be flagged")
	}
	if approved.IsWaitingCreatorAction(schedule, day(9)) {
		t.Fatalf("no waiting flag without an active window")
	}
}
