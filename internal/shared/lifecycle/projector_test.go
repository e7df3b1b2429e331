package lifecycle

import (
	"errors"
	"testing"
)

func TestProjectConcreteScenario(t *testing.T) {
	// Registration[day0,day2], ContentCreation[day2,day5],
	// ResultSubmission[day5,day7], no brainstorming. Transaction sits at
	// registration_approved while the content window is open on day 3.
	schedule := NewSchedule(noBrainstormTimeline())
	now := day(3)

	creator, err := Project(schedule, StatusRegistrationApproved, RoleContentCreator, now)
	if err != nil {
		t.Fatalf("creator projection failed: %v", err)
	}
	if len(creator) != 2 {
		t.Fatalf("expected creator stepper length 2, got %d (%v)", len(creator), creator)
	}
	if creator[0] != StepperSuccess || creator[1] != StepperInProgress {
		t.Fatalf("expected [success in_progress], got %v", creator)
	}

	owner, err := Project(schedule, StatusRegistrationApproved, RoleBusinessPeople, now)
	if err != nil {
		t.Fatalf("owner projection failed: %v", err)
	}
	if len(owner) != 2 || owner[0] != StepperSuccess || owner[1] != StepperSuccess {
		t.Fatalf("expected [success success], got %v", owner)
	}
}

func TestProjectOffsetCorrectionByConstruction(t *testing.T) {
	// A campaign without brainstorming and a transaction carrying a
	// brainstorm-phase ordinal must land on the same displayed ordinal as a
	// brainstorming campaign with the transaction one gate earlier.
	withBrainstorm := NewSchedule(fullTimeline())
	withoutBrainstorm := NewSchedule(noBrainstormTimeline())
	now := day(1) // registration active in both

	a, err := Project(withoutBrainstorm, StatusBrainstormApproved, RoleContentCreator, now)
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	b, err := Project(withBrainstorm, StatusRegistrationApproved, RoleContentCreator, now)
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("expected matching stepper lengths, got %d and %d", len(a), len(b))
	}
	if withoutBrainstorm.DisplayOrdinal(StepBrainstorming) != withBrainstorm.DisplayOrdinal(StepRegistration) {
		t.Fatalf("expected equal display ordinals")
	}
}

func TestProjectOwnerAndCreatorDiverge(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())

	// Creator ahead of schedule: content submitted during registration.
	now := day(1)
	owner, _ := Project(schedule, StatusContentSubmitted, RoleBusinessPeople, now)
	creator, _ := Project(schedule, StatusContentSubmitted, RoleContentCreator, now)
	if len(owner) != 1 {
		t.Fatalf("owner view follows the calendar only, got length %d", len(owner))
	}
	if len(creator) != 2 {
		t.Fatalf("creator ahead of schedule should show 2 entries, got %d", len(creator))
	}
	if creator[1] != StepperInProgress {
		t.Fatalf("content step trails the active registration window check, got %v", creator[1])
	}

	// Creator behind schedule: still registered while results are due.
	now = day(6)
	owner, _ = Project(schedule, StatusRegistrationApproved, RoleBusinessPeople, now)
	creator, _ = Project(schedule, StatusRegistrationApproved, RoleContentCreator, now)
	if len(owner) != 3 || len(creator) != 3 {
		t.Fatalf("expected length 3 for both views, got %d and %d", len(owner), len(creator))
	}
	if creator[2] != StepperInProgress {
		t.Fatalf("behind-schedule creator must end in in_progress, got %v", creator[2])
	}
	if owner[2] != StepperSuccess {
		t.Fatalf("owner view stays success, got %v", owner[2])
	}
}

func TestProjectClampsOutsideCampaignDates(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())

	before, err := Project(schedule, StatusNotRegistered, RoleBusinessPeople, day(-3))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("before campaign start the owner stepper clamps to one entry, got %d", len(before))
	}

	after, err := Project(schedule, StatusCompleted, RoleBusinessPeople, day(10))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if len(after) != 4 {
		t.Fatalf("after campaign end expected one past the last step (4), got %d", len(after))
	}

	creator, err := Project(schedule, StatusCompleted, RoleContentCreator, day(10))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if creator[len(creator)-1] != StepperSuccess {
		t.Fatalf("completed transaction ends in success, got %v", creator)
	}
}

func TestProjectUnknownStatusSurfacesError(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())

	states, err := Project(schedule, Status("bogus"), RoleContentCreator, day(1))
	if !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
	if len(states) != 1 || states[0] != StepperTerminated {
		t.Fatalf("expected renderable [terminated] fallback, got %v", states)
	}
}

func TestProjectTerminatedTransaction(t *testing.T) {
	schedule := NewSchedule(fullTimeline())

	states, err := Project(schedule, StatusTerminated, RoleContentCreator, day(9))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}
	if states[len(states)-1] != StepperTerminated {
		t.Fatalf("terminated transaction must end terminated, got %v", states)
	}
}
