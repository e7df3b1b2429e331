package lifecycle

import (
	"errors"
	"testing"
	"time"
)

var day0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.Add(time.Duration(n) * 24 * time.Hour)
}

func fullTimeline() []Window {
	return []Window{
		{Step: StepRegistration, Start: day(0), End: day(2)},
		{Step: StepBrainstorming, Start: day(2), End: day(4)},
		{Step: StepContentCreation, Start: day(4), End: day(6)},
		{Step: StepResultSubmission, Start: day(6), End: day(8)},
	}
}

func noBrainstormTimeline() []Window {
	return []Window{
		{Step: StepRegistration, Start: day(0), End: day(2)},
		{Step: StepContentCreation, Start: day(2), End: day(5)},
		{Step: StepResultSubmission, Start: day(5), End: day(7)},
	}
}

func TestScheduleOrdersWindowsByStep(t *testing.T) {
	schedule := NewSchedule([]Window{
		{Step: StepResultSubmission, Start: day(6), End: day(8)},
		{Step: StepRegistration, Start: day(0), End: day(2)},
		{Step: StepContentCreation, Start: day(4), End: day(6)},
	})

	steps := schedule.ScheduledSteps()
	want := []Step{StepRegistration, StepContentCreation, StepResultSubmission}
	if len(steps) != len(want) {
		t.Fatalf("expected %d scheduled steps, got %d", len(want), len(steps))
	}
	for i, step := range want {
		if steps[i] != step {
			t.Fatalf("scheduled step %d: expected %s, got %s", i, step, steps[i])
		}
	}
}

func TestScheduleDropsUnknownAndDuplicateSteps(t *testing.T) {
	schedule := NewSchedule([]Window{
		{Step: StepRegistration, Start: day(0), End: day(2)},
		{Step: StepRegistration, Start: day(3), End: day(4)},
		{Step: Step("bogus"), Start: day(0), End: day(9)},
	})
	if got := len(schedule.ScheduledSteps()); got != 1 {
		t.Fatalf("expected 1 scheduled step, got %d", got)
	}
	window, ok := schedule.ActiveWindow(day(1))
	if !ok || !window.Start.Equal(day(0)) {
		t.Fatalf("expected first registration window to win, got %+v ok=%v", window, ok)
	}
}

func TestActiveWindowInclusiveBounds(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())

	window, ok := schedule.ActiveWindow(day(0))
	if !ok || window.Step != StepRegistration {
		t.Fatalf("expected registration at start boundary, got %+v ok=%v", window, ok)
	}
	window, ok = schedule.ActiveWindow(day(7))
	if !ok || window.Step != StepResultSubmission {
		t.Fatalf("expected result submission at end boundary, got %+v ok=%v", window, ok)
	}
	if _, ok := schedule.ActiveWindow(day(9)); ok {
		t.Fatalf("expected no active window after campaign end")
	}
}

func TestActiveWindowOverlapTieBreak(t *testing.T) {
	schedule := NewSchedule([]Window{
		{Step: StepContentCreation, Start: day(1), End: day(5)},
		{Step: StepRegistration, Start: day(0), End: day(3)},
	})

	window, ok := schedule.ActiveWindow(day(2))
	if !ok || window.Step != StepRegistration {
		t.Fatalf("expected earlier step to win the overlap, got %+v ok=%v", window, ok)
	}
	if count := schedule.ActiveWindowCount(day(2)); count != 2 {
		t.Fatalf("expected overlap count 2, got %d", count)
	}
	if err := schedule.CheckAmbiguity(day(2)); !errors.Is(err, ErrAmbiguousActiveWindow) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if err := schedule.CheckAmbiguity(day(4)); err != nil {
		t.Fatalf("expected no ambiguity outside the overlap, got %v", err)
	}
}

func TestScheduledOrdinalExcludesAbsentBrainstorming(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())

	if schedule.IsStepScheduled(StepBrainstorming) {
		t.Fatalf("brainstorming should not be scheduled")
	}
	if got := schedule.ScheduledOrdinal(StepContentCreation); got != 1 {
		t.Fatalf("expected content creation ordinal 1, got %d", got)
	}
	if got := schedule.ScheduledOrdinal(StepBrainstorming); got != -1 {
		t.Fatalf("expected -1 for unscheduled step, got %d", got)
	}
	if got := schedule.DisplayOrdinal(StepBrainstorming); got != 0 {
		t.Fatalf("expected unscheduled brainstorming to fall back to registration, got %d", got)
	}
}

func TestGlobalStepIndexIsFixed(t *testing.T) {
	schedule := NewSchedule(noBrainstormTimeline())

	// Global ordinals ignore the campaign's own subset.
	if got := StepIndex(StepContentCreation); got != 2 {
		t.Fatalf("expected global index 2, got %d", got)
	}
	if got := schedule.ScheduledOrdinal(StepContentCreation); got != 1 {
		t.Fatalf("expected scheduled ordinal 1, got %d", got)
	}
	if got := StepIndex(Step("bogus")); got != -1 {
		t.Fatalf("expected -1 for unknown step, got %d", got)
	}
}
