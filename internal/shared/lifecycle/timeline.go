package lifecycle

import (
	"sort"
	"time"
)

// Window is one scheduled phase of a campaign with an inclusive time range.
type Window struct {
	Step  Step
	Start time.Time
	End   time.Time
}

// Contains reports whether now falls inside the window, boundaries included.
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}

// Schedule is a campaign's derived timeline view. It is a pure value built
// once from the persisted window list and holds no reference to the store.
type Schedule struct {
	windows []Window
	steps   []Step
}

// NewSchedule builds a schedule from persisted windows. Storage order is not
// trusted: windows are sorted by global step order, unknown steps and later
// duplicates of an already-seen step are dropped.
func NewSchedule(windows []Window) Schedule {
	sorted := append([]Window(nil), windows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return StepIndex(sorted[i].Step) < StepIndex(sorted[j].Step)
	})

	seen := make(map[Step]bool, len(sorted))
	kept := make([]Window, 0, len(sorted))
	steps := make([]Step, 0, len(sorted))
	for _, window := range sorted {
		if StepIndex(window.Step) < 0 || seen[window.Step] {
			continue
		}
		seen[window.Step] = true
		kept = append(kept, window)
		steps = append(steps, window.Step)
	}
	return Schedule{windows: kept, steps: steps}
}

func (s Schedule) IsStepScheduled(step Step) bool {
	for _, item := range s.steps {
		if item == step {
			return true
		}
	}
	return false
}

// ActiveWindow returns the first window in step order containing now. The
// step-order tie-break keeps the answer deterministic when stored windows
// overlap.
func (s Schedule) ActiveWindow(now time.Time) (Window, bool) {
	for _, window := range s.windows {
		if window.Contains(now) {
			return window, true
		}
	}
	return Window{}, false
}

// ActiveWindowCount counts windows containing now. A count above one means
// the stored timeline overlaps; callers should surface it as a data-quality
// warning, not fail.
func (s Schedule) ActiveWindowCount(now time.Time) int {
	count := 0
	for _, window := range s.windows {
		if window.Contains(now) {
			count++
		}
	}
	return count
}

// CheckAmbiguity returns ErrAmbiguousActiveWindow when overlapping windows
// both cover now.
func (s Schedule) CheckAmbiguity(now time.Time) error {
	if s.ActiveWindowCount(now) > 1 {
		return ErrAmbiguousActiveWindow
	}
	return nil
}

// ScheduledSteps returns the steps present on this campaign in global order.
func (s Schedule) ScheduledSteps() []Step {
	return append([]Step(nil), s.steps...)
}

// ScheduledOrdinal returns step's position counting only the steps actually
// scheduled for this campaign, or -1 when the step is not on the timeline.
// This is the ordinal a stepper UI displays.
func (s Schedule) ScheduledOrdinal(step Step) int {
	for i, item := range s.steps {
		if item == step {
			return i
		}
	}
	return -1
}

// DisplayOrdinal resolves a step to a stepper position even when the step is
// not scheduled: an unscheduled step falls back to the nearest earlier
// scheduled step, or 0 when none precedes it. By construction this makes
// status ordinals comparable between campaigns with and without the optional
// brainstorming phase, with no separate index-offset arithmetic.
func (s Schedule) DisplayOrdinal(step Step) int {
	if ordinal := s.ScheduledOrdinal(step); ordinal >= 0 {
		return ordinal
	}
	global := StepIndex(step)
	if global < 0 {
		return -1
	}
	best := 0
	for i, item := range s.steps {
		if StepIndex(item) < global {
			best = i
		} else {
			break
		}
	}
	return best
}

// Start returns the earliest window start, false for an empty schedule.
func (s Schedule) Start() (time.Time, bool) {
	if len(s.windows) == 0 {
		return time.Time{}, false
	}
	start := s.windows[0].Start
	for _, window := range s.windows[1:] {
		if window.Start.Before(start) {
			start = window.Start
		}
	}
	return start, true
}

// End returns the latest window end, false for an empty schedule.
func (s Schedule) End() (time.Time, bool) {
	if len(s.windows) == 0 {
		return time.Time{}, false
	}
	end := s.windows[0].End
	for _, window := range s.windows[1:] {
		if window.End.After(end) {
			end = window.End
		}
	}
	return end, true
}
