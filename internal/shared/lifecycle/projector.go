package lifecycle

import "time"

// Project computes the ordered stepper entries for one role.
//
// Owners track calendar progress of the campaign as a whole: the stepper has
// campaignOrdinal+1 entries, all success. Creators track their own submission
// progress against that calendar: max(campaignOrdinal, txOrdinal)+1 entries,
// all success except the last, which carries the status machine's visual
// state and is downgraded to in-progress when the transaction's step trails
// the calendar-active step.
//
// An unknown status yields a single terminated entry together with
// ErrUnknownStatus so the caller can render something and still report the
// data-integrity fault.
func Project(schedule Schedule, status Status, role Role, now time.Time) ([]StepperState, error) {
	machine, err := NewMachine(status)
	if err != nil {
		return []StepperState{StepperTerminated}, err
	}

	campaignOrdinal := campaignOrdinalAt(schedule, now)
	if role == RoleBusinessPeople {
		return successRun(campaignOrdinal + 1), nil
	}

	txStep := machine.CampaignStep()
	txOrdinal := schedule.DisplayOrdinal(txStep)
	length := campaignOrdinal
	if txOrdinal > length {
		length = txOrdinal
	}
	states := successRun(length + 1)

	last := machine.StepperVisualState()
	if window, ok := schedule.ActiveWindow(now); ok && txStep != window.Step {
		last = StepperInProgress
	}
	states[len(states)-1] = last
	return states, nil
}

// campaignOrdinalAt maps the calendar position to a scheduled ordinal. With
// an active window it is that window's scheduled ordinal. Otherwise it counts
// the windows already over: 0 before the campaign starts, one past the last
// scheduled step after it ends, and the next upcoming step inside a gap.
func campaignOrdinalAt(schedule Schedule, now time.Time) int {
	if window, ok := schedule.ActiveWindow(now); ok {
		return schedule.ScheduledOrdinal(window.Step)
	}
	ended := 0
	for i, window := range schedule.windows {
		if now.After(window.End) {
			ended = i + 1
		}
	}
	return ended
}

func successRun(n int) []StepperState {
	if n < 1 {
		n = 1
	}
	states := make([]StepperState, n)
	for i := range states {
		states[i] = StepperSuccess
	}
	return states
}
