package lifecycle

// Step is a named phase in a campaign calendar. Order is significant:
// cross-campaign comparisons use the position within stepOrder.
type Step string

const (
	StepRegistration     Step = "registration"
	StepBrainstorming    Step = "brainstorming"
	StepContentCreation  Step = "content_creation"
	StepResultSubmission Step = "result_submission"
	StepCompleted        Step = "completed"
)

// Brainstorming is the only optional step; campaigns may omit it from their
// timeline entirely.
var stepOrder = []Step{
	StepRegistration,
	StepBrainstorming,
	StepContentCreation,
	StepResultSubmission,
	StepCompleted,
}

// StepIndex returns the global ordinal of step within the canonical order,
// or -1 for unknown values.
func StepIndex(step Step) int {
	for i, item := range stepOrder {
		if item == step {
			return i
		}
	}
	return -1
}

func IsValidStep(step Step) bool {
	return StepIndex(step) >= 0
}

// Steps returns the canonical step order. Callers get a copy.
func Steps() []Step {
	return append([]Step(nil), stepOrder...)
}
