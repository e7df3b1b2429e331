package lifecycle

import "time"

// Status is the fine-grained state of one transaction. Statuses map
// many-to-one onto campaign steps.
type Status string

const (
	StatusNotRegistered          Status = "not_registered"
	StatusRegistrationPending    Status = "registration_pending"
	StatusRegistrationApproved   Status = "registration_approved"
	StatusRegistrationRejected   Status = "registration_rejected"
	StatusOffering               Status = "offering"
	StatusOfferWaitingForPayment Status = "offer_waiting_for_payment"
	StatusBrainstormSubmitted    Status = "brainstorm_submitted"
	StatusBrainstormApproved     Status = "brainstorm_approved"
	StatusContentSubmitted       Status = "content_submitted"
	StatusCompleted              Status = "completed"
	StatusTerminated             Status = "terminated"
)

// StepperState classifies one entry of a progress stepper.
type StepperState string

const (
	StepperSuccess    StepperState = "success"
	StepperInProgress StepperState = "in_progress"
	StepperTerminated StepperState = "terminated"
)

// Role identifies the two marketplace parties.
type Role string

const (
	RoleBusinessPeople Role = "business_people"
	RoleContentCreator Role = "content_creator"
)

// RejectionType qualifies a content rejection. Mismatch rejections consume
// one revision from the transaction's budget; unreachable-link rejections do
// not and stay available after the budget is spent.
type RejectionType string

const (
	RejectionMismatch        RejectionType = "mismatch"
	RejectionUnreachableLink RejectionType = "unreachable_link"
)

// The three status maps are fixed and exhaustive. An unmapped status is an
// error at parse time, never a silent display fallback.
var statusSteps = map[Status]Step{
	StatusNotRegistered:          StepRegistration,
	StatusRegistrationPending:    StepRegistration,
	StatusRegistrationApproved:   StepRegistration,
	StatusRegistrationRejected:   StepRegistration,
	StatusOffering:               StepRegistration,
	StatusOfferWaitingForPayment: StepRegistration,
	StatusBrainstormSubmitted:    StepBrainstorming,
	StatusBrainstormApproved:     StepBrainstorming,
	StatusContentSubmitted:       StepContentCreation,
	StatusCompleted:              StepCompleted,
	StatusTerminated:             StepCompleted,
}

var statusOrdinals = map[Status]int{
	StatusNotRegistered:          0,
	StatusRegistrationPending:    1,
	StatusRegistrationRejected:   1,
	StatusOffering:               1,
	StatusOfferWaitingForPayment: 2,
	StatusRegistrationApproved:   3,
	StatusBrainstormSubmitted:    4,
	StatusBrainstormApproved:     5,
	StatusContentSubmitted:       6,
	StatusCompleted:              7,
	StatusTerminated:             7,
}

var statusStepper = map[Status]StepperState{
	StatusNotRegistered:          StepperInProgress,
	StatusRegistrationPending:    StepperInProgress,
	StatusRegistrationApproved:   StepperSuccess,
	StatusRegistrationRejected:   StepperTerminated,
	StatusOffering:               StepperInProgress,
	StatusOfferWaitingForPayment: StepperInProgress,
	StatusBrainstormSubmitted:    StepperInProgress,
	StatusBrainstormApproved:     StepperSuccess,
	StatusContentSubmitted:       StepperInProgress,
	StatusCompleted:              StepperSuccess,
	StatusTerminated:             StepperTerminated,
}

func IsValidStatus(status Status) bool {
	_, ok := statusSteps[status]
	return ok
}

// ParseStatus converts a persisted status string. Unknown values fail with
// ErrUnknownStatus.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !IsValidStatus(status) {
		return "", ErrUnknownStatus
	}
	return status, nil
}

// Machine is a pure view over one transaction's lifecycle status. It owns no
// reference back to the store and is safe to share between readers.
type Machine struct {
	status Status
}

func NewMachine(status Status) (Machine, error) {
	if !IsValidStatus(status) {
		return Machine{}, ErrUnknownStatus
	}
	return Machine{status: status}, nil
}

func (m Machine) Status() Status {
	return m.status
}

// CampaignStep returns the step the status maps onto.
func (m Machine) CampaignStep() Step {
	return statusSteps[m.status]
}

// Ordinal returns the fixed global position of the status. It never
// decreases along a legal forward path and does not increase on a same-phase
// rejection cycle.
func (m Machine) Ordinal() int {
	return statusOrdinals[m.status]
}

func (m Machine) StepperVisualState() StepperState {
	return statusStepper[m.status]
}

func (m Machine) IsCompleted() bool {
	return m.status == StatusCompleted
}

func (m Machine) IsTerminated() bool {
	return m.status == StatusTerminated
}

// IsTerminal reports whether no further transition is legal.
func (m Machine) IsTerminal() bool {
	switch m.status {
	case StatusCompleted, StatusTerminated, StatusRegistrationRejected:
		return true
	}
	return false
}

// NextStatuses lists the legal forward edges from the current status.
// hasBrainstorm selects which submission phase follows registration approval.
// The terminated override is handled separately in CanTransition.
func (m Machine) NextStatuses(hasBrainstorm bool) []Status {
	switch m.status {
	case StatusNotRegistered:
		return []Status{StatusRegistrationPending, StatusOffering}
	case StatusRegistrationPending:
		return []Status{StatusRegistrationApproved, StatusRegistrationRejected}
	case StatusOffering:
		return []Status{StatusOfferWaitingForPayment, StatusNotRegistered}
	case StatusOfferWaitingForPayment:
		return []Status{StatusRegistrationApproved}
	case StatusRegistrationApproved:
		if hasBrainstorm {
			return []Status{StatusBrainstormSubmitted}
		}
		return []Status{StatusContentSubmitted}
	case StatusBrainstormSubmitted:
		// Rejection returns to registration_approved for resubmission; the
		// phase does not advance.
		return []Status{StatusBrainstormApproved, StatusRegistrationApproved}
	case StatusBrainstormApproved:
		return []Status{StatusContentSubmitted}
	case StatusContentSubmitted:
		// The self edge is the content rejection/resubmission cycle.
		return []Status{StatusCompleted, StatusContentSubmitted}
	default:
		return nil
	}
}

// CanTransition reports whether moving to target is a legal edge. Terminated
// is reachable from any live status as an admin override; completed and
// terminated stay terminal.
func (m Machine) CanTransition(target Status, hasBrainstorm bool) bool {
	if !IsValidStatus(target) {
		return false
	}
	if target == StatusTerminated {
		return m.status != StatusCompleted && m.status != StatusTerminated
	}
	for _, next := range m.NextStatuses(hasBrainstorm) {
		if next == target {
			return true
		}
	}
	return false
}

// Transition returns the machine at target, or ErrTransitionNotPermitted.
func (m Machine) Transition(target Status, hasBrainstorm bool) (Machine, error) {
	if !m.CanTransition(target, hasBrainstorm) {
		return Machine{}, ErrTransitionNotPermitted
	}
	return Machine{status: target}, nil
}

// IsWaitingBusinessAction reports whether the sponsor owes the next decision.
func (m Machine) IsWaitingBusinessAction() bool {
	switch m.status {
	case StatusRegistrationPending, StatusOfferWaitingForPayment,
		StatusBrainstormSubmitted, StatusContentSubmitted:
		return true
	}
	return false
}

// IsWaitingCreatorAction reports whether the creator owes a submission for
// the calendar-active step, i.e. the transaction's step trails the schedule.
func (m Machine) IsWaitingCreatorAction(schedule Schedule, now time.Time) bool {
	window, ok := schedule.ActiveWindow(now)
	if !ok {
		return false
	}
	switch m.status {
	case StatusOffering:
		return true
	case StatusNotRegistered:
		return window.Step == StepRegistration
	case StatusRegistrationApproved, StatusBrainstormApproved:
		return StepIndex(m.CampaignStep()) < StepIndex(window.Step)
	}
	return false
}

// PayoutState is the role-scoped payment sub-state carried by a transaction.
type PayoutState struct {
	Approved  bool
	Withdrawn bool
}

// Payouts holds the sub-state for both parties.
type Payouts struct {
	BusinessPeople PayoutState
	ContentCreator PayoutState
}

func (p Payouts) ForRole(role Role) PayoutState {
	if role == RoleBusinessPeople {
		return p.BusinessPeople
	}
	return p.ContentCreator
}

// IsWithdrawable is true only after completion, when the role's payout is
// approved and not yet withdrawn.
func (m Machine) IsWithdrawable(role Role, payouts Payouts) bool {
	if m.status != StatusCompleted {
		return false
	}
	state := payouts.ForRole(role)
	return state.Approved && !state.Withdrawn
}

// CanRejectContent applies the revision policy: mismatch rejections need
// budget left, unreachable-link rejections are always available.
func CanRejectContent(rejection RejectionType, remainingRevisions int) error {
	switch rejection {
	case RejectionMismatch:
		if remainingRevisions <= 0 {
			return ErrRevisionExhausted
		}
		return nil
	case RejectionUnreachableLink:
		return nil
	default:
		return ErrTransitionNotPermitted
	}
}
