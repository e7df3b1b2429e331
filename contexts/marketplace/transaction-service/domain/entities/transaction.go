package entities

import (
	"strings"
	"time"

	"tandem/internal/shared/lifecycle"
)

// SubmissionStatus is the review state of one phase submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// PhaseSubmission is one creator deliverable inside a transaction. A
// transaction accumulates submissions across the brainstorming, content
// creation and result submission phases; rejection cycles append new rows
// rather than overwrite old ones.
type PhaseSubmission struct {
	SubmissionID  string
	Step          lifecycle.Step
	Content       string
	Status        SubmissionStatus
	RejectionType lifecycle.RejectionType
	ReviewNote    string
	SubmittedAt   time.Time
	ReviewedAt    *time.Time
}

// Transaction binds one creator to one campaign and tracks the engagement
// from registration or offer through completion.
type Transaction struct {
	TransactionID      string
	CampaignID         string
	BusinessID         string
	CreatorID          string
	Status             lifecycle.Status
	RemainingRevisions int
	Submissions        []PhaseSubmission
	Payouts            lifecycle.Payouts
	OfferExpiresAt     *time.Time
	TerminationReason  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
	TerminatedAt       *time.Time
}

// DefaultRevisionBudget is the number of mismatch rejections a sponsor may
// issue per transaction. Unreachable-link rejections do not count against it.
const DefaultRevisionBudget = 3

func (t Transaction) Machine() (lifecycle.Machine, error) {
	return lifecycle.NewMachine(t.Status)
}

// IsActive reports whether the transaction still occupies a campaign slot.
// Declined offers, rejected registrations and terminated transactions free
// their slot.
func (t Transaction) IsActive() bool {
	switch t.Status {
	case lifecycle.StatusNotRegistered, lifecycle.StatusRegistrationRejected, lifecycle.StatusTerminated:
		return false
	}
	return true
}

// PendingSubmission returns the newest submission for the step that still
// awaits review.
func (t Transaction) PendingSubmission(step lifecycle.Step) (PhaseSubmission, bool) {
	for i := len(t.Submissions) - 1; i >= 0; i-- {
		sub := t.Submissions[i]
		if sub.Step == step && sub.Status == SubmissionPending {
			return sub, true
		}
	}
	return PhaseSubmission{}, false
}

// LatestSubmission returns the newest submission for the step regardless of
// review state.
func (t Transaction) LatestSubmission(step lifecycle.Step) (PhaseSubmission, bool) {
	for i := len(t.Submissions) - 1; i >= 0; i-- {
		if t.Submissions[i].Step == step {
			return t.Submissions[i], true
		}
	}
	return PhaseSubmission{}, false
}

// HasApprovedSubmission reports whether the step already carries an approved
// deliverable.
func (t Transaction) HasApprovedSubmission(step lifecycle.Step) bool {
	for _, sub := range t.Submissions {
		if sub.Step == step && sub.Status == SubmissionApproved {
			return true
		}
	}
	return false
}

func ValidateSubmissionContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	return len(trimmed) >= 1 && len(trimmed) <= 10000
}

func IsSubmittableStep(step lifecycle.Step) bool {
	switch step {
	case lifecycle.StepBrainstorming, lifecycle.StepContentCreation, lifecycle.StepResultSubmission:
		return true
	}
	return false
}
