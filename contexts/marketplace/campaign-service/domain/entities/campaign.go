package entities

import (
	"strings"
	"time"

	"tandem/internal/shared/lifecycle"
)

type CampaignStatus string
type CampaignType string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusPublished CampaignStatus = "published"
	CampaignStatusClosed    CampaignStatus = "closed"

	CampaignTypePublic  CampaignType = "public"
	CampaignTypePrivate CampaignType = "private"
)

// TimelineWindow is one persisted phase window. Windows are fixed at
// creation and never mutated by lifecycle logic.
type TimelineWindow struct {
	Step    lifecycle.Step
	StartAt time.Time
	EndAt   time.Time
}

type Campaign struct {
	CampaignID   string
	BusinessID   string
	Title        string
	Brief        string
	Requirements string
	CampaignType CampaignType
	Slots        int
	RewardAmount float64
	Timeline     []TimelineWindow
	Status       CampaignStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  *time.Time
	ClosedAt     *time.Time
}

// Schedule derives the pure timeline view consumed by progress queries.
func (c Campaign) Schedule() lifecycle.Schedule {
	windows := make([]lifecycle.Window, 0, len(c.Timeline))
	for _, item := range c.Timeline {
		windows = append(windows, lifecycle.Window{
			Step:  item.Step,
			Start: item.StartAt,
			End:   item.EndAt,
		})
	}
	return lifecycle.NewSchedule(windows)
}

func (c Campaign) HasBrainstorming() bool {
	for _, item := range c.Timeline {
		if item.Step == lifecycle.StepBrainstorming {
			return true
		}
	}
	return false
}

func (c Campaign) CanEdit() bool {
	return c.Status == CampaignStatusDraft
}

func (c Campaign) ValidateBasics() bool {
	title := strings.TrimSpace(c.Title)
	brief := strings.TrimSpace(c.Brief)

	return title != "" &&
		len(title) >= 3 &&
		len(title) <= 100 &&
		brief != "" &&
		len(brief) >= 10 &&
		len(brief) <= 2000 &&
		IsSupportedCampaignType(c.CampaignType) &&
		c.Slots >= 1 &&
		c.Slots <= 500 &&
		c.RewardAmount >= 1.0 &&
		c.RewardAmount <= 1_000_000.0 &&
		c.ValidateTimeline()
}

// ValidateTimeline requires a registration window, known steps, distinct
// steps, and non-inverted ranges. Brainstorming stays optional.
func (c Campaign) ValidateTimeline() bool {
	if len(c.Timeline) == 0 {
		return false
	}
	seen := make(map[lifecycle.Step]bool, len(c.Timeline))
	hasRegistration := false
	for _, window := range c.Timeline {
		if !lifecycle.IsValidStep(window.Step) {
			return false
		}
		if seen[window.Step] {
			return false
		}
		seen[window.Step] = true
		if window.EndAt.Before(window.StartAt) {
			return false
		}
		if window.Step == lifecycle.StepRegistration {
			hasRegistration = true
		}
	}
	return hasRegistration
}

func IsSupportedCampaignType(value CampaignType) bool {
	switch value {
	case CampaignTypePublic, CampaignTypePrivate:
		return true
	default:
		return false
	}
}
