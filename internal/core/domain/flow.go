package domain

import "strings"

type FlowType string

const (
	FlowClient FlowType = "client"
	FlowTalent FlowType = "talent"
)

func ParseFlowType(s string) (FlowType, error) {
	switch FlowType(strings.ToLower(strings.TrimSpace(s))) {
	case FlowClient:
		return FlowClient, nil
	case FlowTalent:
		return FlowTalent, nil
	default:
		return "", ErrUnknownFlow
	}
}

// FlowContext is fixed when a page instance mounts.
type FlowContext struct {
	Type      FlowType `json:"flowType"`
	ProfileID string   `json:"profileId,omitempty"`
	VisitorID string   `json:"-"`
}

type FlowState string

const (
	StateIdle            FlowState = "idle"
	StateWidgetOpened    FlowState = "widget_opened"
	StateConfirmed       FlowState = "confirmed"
	StatePersisting      FlowState = "persisting"
	StatePersisted       FlowState = "persisted"
	StatePersistFailed   FlowState = "persist_failed"
	StateAutoRedirecting FlowState = "auto_redirecting"
	StateDone            FlowState = "done"
)

// HasConfirmation reports whether a booking has been accepted in this state.
func (s FlowState) HasConfirmation() bool {
	switch s {
	case StateIdle, StateWidgetOpened:
		return false
	default:
		return true
	}
}

// Countdown tracks the post-persistence redirect in whole ticks.
type Countdown struct {
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// Percent is the elapsed share of the countdown, 0 to 100.
func (c Countdown) Percent() int {
	if c.Total <= 0 {
		return 0
	}
	elapsed := c.Total - c.Remaining
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > c.Total {
		elapsed = c.Total
	}
	return elapsed * 100 / c.Total
}
