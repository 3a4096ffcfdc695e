package services

import (
	"github.com/srgjo27/booking_flow/internal/core/domain"
)

// ConfirmationMachine merges both confirmation channels into one booking.
// It is a pure reducer: Apply mutates local state and returns the effects the
// caller must run. It is not safe for concurrent use; a FlowSession owns it.
type ConfirmationMachine struct {
	flow          domain.FlowContext
	ticks         int
	dashboardPath string

	state     domain.FlowState
	booking   *domain.BookingRecord
	seen      map[string]struct{}
	outcome   domain.PersistenceOutcome
	countdown domain.Countdown
	navigated string
}

// MachineSnapshot is a read-only copy of the machine's state.
type MachineSnapshot struct {
	State       domain.FlowState
	Booking     *domain.BookingRecord
	Outcome     domain.PersistenceOutcome
	Countdown   domain.Countdown
	NavigatedTo string
}

func NewConfirmationMachine(flow domain.FlowContext, ticks int, dashboardPath string) *ConfirmationMachine {
	return &ConfirmationMachine{
		flow:          flow,
		ticks:         ticks,
		dashboardPath: dashboardPath,
		state:         domain.StateIdle,
		seen:          make(map[string]struct{}),
	}
}

func (m *ConfirmationMachine) State() domain.FlowState {
	return m.state
}

func (m *ConfirmationMachine) Snapshot() MachineSnapshot {
	snap := MachineSnapshot{
		State:       m.state,
		Outcome:     m.outcome,
		Countdown:   m.countdown,
		NavigatedTo: m.navigated,
	}
	if m.booking != nil {
		b := *m.booking
		snap.Booking = &b
	}
	return snap
}

// Apply feeds one event through the machine.
func (m *ConfirmationMachine) Apply(ev domain.Event) []domain.Effect {
	switch e := ev.(type) {
	case domain.ModalToggled:
		m.toggleModal(e.Open)
		return nil
	case domain.MessageConfirmed:
		return m.confirm(e.Booking, domain.ChannelMessage)
	case domain.RedirectConfirmed:
		return m.confirm(e.Booking, domain.ChannelRedirect)
	case domain.PersistFinished:
		return m.persistFinished(e)
	case domain.CompleteRequested:
		if m.state != domain.StatePersistFailed {
			return nil
		}
		return m.beginPersist()
	case domain.CountdownTicked:
		return m.tick(e.Remaining)
	default:
		return nil
	}
}

// Accepted reports whether the booking id has already been taken by this machine.
func (m *ConfirmationMachine) Accepted(bookingID string) bool {
	_, ok := m.seen[bookingID]
	return ok
}

func (m *ConfirmationMachine) toggleModal(open bool) {
	switch {
	case open && m.state == domain.StateIdle:
		m.state = domain.StateWidgetOpened
	case !open && m.state == domain.StateWidgetOpened:
		m.state = domain.StateIdle
	}
}

func (m *ConfirmationMachine) confirm(rec domain.BookingRecord, ch domain.Channel) []domain.Effect {
	if rec.BookingID == "" {
		return nil
	}

	if m.Accepted(rec.BookingID) {
		// A message confirmation in the client flow waits for the redirect before
		// saving; the redirect for the same id starts that save without replacing
		// the record.
		if ch == domain.ChannelRedirect &&
			m.flow.Type == domain.FlowClient &&
			m.state == domain.StateConfirmed &&
			!m.outcome.Attempted {
			return m.beginPersist()
		}
		return nil
	}

	if m.state.HasConfirmation() {
		return nil
	}

	m.seen[rec.BookingID] = struct{}{}
	rec.Status = domain.BookingConfirmed
	rec.Source = ch
	m.booking = &rec
	m.state = domain.StateConfirmed

	switch m.flow.Type {
	case domain.FlowTalent:
		m.state = domain.StateDone
		if m.flow.ProfileID != "" {
			return []domain.Effect{domain.ClearProfile{ProfileID: m.flow.ProfileID}}
		}
		return nil
	case domain.FlowClient:
		if ch == domain.ChannelRedirect {
			return m.beginPersist()
		}
	}
	return nil
}

func (m *ConfirmationMachine) beginPersist() []domain.Effect {
	m.state = domain.StatePersisting
	m.outcome = domain.PersistenceOutcome{Attempted: true}
	return []domain.Effect{domain.PersistBooking{Booking: *m.booking}}
}

func (m *ConfirmationMachine) persistFinished(e domain.PersistFinished) []domain.Effect {
	if m.state != domain.StatePersisting || m.booking == nil || m.booking.BookingID != e.BookingID {
		return nil
	}

	m.outcome = e.Outcome
	m.outcome.Attempted = true
	if !e.Outcome.Succeeded {
		m.state = domain.StatePersistFailed
		if m.outcome.ErrorMessage == "" {
			m.outcome.ErrorMessage = "We could not save your booking."
		}
		return nil
	}

	m.state = domain.StatePersisted
	if m.flow.Type != domain.FlowClient {
		return nil
	}
	m.state = domain.StateAutoRedirecting
	m.countdown = domain.Countdown{Total: m.ticks, Remaining: m.ticks}
	return []domain.Effect{domain.StartCountdown{Ticks: m.ticks}}
}

func (m *ConfirmationMachine) tick(remaining int) []domain.Effect {
	if m.state != domain.StateAutoRedirecting || m.navigated != "" {
		return nil
	}
	if remaining < 0 {
		remaining = 0
	}
	m.countdown.Remaining = remaining
	if remaining > 0 {
		return nil
	}
	m.navigated = m.dashboardPath
	return []domain.Effect{domain.NavigateTo{URL: m.dashboardPath}}
}
