package domain

// Event is an input to a flow session's state machine.
type Event interface {
	isEvent()
}

// MessageConfirmed is a booking reported by the embedded frame's message channel.
type MessageConfirmed struct {
	Booking BookingRecord
}

// RedirectConfirmed is a booking reported by query parameters after a top-level redirect.
type RedirectConfirmed struct {
	Booking BookingRecord
}

type ModalToggled struct {
	Open bool
}

type PersistFinished struct {
	BookingID string
	Outcome   PersistenceOutcome
}

type CountdownTicked struct {
	Remaining int
}

// CompleteRequested is the user's explicit retry after a failed save.
type CompleteRequested struct{}

func (MessageConfirmed) isEvent()  {}
func (RedirectConfirmed) isEvent() {}
func (ModalToggled) isEvent()      {}
func (PersistFinished) isEvent()   {}
func (CountdownTicked) isEvent()   {}
func (CompleteRequested) isEvent() {}

// Effect is a side effect requested by the state machine.
type Effect interface {
	isEffect()
}

type PersistBooking struct {
	Booking BookingRecord
}

type StartCountdown struct {
	Ticks int
}

type NavigateTo struct {
	URL string
}

type ClearProfile struct {
	ProfileID string
}

func (PersistBooking) isEffect() {}
func (StartCountdown) isEffect() {}
func (NavigateTo) isEffect()     {}
func (ClearProfile) isEffect()   {}
