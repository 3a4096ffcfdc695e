package services

import (
	"fmt"
	"time"

	"github.com/srgjo27/booking_flow/internal/core/domain"
)

// SessionView is everything the booking page renders.
type SessionView struct {
	ID          string                    `json:"id"`
	Flow        domain.FlowType           `json:"flowType"`
	State       domain.FlowState          `json:"state"`
	Modal       ModalView                 `json:"modal"`
	Booking     *BookingView              `json:"booking,omitempty"`
	Persistence domain.PersistenceOutcome `json:"persistence"`
	Banner      *Banner                   `json:"banner,omitempty"`
	Countdown   *CountdownView            `json:"countdown,omitempty"`
	Navigation  *Navigation               `json:"navigation,omitempty"`
}

type BookingView struct {
	domain.BookingRecord
	StartDisplay string `json:"startDisplay"`
	EndDisplay   string `json:"endDisplay"`
}

type Banner struct {
	Message      string `json:"message"`
	RetryEnabled bool   `json:"retryEnabled"`
}

type CountdownView struct {
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Text      string `json:"text"`
}

// Navigation tells the page to leave. Replace means no history entry.
type Navigation struct {
	URL     string `json:"url"`
	Replace bool   `json:"replace"`
}

func buildSessionView(id string, flow domain.FlowType, snap MachineSnapshot, interval time.Duration) SessionView {
	v := SessionView{
		ID:          id,
		Flow:        flow,
		State:       snap.State,
		Persistence: snap.Outcome,
	}

	if snap.Booking != nil {
		v.Booking = &BookingView{
			BookingRecord: *snap.Booking,
			StartDisplay:  domain.FormatMeetingTime(snap.Booking.StartTime, snap.Booking.Timezone),
			EndDisplay:    domain.FormatMeetingTime(snap.Booking.EndTime, snap.Booking.Timezone),
		}
	}

	if snap.State == domain.StatePersistFailed {
		v.Banner = &Banner{Message: snap.Outcome.ErrorMessage, RetryEnabled: true}
	}

	if snap.State == domain.StateAutoRedirecting {
		left := time.Duration(snap.Countdown.Remaining) * interval
		v.Countdown = &CountdownView{
			Remaining: snap.Countdown.Remaining,
			Total:     snap.Countdown.Total,
			Percent:   snap.Countdown.Percent(),
			Text:      fmt.Sprintf("Redirecting to your dashboard in %s", left),
		}
	}

	if snap.NavigatedTo != "" {
		// Back from the dashboard must not land on a spent confirmation page.
		v.Navigation = &Navigation{URL: snap.NavigatedTo, Replace: true}
	}
	return v
}
