package domain

import (
	"errors"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
)

// Channel identifies how a confirmation reached the page.
type Channel string

const (
	ChannelMessage  Channel = "message"
	ChannelRedirect Channel = "redirect"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrUnknownFlow     = errors.New("unknown flow type")
	ErrInvalidProfile  = errors.New("invalid profile id")
)

// BookingRecord is a confirmed meeting. Absent provider values are empty strings.
type BookingRecord struct {
	BookingID    string        `json:"bookingId"`
	MeetingLink  string        `json:"meetingLink,omitempty"`
	StartTime    string        `json:"startTime,omitempty"`
	EndTime      string        `json:"endTime,omitempty"`
	AttendeeName string        `json:"attendeeName,omitempty"`
	Timezone     string        `json:"timezone,omitempty"`
	Title        string        `json:"title,omitempty"`
	Description  string        `json:"description,omitempty"`
	Status       BookingStatus `json:"status"`
	Source       Channel       `json:"source"`
}

// MeetingBookingRequest is the body the backend expects for a scheduled call.
type MeetingBookingRequest struct {
	BookingID    string `json:"bookingId"`
	ScheduledAt  string `json:"scheduledAt"`
	EndTime      string `json:"endTime"`
	VideoCallURL string `json:"videoCallUrl"`
	Title        string `json:"title"`
	Description  string `json:"description"`
}

func NewMeetingBookingRequest(b BookingRecord) MeetingBookingRequest {
	return MeetingBookingRequest{
		BookingID:    b.BookingID,
		ScheduledAt:  b.StartTime,
		EndTime:      b.EndTime,
		VideoCallURL: b.MeetingLink,
		Title:        b.Title,
		Description:  b.Description,
	}
}

// PersistenceOutcome describes the latest attempt to save a booking to the backend.
type PersistenceOutcome struct {
	Attempted    bool   `json:"attempted"`
	Succeeded    bool   `json:"succeeded"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

const InvalidDate = "Invalid Date"

var meetingTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatMeetingTime renders a provider timestamp for display, in tz when it is a
// known zone. Unparseable or empty values render as InvalidDate.
func FormatMeetingTime(value, tz string) string {
	var (
		t   time.Time
		err error
	)
	for _, layout := range meetingTimeLayouts {
		t, err = time.Parse(layout, value)
		if err == nil {
			break
		}
	}
	if err != nil {
		return InvalidDate
	}

	if tz != "" {
		if loc, lerr := time.LoadLocation(tz); lerr == nil {
			t = t.In(loc)
		}
	}

	return t.Format("Monday, January 2, 2006 3:04 PM MST")
}
