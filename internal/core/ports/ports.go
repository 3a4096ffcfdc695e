package ports

import (
	"context"

	"github.com/srgjo27/booking_flow/internal/core/domain"
)

// MeetingBackend is the REST backend that stores scheduled calls.
type MeetingBackend interface {
	SaveCalcomBooking(ctx context.Context, req domain.MeetingBookingRequest) error
}

// ConfirmationLedger remembers which bookings already reached the backend.
type ConfirmationLedger interface {
	IsPersisted(ctx context.Context, bookingID string) (bool, error)
	RecordPersisted(ctx context.Context, booking domain.BookingRecord, flow domain.FlowType) error
}

// ProfileStore holds the talent profile id written by the step before booking.
type ProfileStore interface {
	SaveProfile(ctx context.Context, visitorID, profileID string) error
	GetProfile(ctx context.Context, visitorID string) (string, error)
	ClearProfile(ctx context.Context, visitorID string) error
}

type ScriptFetcher interface {
	FetchScript(ctx context.Context, src string) ([]byte, error)
}
