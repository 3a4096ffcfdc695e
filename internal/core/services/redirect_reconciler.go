package services

import (
	"net/url"

	"github.com/srgjo27/booking_flow/internal/core/domain"
)

// Query parameters the scheduling provider appends when it redirects back.
const (
	paramBookingConfirmed = "bookingConfirmed"
	paramUID              = "uid"
	paramAttendeeName     = "attendeeName"
	paramStartTime        = "startTime"
	paramEndTime          = "endTime"
	paramLocation         = "location"
	paramTitle            = "title"
	paramDescription      = "description"
)

// RedirectReconciler reads booking confirmations from a landing URL.
type RedirectReconciler struct{}

func NewRedirectReconciler() *RedirectReconciler {
	return &RedirectReconciler{}
}

// Reconcile builds a booking when the query carries both the confirmation flag
// and a booking id.
func (r *RedirectReconciler) Reconcile(q url.Values) (domain.BookingRecord, bool) {
	if q.Get(paramBookingConfirmed) != "true" || q.Get(paramUID) == "" {
		return domain.BookingRecord{}, false
	}
	return domain.BookingRecord{
		BookingID:    q.Get(paramUID),
		MeetingLink:  q.Get(paramLocation),
		StartTime:    q.Get(paramStartTime),
		EndTime:      q.Get(paramEndTime),
		AttendeeName: q.Get(paramAttendeeName),
		Title:        q.Get(paramTitle),
		Description:  q.Get(paramDescription),
	}, true
}

// HasConfirmationParams reports whether a URL looks like a provider redirect.
func HasConfirmationParams(q url.Values) bool {
	return q.Get(paramBookingConfirmed) != "" || q.Get(paramUID) != ""
}
