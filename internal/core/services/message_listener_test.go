package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/core/services"
)

var providerOrigins = []string{"https://app.cal.com", "https://cal.com"}

const bookingSuccessfulPayload = `{
	"type": "bookingSuccessful",
	"data": {
		"uid": "abc123",
		"startTime": "2026-03-01T10:00:00Z",
		"endTime": "2026-03-01T10:30:00Z",
		"timeZone": "Europe/Berlin",
		"attendees": [{"name": "Ada Lovelace"}, {"name": "Host"}],
		"metadata": {"videoCallUrl": "https://meet.example/abc"}
	}
}`

func subscribed(t *testing.T) (*services.MessageListener, *[]domain.BookingRecord) {
	t.Helper()
	l := services.NewMessageListener(providerOrigins, nil, nil)
	var got []domain.BookingRecord
	l.Subscribe(func(rec domain.BookingRecord) { got = append(got, rec) })
	return l, &got
}

func TestMessageListener_MapsBookingSuccessful(t *testing.T) {
	l, got := subscribed(t)

	require.True(t, l.Receive("https://app.cal.com", []byte(bookingSuccessfulPayload)))
	require.Len(t, *got, 1)

	rec := (*got)[0]
	assert.Equal(t, "abc123", rec.BookingID)
	assert.Equal(t, "2026-03-01T10:00:00Z", rec.StartTime)
	assert.Equal(t, "2026-03-01T10:30:00Z", rec.EndTime)
	assert.Equal(t, "Europe/Berlin", rec.Timezone)
	assert.Equal(t, "Ada Lovelace", rec.AttendeeName)
	assert.Equal(t, "https://meet.example/abc", rec.MeetingLink)
}

func TestMessageListener_FallsBackToNumericID(t *testing.T) {
	l, got := subscribed(t)

	require.True(t, l.Receive("https://cal.com", []byte(`{"type":"bookingSuccessful","data":{"id":4711}}`)))
	require.Len(t, *got, 1)
	assert.Equal(t, "4711", (*got)[0].BookingID)
	assert.Empty(t, (*got)[0].StartTime)
	assert.Empty(t, (*got)[0].AttendeeName)
}

func TestMessageListener_DropsUnwantedMessages(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		data   string
	}{
		{"foreign origin", "https://evil.example", bookingSuccessfulPayload},
		{"origin with trailing slash", "https://app.cal.com/", bookingSuccessfulPayload},
		{"subdomain of provider", "https://evil.cal.com", bookingSuccessfulPayload},
		{"other discriminant", "https://app.cal.com", `{"type":"linkReady","data":{}}`},
		{"no discriminant", "https://app.cal.com", `{"data":{"uid":"abc123"}}`},
		{"not json", "https://app.cal.com", `hello`},
		{"missing id", "https://app.cal.com", `{"type":"bookingSuccessful","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, got := subscribed(t)
			assert.False(t, l.Receive(tt.origin, []byte(tt.data)))
			assert.Empty(t, *got)
		})
	}
}

func TestMessageListener_UnsubscribeStopsDelivery(t *testing.T) {
	l, got := subscribed(t)
	l.Unsubscribe()

	assert.False(t, l.Receive("https://app.cal.com", []byte(bookingSuccessfulPayload)))
	assert.Empty(t, *got)
}
