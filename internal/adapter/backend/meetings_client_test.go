package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/booking_flow/internal/adapter/backend"
	"github.com/srgjo27/booking_flow/internal/core/domain"
)

func TestSaveCalcomBooking(t *testing.T) {
	var got domain.MeetingBookingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/meetings/calcom-booking", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := backend.NewMeetingsClient(srv.URL+"/", "secret", time.Second)
	err := client.SaveCalcomBooking(context.Background(), domain.MeetingBookingRequest{
		BookingID:    "abc123",
		ScheduledAt:  "2026-03-01T10:00:00Z",
		EndTime:      "2026-03-01T10:30:00Z",
		VideoCallURL: "https://meet.example/abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "abc123", got.BookingID)
	assert.Equal(t, "https://meet.example/abc", got.VideoCallURL)
}

func TestSaveCalcomBooking_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := backend.NewMeetingsClient(srv.URL, "", time.Second)
	err := client.SaveCalcomBooking(context.Background(), domain.MeetingBookingRequest{BookingID: "abc123"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestSaveCalcomBooking_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := backend.NewMeetingsClient(srv.URL, "", 20*time.Millisecond)
	assert.Error(t, client.SaveCalcomBooking(context.Background(), domain.MeetingBookingRequest{BookingID: "abc123"}))
}
