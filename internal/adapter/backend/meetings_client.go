package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/srgjo27/booking_flow/internal/core/domain"
)

const calcomBookingPath = "/api/v1/meetings/calcom-booking"

// MeetingsClient talks to the meetings API of the platform backend.
type MeetingsClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewMeetingsClient(baseURL, token string, timeout time.Duration) *MeetingsClient {
	return &MeetingsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SaveCalcomBooking records a scheduled call. Any non-2xx answer is an error.
func (c *MeetingsClient) SaveCalcomBooking(ctx context.Context, body domain.MeetingBookingRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode meeting booking: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+calcomBookingPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build meeting booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("meeting booking request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("meeting booking returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
