package services

import (
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/platform/metrics"
)

const bookingSuccessfulType = "bookingSuccessful"

// MessageListener filters messages posted by the embedded scheduling frame and
// hands booking confirmations to its subscriber.
type MessageListener struct {
	origins map[string]struct{}
	logger  *zap.Logger
	metrics *metrics.FlowMetrics

	mu      sync.Mutex
	handler func(domain.BookingRecord)
}

func NewMessageListener(allowedOrigins []string, logger *zap.Logger, m *metrics.FlowMetrics) *MessageListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins[o] = struct{}{}
		}
	}
	return &MessageListener{origins: origins, logger: logger, metrics: m}
}

// Subscribe registers the confirmation handler, replacing any previous one.
func (l *MessageListener) Subscribe(handler func(domain.BookingRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
}

func (l *MessageListener) Unsubscribe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = nil
}

// Receive processes one message event. It reports whether a booking was
// extracted and delivered; everything else is dropped silently.
func (l *MessageListener) Receive(origin string, data []byte) bool {
	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()

	if handler == nil {
		l.metrics.ObserveDroppedMessage("unsubscribed")
		return false
	}
	if _, ok := l.origins[origin]; !ok {
		l.metrics.ObserveDroppedMessage("origin")
		l.logger.Debug("dropping frame message from foreign origin", zap.String("origin", origin))
		return false
	}
	if !gjson.ValidBytes(data) {
		l.metrics.ObserveDroppedMessage("malformed")
		return false
	}

	msg := gjson.ParseBytes(data)
	if msg.Get("type").String() != bookingSuccessfulType {
		l.metrics.ObserveDroppedMessage("discriminant")
		return false
	}

	rec := bookingFromMessage(msg.Get("data"))
	if rec.BookingID == "" {
		l.metrics.ObserveDroppedMessage("missing_id")
		return false
	}

	handler(rec)
	return true
}

func bookingFromMessage(data gjson.Result) domain.BookingRecord {
	id := data.Get("uid").String()
	if id == "" {
		id = data.Get("id").String()
	}
	return domain.BookingRecord{
		BookingID:    id,
		MeetingLink:  data.Get("metadata.videoCallUrl").String(),
		StartTime:    data.Get("startTime").String(),
		EndTime:      data.Get("endTime").String(),
		AttendeeName: data.Get("attendees.0.name").String(),
		Timezone:     data.Get("timeZone").String(),
		Title:        data.Get("title").String(),
		Description:  data.Get("description").String(),
	}
}
