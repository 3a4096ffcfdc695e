package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/srgjo27/booking_flow/internal/core/domain"
	"github.com/srgjo27/booking_flow/internal/core/ports"
	"github.com/srgjo27/booking_flow/internal/platform/metrics"
)

var gateTracer = otel.Tracer("booking_flow.internal.core.services")

const (
	persistFailedMessage = "We could not save your booking. Press Complete to try again."
	persistTimeout       = 30 * time.Second
)

// PersistenceGate saves confirmed bookings to the backend exactly once per
// booking id. Concurrent callers for one id share a single backend call, and
// ids already in the ledger are never sent again.
type PersistenceGate struct {
	backend ports.MeetingBackend
	ledger  ports.ConfirmationLedger
	logger  *zap.Logger
	metrics *metrics.FlowMetrics

	group singleflight.Group
}

func NewPersistenceGate(backend ports.MeetingBackend, ledger ports.ConfirmationLedger, logger *zap.Logger, m *metrics.FlowMetrics) *PersistenceGate {
	if backend == nil {
		panic("services: meeting backend required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistenceGate{backend: backend, ledger: ledger, logger: logger, metrics: m}
}

// Persist runs the save detached from the caller's cancellation so that one
// departing caller cannot fail the save shared with the others. The gate's
// own timeout bounds it instead.
func (g *PersistenceGate) Persist(ctx context.Context, booking domain.BookingRecord, flow domain.FlowType) domain.PersistenceOutcome {
	v, _, _ := g.group.Do(booking.BookingID, func() (any, error) {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		return g.persist(saveCtx, booking, flow), nil
	})
	return v.(domain.PersistenceOutcome)
}

func (g *PersistenceGate) persist(ctx context.Context, booking domain.BookingRecord, flow domain.FlowType) domain.PersistenceOutcome {
	ctx, span := gateTracer.Start(ctx, "persistence_gate.persist")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", booking.BookingID),
		attribute.String("booking.flow", string(flow)),
		attribute.String("booking.source", string(booking.Source)),
	)

	log := g.logger.With(zap.String("booking_id", booking.BookingID), zap.String("flow", string(flow)))

	if g.ledger != nil {
		done, err := g.ledger.IsPersisted(ctx, booking.BookingID)
		if err != nil {
			// Lookup failures fall through to the backend.
			log.Warn("ledger lookup failed", zap.Error(err))
		} else if done {
			log.Info("booking already persisted")
			g.metrics.ObservePersistence("duplicate", 0)
			return domain.PersistenceOutcome{Attempted: true, Succeeded: true}
		}
	}

	start := time.Now()
	err := g.backend.SaveCalcomBooking(ctx, domain.NewMeetingBookingRequest(booking))
	elapsed := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend save failed")
		g.metrics.ObservePersistence("failure", elapsed)
		log.Error("booking persistence failed", zap.Error(err))
		return domain.PersistenceOutcome{Attempted: true, ErrorMessage: persistFailedMessage}
	}
	g.metrics.ObservePersistence("success", elapsed)

	if g.ledger != nil {
		if err := g.ledger.RecordPersisted(ctx, booking, flow); err != nil {
			log.Warn("ledger record failed", zap.Error(err))
		}
	}

	log.Info("booking persisted")
	return domain.PersistenceOutcome{Attempted: true, Succeeded: true}
}
