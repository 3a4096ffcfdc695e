package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/srgjo27/booking_flow/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS booking_confirmations (
	booking_id     TEXT PRIMARY KEY,
	flow_type      TEXT NOT NULL,
	source_channel TEXT NOT NULL,
	scheduled_at   TEXT NOT NULL DEFAULT '',
	end_time       TEXT NOT NULL DEFAULT '',
	meeting_link   TEXT NOT NULL DEFAULT '',
	attendee_name  TEXT NOT NULL DEFAULT '',
	persisted_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`

// ConfirmationRepository is the ledger of bookings already saved to the backend.
type ConfirmationRepository struct {
	db *sql.DB
}

func NewConfirmationRepository(db *sql.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

func (r *ConfirmationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create booking_confirmations: %w", err)
	}
	return nil
}

func (r *ConfirmationRepository) IsPersisted(ctx context.Context, bookingID string) (bool, error) {
	query := `
	SELECT 1 FROM booking_confirmations
	WHERE booking_id = $1
	`

	var one int
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up booking %s: %w", bookingID, err)
	}

	return true, nil
}

// RecordPersisted is idempotent; a second record for the same id is a no-op.
func (r *ConfirmationRepository) RecordPersisted(ctx context.Context, booking domain.BookingRecord, flow domain.FlowType) error {
	query := `
	INSERT INTO booking_confirmations (booking_id, flow_type, source_channel, scheduled_at, end_time, meeting_link, attendee_name)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (booking_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		booking.BookingID,
		string(flow),
		string(booking.Source),
		booking.StartTime,
		booking.EndTime,
		booking.MeetingLink,
		booking.AttendeeName,
	)
	if err != nil {
		return fmt.Errorf("failed to record booking %s: %w", booking.BookingID, err)
	}

	return nil
}
