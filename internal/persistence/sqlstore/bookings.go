package sqlstore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/example/lab-booking/internal/persistence"
	"github.com/example/lab-booking/internal/scheduler"
)

const bookingColumns = `id, room_id, requester_id, booking_date, periods, status, description, decided_by, decided_at, created_at, updated_at`

// pendingSlot is the value of the unique pending_slot column. Only pending
// requests carry one, so the index rejects two identical pending requests
// while leaving decided requests unconstrained. The key is a BLAKE2b-256
// digest of the length-prefixed requester, room, date and periods, so no
// field content can make two different requests share a key.
func pendingSlot(b persistence.Booking) sql.NullString {
	if b.Status != scheduler.StatusPending {
		return sql.NullString{}
	}
	h, _ := blake2b.New256(nil)
	for _, field := range []string{b.RequesterID, b.RoomID, b.Date.String(), encodePeriods(b.Periods)} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	return sql.NullString{String: hex.EncodeToString(h.Sum(nil)), Valid: true}
}

// CreateBooking inserts a booking request. Approved bookings are checked
// against the room's occupancy inside the same transaction.
func (s *Store) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	switch {
	case booking.ID == "", booking.RoomID == "", booking.RequesterID == "":
		return persistence.ErrConstraintViolation
	case booking.Date.IsZero(), booking.Periods.IsEmpty(), !booking.Status.Valid():
		return persistence.ErrConstraintViolation
	}
	now := s.timestamp()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if err := roomExists(ctx, tx, booking.RoomID); err != nil {
			return err
		}
		if err := s.lockRoom(ctx, tx, booking.RoomID); err != nil {
			return err
		}
		if booking.Status == scheduler.StatusApproved {
			if err := ensureFree(ctx, tx, booking); err != nil {
				return err
			}
		}

		var decidedAt sql.NullString
		if booking.DecidedAt != nil {
			decidedAt = sql.NullString{String: formatTime(*booking.DecidedAt), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (`+bookingColumns+`, pending_slot) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			booking.ID,
			booking.RoomID,
			booking.RequesterID,
			booking.Date.String(),
			encodePeriods(booking.Periods),
			string(booking.Status),
			booking.Description,
			nullString(booking.DecidedBy),
			decidedAt,
			formatTime(booking.CreatedAt),
			formatTime(booking.UpdatedAt),
			pendingSlot(booking),
		)
		return mapError(err)
	})
}

// GetBooking loads a booking by id.
func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	return getBooking(ctx, s.db, id)
}

// ListBookings returns bookings matching filter ordered by date then creation.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	return listBookings(ctx, s.db, filter, "")
}

// TransitionBooking moves a booking from t.From to t.To. The change
// fails with persistence.ErrStaleState when the stored status differs from
// From, and with persistence.ErrConflict when RequireFree is set and the
// booking's periods are no longer free.
func (s *Store) TransitionBooking(ctx context.Context, t persistence.BookingTransition) (persistence.Booking, error) {
	if t.ID == "" || !t.From.Valid() || !t.To.Valid() {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}

	var updated persistence.Booking
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		current, err := getBooking(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if current.Status != t.From {
			return fmt.Errorf("booking %s is %s: %w", t.ID, current.Status, persistence.ErrStaleState)
		}
		if err := s.lockRoom(ctx, tx, current.RoomID); err != nil {
			return err
		}
		if t.RequireFree {
			if err := ensureFree(ctx, tx, current); err != nil {
				return err
			}
		}

		decidedAt := t.DecidedAt
		if decidedAt.IsZero() {
			decidedAt = s.timestamp()
		}
		decidedAt = decidedAt.UTC()
		now := s.timestamp()

		res, err := tx.ExecContext(ctx,
			`UPDATE bookings
			SET status = ?, pending_slot = NULL, decided_by = ?, decided_at = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			string(t.To),
			nullString(t.DecidedBy),
			formatTime(decidedAt),
			formatTime(now),
			t.ID,
			string(t.From),
		)
		if err != nil {
			return mapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if n == 0 {
			return persistence.ErrStaleState
		}

		updated = current
		updated.Status = t.To
		updated.DecidedBy = t.DecidedBy
		updated.DecidedAt = &decidedAt
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return updated, nil
}

// ensureFree fails with persistence.ErrConflict when a fixed schedule or a
// different approved booking already occupies one of b's periods.
func ensureFree(ctx context.Context, q querier, b persistence.Booking) error {
	schedules, err := listFixedSchedules(ctx, q, b.RoomID)
	if err != nil {
		return err
	}
	approved, err := listBookings(ctx, q, persistence.BookingFilter{
		RoomID: b.RoomID,
		Date:   b.Date,
		Status: scheduler.StatusApproved,
	}, b.ID)
	if err != nil {
		return err
	}

	occupied := scheduler.OccupiedByFixedSchedules(persistence.EngineFixedSchedules(schedules), b.RoomID, b.Date).
		Union(scheduler.OccupiedByApprovedBookings(persistence.EngineBookings(approved), b.RoomID, b.Date))
	if clash := occupied.Intersect(b.Periods); !clash.IsEmpty() {
		return fmt.Errorf("periods %s of room %s on %s: %w", clash, b.RoomID, b.Date, persistence.ErrConflict)
	}
	return nil
}

func getBooking(ctx context.Context, q querier, id string) (persistence.Booking, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return booking, nil
}

func listBookings(ctx context.Context, q querier, filter persistence.BookingFilter, excludeID string) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.RequesterID != "" {
		clauses = append(clauses, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if !filter.Date.IsZero() {
		clauses = append(clauses, "booking_date = ?")
		args = append(args, filter.Date.String())
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "booking_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "booking_date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if excludeID != "" {
		clauses = append(clauses, "id <> ?")
		args = append(args, excludeID)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY booking_date, created_at, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking   persistence.Booking
		date      string
		periods   string
		status    string
		decidedBy sql.NullString
		decidedAt sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.RequesterID,
		&date,
		&periods,
		&status,
		&booking.Description,
		&decidedBy,
		&decidedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, err
	}

	var err error
	if booking.Date, err = decodeDate(date); err != nil {
		return persistence.Booking{}, err
	}
	if booking.Periods, err = decodePeriods(periods); err != nil {
		return persistence.Booking{}, err
	}
	booking.Status = scheduler.Status(status)
	if !booking.Status.Valid() {
		return persistence.Booking{}, fmt.Errorf("sqlstore: decode status %q: %w", status, persistence.ErrConstraintViolation)
	}
	booking.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		at, err := parseTime(decidedAt.String)
		if err != nil {
			return persistence.Booking{}, err
		}
		booking.DecidedAt = &at
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
