package sqlstore

import (
	"context"
	"database/sql"

	"github.com/example/lab-booking/internal/persistence"
)

const fixedScheduleColumns = `id, room_id, weekday, periods, valid_from, valid_until, description, created_by, created_at, updated_at`

// CreateFixedSchedule inserts a weekly recurring occupancy.
func (s *Store) CreateFixedSchedule(ctx context.Context, schedule persistence.FixedSchedule) error {
	if err := validateFixedSchedule(schedule); err != nil {
		return err
	}
	now := s.timestamp()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		if err := roomExists(ctx, tx, schedule.RoomID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fixed_schedules (`+fixedScheduleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			schedule.ID,
			schedule.RoomID,
			int(schedule.Weekday),
			encodePeriods(schedule.Periods),
			schedule.ValidFrom.String(),
			schedule.ValidUntil.String(),
			schedule.Description,
			schedule.CreatedBy,
			formatTime(schedule.CreatedAt),
			formatTime(schedule.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdateFixedSchedule replaces the mutable fields of an existing schedule.
func (s *Store) UpdateFixedSchedule(ctx context.Context, schedule persistence.FixedSchedule) error {
	if err := validateFixedSchedule(schedule); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE fixed_schedules
		SET weekday = ?, periods = ?, valid_from = ?, valid_until = ?, description = ?, updated_at = ?
		WHERE id = ? AND room_id = ?`,
		int(schedule.Weekday),
		encodePeriods(schedule.Periods),
		schedule.ValidFrom.String(),
		schedule.ValidUntil.String(),
		schedule.Description,
		formatTime(s.timestamp()),
		schedule.ID,
		schedule.RoomID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// GetFixedSchedule loads a schedule by id.
func (s *Store) GetFixedSchedule(ctx context.Context, id string) (persistence.FixedSchedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fixedScheduleColumns+` FROM fixed_schedules WHERE id = ?`, id)
	schedule, err := scanFixedSchedule(row)
	if err != nil {
		return persistence.FixedSchedule{}, mapError(err)
	}
	return schedule, nil
}

// ListFixedSchedules returns the schedules of a room, or of every room when roomID is empty.
func (s *Store) ListFixedSchedules(ctx context.Context, roomID string) ([]persistence.FixedSchedule, error) {
	return listFixedSchedules(ctx, s.db, roomID)
}

// DeleteFixedSchedule removes a schedule.
func (s *Store) DeleteFixedSchedule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fixed_schedules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func listFixedSchedules(ctx context.Context, q querier, roomID string) ([]persistence.FixedSchedule, error) {
	query := `SELECT ` + fixedScheduleColumns + ` FROM fixed_schedules`
	var args []any
	if roomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	query += ` ORDER BY room_id, weekday, valid_from, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	schedules := make([]persistence.FixedSchedule, 0)
	for rows.Next() {
		schedule, err := scanFixedSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return schedules, nil
}

func scanFixedSchedule(row rowScanner) (persistence.FixedSchedule, error) {
	var (
		schedule   persistence.FixedSchedule
		weekday    int
		periods    string
		validFrom  string
		validUntil string
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(
		&schedule.ID,
		&schedule.RoomID,
		&weekday,
		&periods,
		&validFrom,
		&validUntil,
		&schedule.Description,
		&schedule.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.FixedSchedule{}, err
	}

	var err error
	if schedule.Weekday, err = decodeWeekday(weekday); err != nil {
		return persistence.FixedSchedule{}, err
	}
	if schedule.Periods, err = decodePeriods(periods); err != nil {
		return persistence.FixedSchedule{}, err
	}
	if schedule.ValidFrom, err = decodeDate(validFrom); err != nil {
		return persistence.FixedSchedule{}, err
	}
	if schedule.ValidUntil, err = decodeDate(validUntil); err != nil {
		return persistence.FixedSchedule{}, err
	}
	if schedule.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.FixedSchedule{}, err
	}
	if schedule.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.FixedSchedule{}, err
	}
	return schedule, nil
}

func validateFixedSchedule(schedule persistence.FixedSchedule) error {
	switch {
	case schedule.ID == "", schedule.RoomID == "":
		return persistence.ErrConstraintViolation
	case !schedule.Weekday.Valid():
		return persistence.ErrConstraintViolation
	case schedule.Periods.IsEmpty():
		return persistence.ErrConstraintViolation
	case schedule.ValidFrom.IsZero(), schedule.ValidUntil.IsZero():
		return persistence.ErrConstraintViolation
	case schedule.ValidUntil.Before(schedule.ValidFrom):
		return persistence.ErrConstraintViolation
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
