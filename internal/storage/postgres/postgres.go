package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"booking-service/internal/models"
	"booking-service/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS availability (
	specialist_email TEXT NOT NULL,
	month            TEXT NOT NULL,
	date             TEXT NOT NULL,
	start_time       TEXT NOT NULL,
	end_time         TEXT NOT NULL,
	interval_minutes INTEGER NOT NULL CHECK (interval_minutes > 0),
	break_timings    TEXT[] NOT NULL DEFAULT '{}',
	version          BIGINT NOT NULL DEFAULT 1,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (specialist_email, date)
);
CREATE INDEX IF NOT EXISTS availability_month_idx ON availability (specialist_email, month);

CREATE TABLE IF NOT EXISTS appointment_records (
	id               UUID PRIMARY KEY,
	user_email       TEXT NOT NULL,
	specialist_email TEXT NOT NULL,
	UNIQUE (user_email, specialist_email)
);

CREATE TABLE IF NOT EXISTS appointment_details (
	id               UUID PRIMARY KEY,
	record_id        UUID NOT NULL REFERENCES appointment_records (id),
	specialist_email TEXT NOT NULL,
	date             TEXT NOT NULL,
	slot_time        TEXT NOT NULL,
	status           TEXT NOT NULL CHECK (status IN ('Upcoming', 'Completed', 'Cancelled')),
	user_comments    TEXT NOT NULL DEFAULT '',
	specialist_notes TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS appointment_details_live_slot
	ON appointment_details (specialist_email, date, slot_time)
	WHERE status <> 'Cancelled';

CREATE TABLE IF NOT EXISTS profiles (
	email        TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	contact      TEXT NOT NULL DEFAULT ''
);
`

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### availability ####

func (s *Storage) SetAvailability(ctx context.Context, specialist, month string, entries []models.AvailabilityEntry) error {
	const op = "storage.postgres.SetAvailability"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO availability
			(specialist_email, month, date, start_time, end_time, interval_minutes, break_timings)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (specialist_email, date)
			DO UPDATE
			SET month = EXCLUDED.month,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				interval_minutes = EXCLUDED.interval_minutes,
				break_timings = EXCLUDED.break_timings,
				version = availability.version + 1,
				updated_at = now()`,
			specialist,
			month,
			e.Date,
			e.Start.String(),
			e.End.String(),
			e.Interval,
			pq.Array(encodeBreaks(e.Breaks)),
		)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", op, e.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) GetAvailability(ctx context.Context, specialist, month string) ([]models.AvailabilityEntry, error) {
	const op = "storage.postgres.GetAvailability"

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, start_time, end_time, interval_minutes, break_timings, version, updated_at
		FROM availability
		WHERE specialist_email=$1 AND month=$2
		ORDER BY date`, specialist, month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	out := make([]models.AvailabilityEntry, 0)
	for rows.Next() {
		e, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Storage) GetAvailabilityForDate(ctx context.Context, specialist, date string) (*models.AvailabilityEntry, error) {
	const op = "storage.postgres.GetAvailabilityForDate"

	row := s.db.QueryRowContext(ctx,
		`SELECT date, start_time, end_time, interval_minutes, break_timings, version, updated_at
		FROM availability
		WHERE specialist_email=$1 AND date=$2`, specialist, date)

	e, err := scanAvailability(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAvailability(row scanner) (*models.AvailabilityEntry, error) {
	var (
		e            models.AvailabilityEntry
		start, end   string
		breakTimings []string
	)

	err := row.Scan(
		&e.Date,
		&start,
		&end,
		&e.Interval,
		pq.Array(&breakTimings),
		&e.Version,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.Start, err = models.ParseClock(start); err != nil {
		return nil, fmt.Errorf("start_time %q: %w", start, err)
	}
	if e.End, err = models.ParseClock(end); err != nil {
		return nil, fmt.Errorf("end_time %q: %w", end, err)
	}
	if e.Breaks, err = decodeBreaks(breakTimings); err != nil {
		return nil, err
	}

	return &e, nil
}

// Breaks are stored as "HH:MM-HH:MM" array elements.
func encodeBreaks(breaks []models.Break) []string {
	out := make([]string, 0, len(breaks))
	for _, b := range breaks {
		out = append(out, b.Start.String()+"-"+b.End.String())
	}
	return out
}

func decodeBreaks(raw []string) ([]models.Break, error) {
	out := make([]models.Break, 0, len(raw))
	for _, r := range raw {
		from, to, ok := strings.Cut(r, "-")
		if !ok {
			return nil, fmt.Errorf("break %q: missing separator", r)
		}

		start, err := models.ParseClock(from)
		if err != nil {
			return nil, fmt.Errorf("break %q: %w", r, err)
		}
		end, err := models.ParseClock(to)
		if err != nil {
			return nil, fmt.Errorf("break %q: %w", r, err)
		}

		out = append(out, models.Break{Start: start, End: end})
	}
	return out, nil
}

// #### ledger ####

// Reserve relies on the partial unique index over live details: of two
// concurrent inserts for the same slot exactly one commits.
func (s *Storage) Reserve(ctx context.Context, user, specialist, date string, t models.Clock, comments string) (*models.AppointmentDetail, error) {
	const op = "storage.postgres.Reserve"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var recordID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO appointment_records (id, user_email, specialist_email)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email, specialist_email)
		DO UPDATE SET user_email = EXCLUDED.user_email
		RETURNING id`,
		uuid.New(), user, specialist,
	).Scan(&recordID)
	if err != nil {
		return nil, fmt.Errorf("%s: upsert record: %w", op, err)
	}

	detail := models.AppointmentDetail{
		ID:           uuid.New(),
		Date:         date,
		Time:         t,
		Status:       models.StatusUpcoming,
		UserComments: comments,
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO appointment_details
		(id, record_id, specialist_email, date, slot_time, status, user_comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		detail.ID,
		recordID,
		specialist,
		date,
		t.String(),
		string(detail.Status),
		comments,
	).Scan(&detail.CreatedAt, &detail.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return nil, fmt.Errorf("%s: insert detail: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return &detail, nil
}

func (s *Storage) SetStatus(ctx context.Context, user, specialist, date string, t models.Clock, to models.Status, note string) (*models.AppointmentDetail, error) {
	const op = "storage.postgres.SetStatus"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var (
		id      uuid.UUID
		current string
	)

	// The live detail wins; otherwise the latest terminal one is reported.
	err = tx.QueryRowContext(ctx,
		`SELECT d.id, d.status
		FROM appointment_details d
		JOIN appointment_records r ON r.id = d.record_id
		WHERE r.user_email=$1 AND r.specialist_email=$2 AND d.date=$3 AND d.slot_time=$4
		ORDER BY (d.status <> 'Cancelled') DESC, d.created_at DESC
		LIMIT 1
		FOR UPDATE OF d`,
		user, specialist, date, t.String(),
	).Scan(&id, &current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from, ok := models.ParseStatus(current)
	if !ok {
		return nil, fmt.Errorf("%s: unknown stored status %q", op, current)
	}
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, from, to, response.ErrInvalidTransition)
	}

	var notes sql.NullString
	if to == models.StatusCompleted {
		notes = sql.NullString{String: note, Valid: true}
	}

	detail := models.AppointmentDetail{ID: id, Date: date, Time: t, Status: to}

	err = tx.QueryRowContext(ctx,
		`UPDATE appointment_details
		SET status=$1, specialist_notes=COALESCE($2, specialist_notes), updated_at=now()
		WHERE id=$3 AND status=$4
		RETURNING user_comments, specialist_notes, created_at, updated_at`,
		string(to), notes, id, string(from),
	).Scan(&detail.UserComments, &detail.SpecialistNotes, &detail.CreatedAt, &detail.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return &detail, nil
}

func (s *Storage) ListByUser(ctx context.Context, user string) ([]models.AppointmentRecord, error) {
	const op = "storage.postgres.ListByUser"

	recs, err := s.listRecords(ctx, "r.user_email=$1", user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recs, nil
}

func (s *Storage) ListBySpecialist(ctx context.Context, specialist string) ([]models.AppointmentRecord, error) {
	const op = "storage.postgres.ListBySpecialist"

	recs, err := s.listRecords(ctx, "r.specialist_email=$1", specialist)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recs, nil
}

func (s *Storage) listRecords(ctx context.Context, where string, arg string) ([]models.AppointmentRecord, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.user_email, r.specialist_email,
			d.id, d.date, d.slot_time, d.status, d.user_comments, d.specialist_notes, d.created_at, d.updated_at
		FROM appointment_records r
		JOIN appointment_details d ON d.record_id = r.id
		WHERE %s
		ORDER BY r.user_email, r.specialist_email, d.date, d.slot_time, d.created_at`,
		where,
	)

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]models.AppointmentRecord, 0)
	for rows.Next() {
		var (
			rec    models.AppointmentRecord
			d      models.AppointmentDetail
			clock  string
			status string
		)

		err := rows.Scan(
			&rec.ID,
			&rec.UserEmail,
			&rec.SpecialistEmail,
			&d.ID,
			&d.Date,
			&clock,
			&status,
			&d.UserComments,
			&d.SpecialistNotes,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if d.Time, err = models.ParseClock(clock); err != nil {
			return nil, fmt.Errorf("detail %s time %q: %w", d.ID, clock, err)
		}

		st, ok := models.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("detail %s: unknown status %q", d.ID, status)
		}
		d.Status = st

		if n := len(out); n > 0 && out[n-1].ID == rec.ID {
			out[n-1].Details = append(out[n-1].Details, d)
			continue
		}

		rec.Details = []models.AppointmentDetail{d}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Storage) BookedTimes(ctx context.Context, specialist, date string) (map[models.Clock]struct{}, error) {
	const op = "storage.postgres.BookedTimes"

	rows, err := s.db.QueryContext(ctx,
		`SELECT slot_time FROM appointment_details
		WHERE specialist_email=$1 AND date=$2 AND status <> 'Cancelled'`, specialist, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	out := make(map[models.Clock]struct{})
	for rows.Next() {
		var clock string
		if err := rows.Scan(&clock); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		t, err := models.ParseClock(clock)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[t] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// #### profiles ####

// Profile reads display data maintained by the profile service.
func (s *Storage) Profile(ctx context.Context, email string) (*models.Profile, error) {
	const op = "storage.postgres.Profile"

	p := models.Profile{Email: email}

	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, contact FROM profiles WHERE email=$1`, email).
		Scan(&p.DisplayName, &p.Contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}
