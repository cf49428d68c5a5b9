package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/database"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const recordColumns = `id, user_id, date, in_time, out_time, status, overtime`

// AttendanceRepository is the PostgreSQL implementation of AttendanceStore.
// One record per user and day is guaranteed by the attendance_user_day_idx
// unique index; inserts that lose a race come back as ErrDuplicateRecord.
type AttendanceRepository struct {
	DB      *sql.DB
	timeout time.Duration
}

// NewAttendanceRepository create new instance. Every call is bounded by timeout.
func NewAttendanceRepository(db *sql.DB, timeout time.Duration) *AttendanceRepository {
	return &AttendanceRepository{DB: db, timeout: timeout}
}

func (r *AttendanceRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// FindByUserAndDay returns the record for a user on a calendar day, or nil.
func (r *AttendanceRepository) FindByUserAndDay(ctx context.Context, userID string, day model.Day) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", userID))

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE user_id = $1 AND date = $2::date`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, userID, day.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance for %s on %s: %w", userID, day, database.ClassifyError(err))
	}
	return rec, nil
}

// FindAllByDay lists every record of a calendar day.
func (r *AttendanceRepository) FindAllByDay(ctx context.Context, day model.Day) ([]model.AttendanceRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE date = $1::date
              ORDER BY user_id`

	records, err := r.queryRecords(ctx, query, day.String())
	if err != nil {
		return nil, fmt.Errorf("list attendance on %s: %w", day, err)
	}
	return records, nil
}

// FindRange lists records between start and end inclusive, newest day first.
func (r *AttendanceRepository) FindRange(ctx context.Context, userID string, start, end model.Day) ([]model.AttendanceRecord, error) {
	if userID != "" {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", userID))
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE ($1 = '' OR user_id = $1)
                AND date >= $2::date AND date <= $3::date
              ORDER BY date DESC, user_id`

	records, err := r.queryRecords(ctx, query, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list attendance from %s to %s: %w", start, end, err)
	}
	return records, nil
}

// Create inserts a record under a fresh id.
func (r *AttendanceRepository) Create(ctx context.Context, record model.AttendanceRecord) (string, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.userId", record.UserID))

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	id := uuid.NewString()
	query := `INSERT INTO attendance_records (id, user_id, date, in_time, out_time, status, overtime)
              VALUES ($1, $2, $3::date, $4, $5, $6, $7)
              ON CONFLICT (user_id, date) DO NOTHING
              RETURNING id`

	err := r.DB.QueryRowContext(ctx, query,
		id, record.UserID, record.Date.String(),
		nullTime(record.InTime), nullTime(record.OutTime),
		string(record.Status), record.Overtime,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrDuplicateRecord
	}
	if err != nil {
		return "", fmt.Errorf("create attendance for %s on %s: %w", record.UserID, record.Date, database.ClassifyError(err))
	}
	return id, nil
}

// Update applies the check-out patch. Only an open record is updated; a
// record that already has an out time comes back as ErrRecordClosed.
func (r *AttendanceRepository) Update(ctx context.Context, id string, patch model.Patch) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE attendance_records
              SET out_time = $1,
                  overtime = $2
              WHERE id = $3 AND out_time IS NULL`

	res, err := r.DB.ExecContext(ctx, query, patch.OutTime, patch.Overtime, id)
	if err != nil {
		return fmt.Errorf("update attendance %s: %w", id, database.ClassifyError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendance %s: %w", id, database.ClassifyError(err))
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_records WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("update attendance %s: %w", id, database.ClassifyError(err))
	}
	if exists {
		return model.ErrRecordClosed
	}
	return model.ErrNotFound
}

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, database.ClassifyError(err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, database.ClassifyError(err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.AttendanceRecord, error) {
	var (
		rec     model.AttendanceRecord
		date    time.Time
		inTime  sql.NullTime
		outTime sql.NullTime
		status  string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &date, &inTime, &outTime, &status, &rec.Overtime); err != nil {
		return nil, err
	}
	rec.Date = model.DayOf(date)
	rec.Status = model.Status(status)
	if inTime.Valid {
		t := inTime.Time
		rec.InTime = &t
	}
	if outTime.Valid {
		t := outTime.Time
		rec.OutTime = &t
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
