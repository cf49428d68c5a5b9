package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/database"
)

// PostgresDirectory reads active employees from the employees table.
// Connection failures surface as model.ErrUnavailable.
type PostgresDirectory struct {
	DB      *sql.DB
	timeout time.Duration
}

// NewPostgresDirectory bounds every query by timeout; zero means no bound.
func NewPostgresDirectory(db *sql.DB, timeout time.Duration) *PostgresDirectory {
	return &PostgresDirectory{DB: db, timeout: timeout}
}

func (d *PostgresDirectory) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

// classify also reports a query cut short by the directory timeout as
// unavailable, whatever error the driver returned for it.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, model.ErrUnavailable) {
		return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}
	return database.ClassifyError(err)
}

func (d *PostgresDirectory) ListAll(ctx context.Context) ([]model.Employee, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, email, name, is_manager
              FROM employees
              WHERE active
              ORDER BY id`

	rows, err := d.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", classify(ctx, err))
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Email, &e.Name, &e.IsManager); err != nil {
			return nil, fmt.Errorf("scan employee: %w", classify(ctx, err))
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", classify(ctx, err))
	}
	return employees, nil
}

func (d *PostgresDirectory) Get(ctx context.Context, id string) (*model.Employee, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, email, name, is_manager FROM employees WHERE id = $1 AND active`

	var e model.Employee
	err := d.DB.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Email, &e.Name, &e.IsManager)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee %s: %w", id, classify(ctx, err))
	}
	return &e, nil
}
