package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"attendance.service/internal/core/model"
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassifyError maps driver errors onto the store error taxonomy. Errors it
// does not recognise are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// object_not_in_prerequisite_state, cannot_connect_now
		case pgErr.Code == "55000" || pgErr.Code == "57P03":
			return fmt.Errorf("%w: %w", model.ErrIndexNotReady, err)
		// connection_exception class, too_many_connections, admin_shutdown
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08", pgErr.Code == "53300", pgErr.Code == "57P01":
			return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &connErr),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", model.ErrUnavailable, err)
	}
	return err
}
