package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance.service/internal/config"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/repository"
	"attendance.service/pkg/database"
	"github.com/rs/zerolog/log"
)

// Deps are the storage-side dependencies shared by the API and the workers.
type Deps struct {
	DB        *sql.DB
	Store     repository.AttendanceStore
	Directory directory.UserDirectory
}

// Open selects the attendance store and user directory from cfg. The
// Postgres store is migrated and wrapped with the index retry policy.
func Open(ctx context.Context, cfg config.Config) (*Deps, error) {
	deps := &Deps{}

	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("Using in-memory attendance store; records are lost on restart")
		deps.Store = repository.NewMemory()
	case "postgres", "":
		db, err := database.NewInstrumentedConnection(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Msg("Successfully connected to the database.")
		deps.DB = db
		deps.Store = repository.NewRetrying(
			repository.NewAttendanceRepository(db, cfg.StoreTimeout),
			cfg.IndexRetryAttempts,
			cfg.IndexRetryInterval,
		)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch {
	case cfg.DirectoryURL != "":
		deps.Directory = directory.NewHTTPDirectory(cfg.DirectoryURL)
	case deps.DB != nil:
		deps.Directory = directory.NewPostgresDirectory(deps.DB, cfg.StoreTimeout)
	default:
		return nil, errors.New("DIRECTORY_URL is required when STORE_DRIVER is memory")
	}

	return deps, nil
}

// OpenDirectory opens only the user directory, for processes that never touch
// attendance records. The Postgres directory connects without migrating; the
// API owns the schema.
func OpenDirectory(cfg config.Config) (*Deps, error) {
	if cfg.DirectoryURL != "" {
		return &Deps{Directory: directory.NewHTTPDirectory(cfg.DirectoryURL)}, nil
	}
	if cfg.StoreDriver == "memory" {
		return nil, errors.New("DIRECTORY_URL is required when STORE_DRIVER is memory")
	}

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Successfully connected to the employee directory database.")
	return &Deps{
		DB:        db,
		Directory: directory.NewPostgresDirectory(db, cfg.StoreTimeout),
	}, nil
}

func (d *Deps) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
