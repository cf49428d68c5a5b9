// Package directory reads employees from the user directory that owns them.
package directory

import (
	"context"

	"attendance.service/internal/core/model"
)

// UserDirectory is read-only. Get returns model.ErrUserNotFound for unknown ids.
type UserDirectory interface {
	ListAll(ctx context.Context) ([]model.Employee, error)
	Get(ctx context.Context, id string) (*model.Employee, error)
}
