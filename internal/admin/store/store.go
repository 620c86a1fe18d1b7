// Package store persists the administrator roster.
package store

import (
	"context"

	"sigil/internal/admin/models"
)

// Store is the administrator roster. Implementations must reject duplicate
// admin IDs on Create and report sentinel.ErrNotFound for unknown IDs.
type Store interface {
	Create(ctx context.Context, admin models.Admin) error
	FindByAdminID(ctx context.Context, adminID string) (models.Admin, error)
	Delete(ctx context.Context, adminID string) error
	ListAll(ctx context.Context) ([]models.Admin, error)
}
