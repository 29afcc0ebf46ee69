package repositories

import (
	"context"

	"github.com/PPLKelompok1-2025/lms-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string           // Search query for name or email
	Role   *models.UserRole // Restrict to one role
	Limit  int              // Page size
	Offset int              // Offset for pagination
}

// UserRepository interface for user operations. Identity lives in Casdoor;
// this table mirrors the profile fields the LMS needs for joins.
type UserRepository interface {
	// Profile sync from the identity provider
	Upsert(ctx context.Context, user *models.User) error

	// Read operations
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// List and search operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
