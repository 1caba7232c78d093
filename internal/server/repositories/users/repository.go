package users

import (
	"context"

	"github.com/rnbmx/bmxshop/internal/server/models"
)

// Repository is the credential store. Lookups return common.ErrorNotFound when
// nothing matches and common.ErrAlreadyExists on unique email/username clashes.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetRoles(ctx context.Context, id int64, roles models.RoleSet) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
