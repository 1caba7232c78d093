package roles

import (
	"context"

	"github.com/rnbmx/bmxshop/internal/server/models"
)

type Repository interface {
	EnsureSeeded(ctx context.Context, roles []models.Role) error
	List(ctx context.Context) ([]models.Role, error)
}
