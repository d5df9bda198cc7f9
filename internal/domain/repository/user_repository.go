package repository

import (
	"context"

	"github.com/altairlabs/user-management-api/internal/domain/entity"
)

// UserRepository defines the interface for user persistence. Every method may
// block on store I/O; lookups for a missing record return a NotFound domain
// error and unique-constraint violations surface as Conflict.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context, skip, limit int) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}
