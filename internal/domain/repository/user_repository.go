package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserPatch lists the mutable fields of a user record. Nil fields are left untouched.
type UserPatch struct {
	IsActive *bool
}

// UserRepository defines the interface for user-related storage operations.
// Emails passed in are already normalized to lowercase.
// Implementations must enforce email uniqueness and return ErrDuplicateEmail on conflict.
type UserRepository interface {
	Insert(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// ListAll returns every record with Password left empty.
	ListAll(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*entity.User, error)
}

// Maintenance is implemented by stores that support seeding, clearing and health checks.
type Maintenance interface {
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Store is a user repository with maintenance operations. All bundled adapters implement it.
type Store interface {
	UserRepository
	Maintenance
}
