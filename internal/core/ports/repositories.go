package ports

import (
	"context"
	"time"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

// UnsafeLocationRepository persists reported unsafe locations.
type UnsafeLocationRepository interface {
	// List returns every location, newest first.
	List(ctx context.Context) ([]domain.UnsafeLocation, error)
	// ListSince returns locations created at or after since, newest first.
	ListSince(ctx context.Context, since time.Time) ([]domain.UnsafeLocation, error)
	GetByID(ctx context.Context, id string) (*domain.UnsafeLocation, error)
	// Create stores loc and fills in its ID and timestamps.
	Create(ctx context.Context, loc *domain.UnsafeLocation) error
	CreateBatch(ctx context.Context, locs []domain.UnsafeLocation) (int, error)
	// FindWithin returns unsafe-status locations inside the box.
	FindWithin(ctx context.Context, box domain.Bounds) ([]domain.UnsafeLocation, error)
	SetIPFSHash(ctx context.Context, id, hash string) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Create stores u; it returns domain.ErrUserExists on a username or email clash.
	Create(ctx context.Context, u *domain.User) error
	Exists(ctx context.Context, username, emailHash string) (bool, error)
	FindByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
