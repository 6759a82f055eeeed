package postgres

import (
	"context"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

// UserRepo implements ports.UserRepository with pgx.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts u. A username or email clash yields domain.ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email_hash, ipfs_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, u.Username, u.EmailHash, u.IPFSHash).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *UserRepo) Exists(ctx context.Context, username, emailHash string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email_hash = $2)
	`, username, emailHash).Scan(&exists)
	return exists, err
}

func (r *UserRepo) FindByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	return r.one(ctx, `WHERE email_hash = $1`, emailHash)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) one(ctx context.Context, where string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, username, email_hash, ipfs_hash, created_at, updated_at FROM users `+where, arg).
		Scan(&u.ID, &u.Username, &u.EmailHash, &u.IPFSHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
