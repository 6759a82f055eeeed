package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

const unsafeColumns = `id, lat, lng, status, COALESCE(ipfs_hash, ''), created_at, updated_at`

// UnsafeLocationRepo implements ports.UnsafeLocationRepository with pgx.
type UnsafeLocationRepo struct {
	db *DB
}

// NewUnsafeLocationRepo creates a new UnsafeLocationRepo.
func NewUnsafeLocationRepo(db *DB) *UnsafeLocationRepo {
	return &UnsafeLocationRepo{db: db}
}

func (r *UnsafeLocationRepo) List(ctx context.Context) ([]domain.UnsafeLocation, error) {
	return r.query(ctx, `SELECT `+unsafeColumns+` FROM unsafe_locations ORDER BY created_at DESC`)
}

func (r *UnsafeLocationRepo) ListSince(ctx context.Context, since time.Time) ([]domain.UnsafeLocation, error) {
	return r.query(ctx, `
		SELECT `+unsafeColumns+` FROM unsafe_locations
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`, since)
}

func (r *UnsafeLocationRepo) GetByID(ctx context.Context, id string) (*domain.UnsafeLocation, error) {
	var l domain.UnsafeLocation
	err := r.db.Pool.QueryRow(ctx, `SELECT `+unsafeColumns+` FROM unsafe_locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Lat, &l.Lng, &l.Status, &l.IPFSHash, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// Create inserts loc and fills in the generated ID and timestamps.
func (r *UnsafeLocationRepo) Create(ctx context.Context, loc *domain.UnsafeLocation) error {
	if loc.Status == "" {
		loc.Status = domain.StatusUnsafe
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO unsafe_locations (lat, lng, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, loc.Lat, loc.Lng, loc.Status).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
}

// CreateBatch inserts many locations using pgx.Batch and returns how many were stored.
func (r *UnsafeLocationRepo) CreateBatch(ctx context.Context, locs []domain.UnsafeLocation) (int, error) {
	batch := &pgx.Batch{}
	for _, l := range locs {
		status := l.Status
		if status == "" {
			status = domain.StatusUnsafe
		}
		batch.Queue(`
			INSERT INTO unsafe_locations (lat, lng, status, created_at, updated_at)
			VALUES ($1, $2, $3, COALESCE($4, now()), COALESCE($4, now()))
		`, l.Lat, l.Lng, status, nullTime(l.CreatedAt))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	n := 0
	for range locs {
		if _, err := br.Exec(); err != nil {
			return n, fmt.Errorf("batch exec: %w", err)
		}
		n++
	}
	return n, nil
}

// FindWithin returns unsafe-status locations inside box. A box with
// West > East wraps across the antimeridian.
func (r *UnsafeLocationRepo) FindWithin(ctx context.Context, box domain.Bounds) ([]domain.UnsafeLocation, error) {
	return r.query(ctx, `
		SELECT `+unsafeColumns+` FROM unsafe_locations
		WHERE status = 'unsafe'
		  AND lat BETWEEN $1 AND $2
		  AND CASE WHEN $3::double precision <= $4::double precision
		           THEN lng BETWEEN $3 AND $4
		           ELSE lng >= $3 OR lng <= $4
		      END
	`, box.South, box.North, box.West, box.East)
}

func (r *UnsafeLocationRepo) SetIPFSHash(ctx context.Context, id, hash string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE unsafe_locations SET ipfs_hash = NULLIF($2, ''), updated_at = now() WHERE id = $1
	`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UnsafeLocationRepo) query(ctx context.Context, sql string, args ...any) ([]domain.UnsafeLocation, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnsafeLocation
	for rows.Next() {
		var l domain.UnsafeLocation
		if err := rows.Scan(&l.ID, &l.Lat, &l.Lng, &l.Status, &l.IPFSHash, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
