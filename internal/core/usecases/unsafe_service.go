package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/geospatial"
)

// SnapshotCacheKey holds the cached list of unsafe-status locations.
const SnapshotCacheKey = "unsafe:snapshot"

// UnsafeLocationService handles reporting and querying unsafe locations.
type UnsafeLocationService struct {
	locations   ports.UnsafeLocationRepository
	cache       ports.CacheService
	publisher   ports.EventPublisher
	snapshotTTL int
	alertRadius float64
}

// NewUnsafeLocationService creates a new UnsafeLocationService. cache and
// publisher may be nil.
func NewUnsafeLocationService(
	locations ports.UnsafeLocationRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	snapshotTTL int,
	alertRadius float64,
) *UnsafeLocationService {
	return &UnsafeLocationService{
		locations:   locations,
		cache:       cache,
		publisher:   publisher,
		snapshotTTL: snapshotTTL,
		alertRadius: alertRadius,
	}
}

// List returns every reported location, newest first.
func (s *UnsafeLocationService) List(ctx context.Context) ([]domain.UnsafeLocation, error) {
	locs, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unsafe locations: %w", err)
	}
	return locs, nil
}

// ListPage returns one page of List and the total count.
func (s *UnsafeLocationService) ListPage(ctx context.Context, offset, limit int) ([]domain.UnsafeLocation, int, error) {
	locs, err := s.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(locs)
	if offset >= total {
		return []domain.UnsafeLocation{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return locs[offset:end], total, nil
}

// GetByID returns a single location. An id that is not a UUID cannot exist.
func (s *UnsafeLocationService) GetByID(ctx context.Context, id string) (*domain.UnsafeLocation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.locations.GetByID(ctx, id)
}

// Report stores a new unsafe location, drops the cached snapshot and
// dashboard, then announces the report.
func (s *UnsafeLocationService) Report(ctx context.Context, point domain.GeoPoint) (*domain.UnsafeLocation, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	loc := &domain.UnsafeLocation{Lat: point.Lat, Lng: point.Lng, Status: domain.StatusUnsafe}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("create unsafe location: %w", err)
	}

	if s.cache != nil {
		for _, key := range []string{SnapshotCacheKey, StatsCacheKey} {
			if err := s.cache.Delete(ctx, key); err != nil {
				slog.WarnContext(ctx, "cache invalidation failed", "key", key, "error", err)
			}
		}
	}

	if s.publisher != nil {
		event := &domain.UnsafeLocationReported{
			EventID:    uuid.NewString(),
			Location:   *loc,
			ReportedAt: time.Now().UTC(),
		}
		if err := s.publisher.PublishUnsafeReported(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish unsafe reported failed", "location_id", loc.ID, "error", err)
		}
	}

	return loc, nil
}

// Snapshot returns the unsafe-status locations a route search is checked against.
func (s *UnsafeLocationService) Snapshot(ctx context.Context) ([]domain.UnsafeLocation, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, SnapshotCacheKey); err == nil {
			var snapshot []domain.UnsafeLocation
			if err := json.Unmarshal(data, &snapshot); err == nil {
				return snapshot, nil
			}
		}
	}

	all, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snapshot := make([]domain.UnsafeLocation, 0, len(all))
	for _, l := range all {
		if l.Status == domain.StatusUnsafe {
			snapshot = append(snapshot, l)
		}
	}

	if s.cache != nil && s.snapshotTTL > 0 {
		if data, err := json.Marshal(snapshot); err == nil {
			_ = s.cache.Set(ctx, SnapshotCacheKey, data, s.snapshotTTL)
		}
	}

	return snapshot, nil
}

// Nearby returns unsafe locations within radiusMeters of point, nearest first.
// A non-positive radius falls back to the alert radius. alert is true when
// anything was found.
func (s *UnsafeLocationService) Nearby(ctx context.Context, point domain.GeoPoint, radiusMeters float64) (matches []domain.NearbyUnsafeLocation, alert bool, err error) {
	if err := point.Validate(); err != nil {
		return nil, false, err
	}
	if radiusMeters <= 0 {
		radiusMeters = s.alertRadius
	}

	candidates, err := s.locations.FindWithin(ctx, geospatial.BoundingBox(point, radiusMeters))
	if err != nil {
		return nil, false, fmt.Errorf("find unsafe locations: %w", err)
	}

	matches = make([]domain.NearbyUnsafeLocation, 0, len(candidates))
	for _, c := range candidates {
		if c.Status != domain.StatusUnsafe {
			continue
		}
		if d := geospatial.Distance(point, c.Point()); d <= radiusMeters {
			matches = append(matches, domain.NearbyUnsafeLocation{UnsafeLocation: c, Distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	return matches, len(matches) > 0, nil
}
