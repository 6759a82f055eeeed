package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
)

// StatsCacheKey holds the cached dashboard.
const StatsCacheKey = "reports:stats"

const recentReports = 5

type stateBounds struct {
	name   string
	bounds domain.Bounds
}

// Checked in order; the first box containing a point wins.
var stateTable = []stateBounds{
	{"Karnataka", domain.Bounds{North: 18.4, South: 11.6, East: 78.6, West: 74.0}},
	{"Maharashtra", domain.Bounds{North: 22.1, South: 15.6, East: 80.9, West: 72.6}},
	{"Kerala", domain.Bounds{North: 12.8, South: 8.3, East: 77.4, West: 74.9}},
	{"Delhi", domain.Bounds{North: 28.88, South: 28.4, East: 77.35, West: 76.83}},
	{"Tamil Nadu", domain.Bounds{North: 13.5, South: 8.1, East: 80.3, West: 76.7}},
	{"Uttar Pradesh", domain.Bounds{North: 30.4, South: 24.0, East: 84.0, West: 77.1}},
	{"Rajasthan", domain.Bounds{North: 30.2, South: 23.3, East: 78.0, West: 69.3}},
	{"Gujarat", domain.Bounds{North: 24.7, South: 20.1, East: 74.4, West: 68.1}},
	{"West Bengal", domain.Bounds{North: 27.1, South: 21.5, East: 89.0, West: 85.8}},
	{"Andhra Pradesh", domain.Bounds{North: 19.2, South: 12.6, East: 84.8, West: 77.0}},
	{"Telangana", domain.Bounds{North: 19.7, South: 15.8, East: 81.1, West: 77.5}},
	{"Punjab", domain.Bounds{North: 32.3, South: 29.5, East: 76.9, West: 74.5}},
	{"Haryana", domain.Bounds{North: 30.7, South: 27.7, East: 77.6, West: 74.5}},
	{"Madhya Pradesh", domain.Bounds{North: 26.8, South: 21.0, East: 82.8, West: 74.3}},
	{"Chhattisgarh", domain.Bounds{North: 24.5, South: 17.8, East: 84.2, West: 80.2}},
	{"Odisha", domain.Bounds{North: 22.3, South: 17.7, East: 87.5, West: 81.4}},
	{"Bihar", domain.Bounds{North: 27.5, South: 24.3, East: 88.0, West: 83.2}},
	{"Jharkhand", domain.Bounds{North: 25.3, South: 22.1, East: 87.8, West: 84.0}},
	{"Assam", domain.Bounds{North: 27.6, South: 24.1, East: 96.0, West: 89.7}},
	{"Meghalaya", domain.Bounds{North: 26.0, South: 25.1, East: 92.8, West: 89.8}},
	{"Tripura", domain.Bounds{North: 24.5, South: 22.9, East: 92.3, West: 91.2}},
	{"Manipur", domain.Bounds{North: 25.7, South: 23.8, East: 94.8, West: 93.7}},
	{"Nagaland", domain.Bounds{North: 27.1, South: 25.2, East: 95.2, West: 93.2}},
	{"Arunachal Pradesh", domain.Bounds{North: 29.2, South: 26.6, East: 97.4, West: 91.6}},
	{"Mizoram", domain.Bounds{North: 24.5, South: 21.9, East: 93.4, West: 92.2}},
	{"Chennai", domain.Bounds{North: 13.2, South: 12.9, East: 80.3, West: 80.1}},
}

// StateFor names the Indian state whose bounding box contains p, or "Unknown".
func StateFor(p domain.GeoPoint) string {
	for _, s := range stateTable {
		if s.bounds.Contains(p) {
			return s.name
		}
	}
	return "Unknown"
}

// RegionFor places p in a compass sector around center by its dominant axis.
// Ties between the axes go East or West; center itself is RegionCenter.
func RegionFor(p, center domain.GeoPoint) domain.Region {
	latDiff := p.Lat - center.Lat
	lngDiff := p.Lng - center.Lng
	switch {
	case latDiff > 0 && math.Abs(latDiff) > math.Abs(lngDiff):
		return domain.RegionNorth
	case latDiff < 0 && math.Abs(latDiff) > math.Abs(lngDiff):
		return domain.RegionSouth
	case lngDiff > 0 && math.Abs(lngDiff) >= math.Abs(latDiff):
		return domain.RegionEast
	case lngDiff < 0 && math.Abs(lngDiff) >= math.Abs(latDiff):
		return domain.RegionWest
	default:
		return domain.RegionCenter
	}
}

// PercentageRise compares two counts, rounded to two decimals. A rise from
// zero is reported as 100.
func PercentageRise(recent, previous int) float64 {
	var rise float64
	switch {
	case previous > 0:
		rise = float64(recent-previous) / float64(previous) * 100
	case recent > 0:
		rise = 100
	}
	return math.Round(rise*100) / 100
}

// ReportService builds the unsafe-location dashboard.
type ReportService struct {
	locations ports.UnsafeLocationRepository
	cache     ports.CacheService
	center    domain.GeoPoint
	cacheTTL  int
}

// NewReportService creates a new ReportService. cache may be nil.
func NewReportService(locations ports.UnsafeLocationRepository, cache ports.CacheService, center domain.GeoPoint, cacheTTL int) *ReportService {
	return &ReportService{locations: locations, cache: cache, center: center, cacheTTL: cacheTTL}
}

// Stats summarises every report as of now.
func (s *ReportService) Stats(ctx context.Context, now time.Time) (*domain.ReportStats, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, StatsCacheKey); err == nil {
			var stats domain.ReportStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	locs, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unsafe locations: %w", err)
	}
	stats := BuildReportStats(locs, s.center, now)

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, StatsCacheKey, data, s.cacheTTL)
		}
	}
	return stats, nil
}

// BuildReportStats computes the dashboard from locs. locs is not modified.
func BuildReportStats(locs []domain.UnsafeLocation, center domain.GeoPoint, now time.Time) *domain.ReportStats {
	sorted := append([]domain.UnsafeLocation(nil), locs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	stats := &domain.ReportStats{
		GeneratedAt: now,
		Center:      center,
		Total:       len(sorted),
		Regions: map[domain.Region]int{
			domain.RegionNorth: 0, domain.RegionSouth: 0, domain.RegionEast: 0, domain.RegionWest: 0,
		},
		Hourly: make([]domain.HourlyCount, 24),
		Recent: []domain.RecentReport{},
	}

	dayAgo := now.Add(-24 * time.Hour)
	twoDaysAgo := dayAgo.Add(-24 * time.Hour)
	for i := range stats.Hourly {
		start := now.Add(-time.Duration(24-i) * time.Hour)
		stats.Hourly[i] = domain.HourlyCount{Start: start, Hour: start.Hour()}
	}

	for _, l := range sorted {
		switch t := l.CreatedAt; {
		case !t.Before(dayAgo):
			stats.Last24h++
		case !t.Before(twoDaysAgo):
			stats.Previous24h++
		}

		// Buckets cover [now-24h, now); a report stamped exactly now falls outside.
		if !l.CreatedAt.Before(dayAgo) && l.CreatedAt.Before(now) {
			stats.Hourly[int(l.CreatedAt.Sub(dayAgo)/time.Hour)].Count++
		}

		if r := RegionFor(l.Point(), center); r != domain.RegionCenter {
			stats.Regions[r]++
		}
	}
	stats.PercentageRise = PercentageRise(stats.Last24h, stats.Previous24h)

	stats.MostAffectedRegion = mostAffected(stats.Regions)

	for i := range stats.Hourly {
		h := stats.Hourly[i]
		if h.Count > 0 && (stats.PeakHour == nil || h.Count > stats.PeakHour.Count) {
			stats.PeakHour = &h
		}
	}

	for i := 0; i < len(sorted) && i < recentReports; i++ {
		stats.Recent = append(stats.Recent, domain.RecentReport{
			UnsafeLocation: sorted[i],
			Region:         RegionFor(sorted[i].Point(), center),
			State:          StateFor(sorted[i].Point()),
		})
	}
	return stats
}

// mostAffected keeps the later sector on a tie. With no counted reports it
// returns the empty region.
func mostAffected(regions map[domain.Region]int) domain.Region {
	best := domain.Region("")
	for _, r := range []domain.Region{domain.RegionNorth, domain.RegionSouth, domain.RegionEast, domain.RegionWest} {
		if regions[r] == 0 {
			continue
		}
		if best == "" || regions[r] >= regions[best] {
			best = r
		}
	}
	return best
}
