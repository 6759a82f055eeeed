// Package safety decides whether points and routes keep clear of reported unsafe locations.
package safety

import (
	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/geospatial"
)

// Threshold is the unsafe radius plus the safety buffer around it, in meters.
type Threshold struct {
	Radius float64
	Buffer float64
}

// Meters is the effective clearance distance.
func (t Threshold) Meters() float64 {
	return t.Radius + t.Buffer
}

// IsNearUnsafe reports whether point lies within radius+buffer meters of any
// location in the snapshot.
func IsNearUnsafe(point domain.GeoPoint, snapshot []domain.UnsafeLocation, radius, buffer float64) bool {
	_, ok := nearestHit(point, snapshot, radius+buffer)
	return ok
}

func nearestHit(point domain.GeoPoint, snapshot []domain.UnsafeLocation, limit float64) (*domain.UnsafeLocation, bool) {
	for i := range snapshot {
		if geospatial.Distance(point, snapshot[i].Point()) <= limit {
			return &snapshot[i], true
		}
	}
	return nil, false
}

// Reason explains a Verdict.
type Reason string

const (
	ReasonClear        Reason = "clear"
	ReasonNoSteps      Reason = "no_steps"
	ReasonStepEndpoint Reason = "step_endpoint"
	ReasonPath         Reason = "path"
)

// Verdict is the detailed result of checking one route.
type Verdict struct {
	Safe   bool
	Reason Reason
	// Step is the index of the failing step, -1 when not applicable.
	Step  int
	Point *domain.GeoPoint
	Near  *domain.UnsafeLocation
	// SkippedPaths counts steps whose path could not be decoded and were
	// checked by their endpoints only.
	SkippedPaths int
}

// CheckRoute evaluates the first leg of route step by step. A step fails when
// its start or end point, or any point of its decoded path, is near an unsafe
// location. Steps with a missing or undecodable path are judged by their
// endpoints alone. A route without steps is never safe.
func CheckRoute(route domain.Route, snapshot []domain.UnsafeLocation, th Threshold, decoder ports.PathDecoder) Verdict {
	steps := route.Steps()
	if len(steps) == 0 {
		return Verdict{Safe: false, Reason: ReasonNoSteps, Step: -1}
	}

	limit := th.Meters()
	skipped := 0
	for i, step := range steps {
		for _, p := range []domain.GeoPoint{step.StartPoint, step.EndPoint} {
			if hit, ok := nearestHit(p, snapshot, limit); ok {
				return Verdict{Reason: ReasonStepEndpoint, Step: i, Point: &p, Near: hit, SkippedPaths: skipped}
			}
		}

		if step.EncodedPath == "" || decoder == nil {
			skipped++
			continue
		}
		path, err := decoder.Decode(step.EncodedPath)
		if err != nil {
			skipped++
			continue
		}
		for _, p := range path {
			if hit, ok := nearestHit(p, snapshot, limit); ok {
				return Verdict{Reason: ReasonPath, Step: i, Point: &p, Near: hit, SkippedPaths: skipped}
			}
		}
	}

	return Verdict{Safe: true, Reason: ReasonClear, Step: -1, SkippedPaths: skipped}
}

// IsRouteSafe reports whether route keeps radius+buffer meters away from every
// location in the snapshot.
func IsRouteSafe(route domain.Route, snapshot []domain.UnsafeLocation, radius, buffer float64, decoder ports.PathDecoder) bool {
	return CheckRoute(route, snapshot, Threshold{Radius: radius, Buffer: buffer}, decoder).Safe
}
