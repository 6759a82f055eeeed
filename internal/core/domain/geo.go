package domain

import (
	"errors"
	"fmt"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether the point lies inside the WGS 84 coordinate range.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("lat must be between -90 and 90, got %f", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("lng must be between -180 and 180, got %f", p.Lng)
	}
	return nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether p lies inside the box, edges included. A box with
// West > East crosses the antimeridian.
func (b Bounds) Contains(p GeoPoint) bool {
	if p.Lat > b.North || p.Lat < b.South {
		return false
	}
	if b.West <= b.East {
		return p.Lng >= b.West && p.Lng <= b.East
	}
	return p.Lng >= b.West || p.Lng <= b.East
}

// Waypoint is a route endpoint given either as coordinates or as a free-text address.
type Waypoint struct {
	Location *GeoPoint `json:"location,omitempty"`
	Address  string    `json:"address,omitempty"`
}

// PointWaypoint wraps a coordinate as a Waypoint.
func PointWaypoint(p GeoPoint) Waypoint {
	return Waypoint{Location: &p}
}

// Validate checks that exactly one form of the waypoint is set.
func (w Waypoint) Validate() error {
	switch {
	case w.Location != nil && w.Address != "":
		return errors.New("waypoint must have either location or address, not both")
	case w.Location != nil:
		return w.Location.Validate()
	case w.Address != "":
		return nil
	default:
		return errors.New("waypoint requires a location or an address")
	}
}

func (w Waypoint) String() string {
	if w.Location != nil {
		return fmt.Sprintf("%.6f,%.6f", w.Location.Lat, w.Location.Lng)
	}
	return w.Address
}
