package domain

import (
	"time"
)

// LocationStatus marks whether a reported location is currently considered unsafe.
type LocationStatus string

const (
	StatusSafe   LocationStatus = "safe"
	StatusUnsafe LocationStatus = "unsafe"
)

// Valid reports whether s is a known status.
func (s LocationStatus) Valid() bool {
	return s == StatusSafe || s == StatusUnsafe
}

// UnsafeLocation is a user-reported location to be avoided.
type UnsafeLocation struct {
	ID        string         `json:"id"`
	Lat       float64        `json:"lat"`
	Lng       float64        `json:"lng"`
	Status    LocationStatus `json:"status"`
	IPFSHash  string         `json:"ipfs_hash,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Point returns the location's coordinate.
func (u UnsafeLocation) Point() GeoPoint {
	return GeoPoint{Lat: u.Lat, Lng: u.Lng}
}

// NearbyUnsafeLocation is an unsafe location annotated with its distance from a query point.
type NearbyUnsafeLocation struct {
	UnsafeLocation
	Distance float64 `json:"distance"` // meters
}

// User is an account. Email and password hash are stored off-database in an
// IPFS-pinned record referenced by IPFSHash.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	EmailHash string    `json:"-"`
	IPFSHash  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credentials is the private part of an account, pinned to IPFS.
type Credentials struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Profile is the public view of an authenticated user.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
