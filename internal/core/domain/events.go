package domain

import "time"

// UnsafeLocationReported is published after a new unsafe location is stored.
type UnsafeLocationReported struct {
	EventID    string         `json:"event_id"`
	Location   UnsafeLocation `json:"location"`
	ReportedAt time.Time      `json:"reported_at"`
}

// RouteSearched is published after every safe-route search.
type RouteSearched struct {
	SearchID    string          `json:"search_id"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Outcome     string          `json:"outcome"` // found | no_safe_route | unavailable | aborted
	Option      *TravelOption   `json:"option,omitempty"`
	Attempts    []SearchAttempt `json:"attempts"`
	DurationMS  int64           `json:"duration_ms"`
	SearchedAt  time.Time       `json:"searched_at"`
}
