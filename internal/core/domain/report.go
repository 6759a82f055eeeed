package domain

import "time"

// Region is a compass sector relative to the dashboard center.
type Region string

const (
	RegionNorth  Region = "North"
	RegionSouth  Region = "South"
	RegionEast   Region = "East"
	RegionWest   Region = "West"
	RegionCenter Region = "Center"
)

// HourlyCount is the number of reports in one hour-long bucket.
type HourlyCount struct {
	Start time.Time `json:"start"`
	Hour  int       `json:"hour"` // hour of day of Start
	Count int       `json:"count"`
}

// RecentReport is an unsafe location annotated for the dashboard table.
type RecentReport struct {
	UnsafeLocation
	Region Region `json:"region"`
	State  string `json:"state"`
}

// ReportStats summarises unsafe-location reports for the dashboard.
type ReportStats struct {
	GeneratedAt        time.Time      `json:"generated_at"`
	Center             GeoPoint       `json:"center"`
	Total              int            `json:"total"`
	Last24h            int            `json:"last_24h"`
	Previous24h        int            `json:"previous_24h"`
	PercentageRise     float64        `json:"percentage_rise"`
	Hourly             []HourlyCount  `json:"hourly"`
	Regions            map[Region]int `json:"regions"`
	MostAffectedRegion Region         `json:"most_affected_region"`
	PeakHour           *HourlyCount   `json:"peak_hour,omitempty"`
	Recent             []RecentReport `json:"recent"`
}
