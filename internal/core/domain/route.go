package domain

// TravelMode is a transport mode understood by the routing provider.
type TravelMode string

const (
	ModeDriving    TravelMode = "DRIVING"
	ModeTwoWheeler TravelMode = "TWO_WHEELER"
	ModeWalking    TravelMode = "WALKING"
	ModeBicycling  TravelMode = "BICYCLING"
	ModeTransit    TravelMode = "TRANSIT"
)

// TravelOption is one routing configuration tried by the safe-route search.
type TravelOption struct {
	Mode          TravelMode `json:"mode"`
	AvoidHighways bool       `json:"avoid_highways"`
}

func (o TravelOption) String() string {
	if o.AvoidHighways {
		return string(o.Mode) + "/avoid-highways"
	}
	return string(o.Mode)
}

// DefaultTravelOptions returns the search priority list, most preferred first.
func DefaultTravelOptions() []TravelOption {
	return []TravelOption{
		{Mode: ModeDriving, AvoidHighways: false},
		{Mode: ModeDriving, AvoidHighways: true},
		{Mode: ModeTwoWheeler, AvoidHighways: false},
		{Mode: ModeTwoWheeler, AvoidHighways: true},
		{Mode: ModeWalking, AvoidHighways: false},
		{Mode: ModeBicycling, AvoidHighways: false},
		{Mode: ModeTransit, AvoidHighways: false},
	}
}

// RouteStep is a single manoeuvre of a route leg.
type RouteStep struct {
	StartPoint     GeoPoint `json:"start_point"`
	EndPoint       GeoPoint `json:"end_point"`
	EncodedPath    string   `json:"encoded_path,omitempty"` // empty when the provider sent no geometry
	Instruction    string   `json:"instruction,omitempty"`
	DistanceMeters int      `json:"distance_meters"`
}

// RouteLeg is the part of a route between two waypoints.
type RouteLeg struct {
	StartPoint      GeoPoint    `json:"start_point"`
	EndPoint        GeoPoint    `json:"end_point"`
	DistanceMeters  int         `json:"distance_meters"`
	DurationSeconds int         `json:"duration_seconds"`
	Steps           []RouteStep `json:"steps"`
}

// Route is one alternative returned by the routing provider.
type Route struct {
	Summary         string     `json:"summary,omitempty"`
	DistanceMeters  int        `json:"distance_meters"`
	DurationSeconds int        `json:"duration_seconds"`
	EncodedPolyline string     `json:"encoded_polyline,omitempty"`
	Legs            []RouteLeg `json:"legs"`
}

// Steps returns the steps of the first leg, or nil when the route has no leg.
func (r Route) Steps() []RouteStep {
	if len(r.Legs) == 0 {
		return nil
	}
	return r.Legs[0].Steps
}

// AttemptOutcome describes how one travel option attempt ended.
type AttemptOutcome string

const (
	OutcomeAccepted    AttemptOutcome = "accepted"
	OutcomeAllUnsafe   AttemptOutcome = "all_unsafe"
	OutcomeNoRoutes    AttemptOutcome = "no_routes"
	OutcomeUnavailable AttemptOutcome = "unavailable"
)

// SearchAttempt records one routing call made during a safe-route search.
type SearchAttempt struct {
	Option       TravelOption   `json:"option"`
	Outcome      AttemptOutcome `json:"outcome"`
	Alternatives int            `json:"alternatives"`
	Error        string         `json:"error,omitempty"`
}

// SafeRouteResult is the accepted route together with the attempts that led to it.
type SafeRouteResult struct {
	SearchID    string          `json:"search_id"`
	Route       Route           `json:"route"`
	Option      TravelOption    `json:"option"`
	Alternative int             `json:"alternative"` // index within the provider response
	Attempts    []SearchAttempt `json:"attempts"`
}
