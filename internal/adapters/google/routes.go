// Package google adapts the Google Routes API v2 to ports.RoutingService.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

const fieldMask = "routes.description,routes.distanceMeters,routes.duration,routes.polyline.encodedPolyline," +
	"routes.legs.distanceMeters,routes.legs.duration,routes.legs.startLocation,routes.legs.endLocation," +
	"routes.legs.steps.distanceMeters,routes.legs.steps.startLocation,routes.legs.steps.endLocation," +
	"routes.legs.steps.polyline.encodedPolyline,routes.legs.steps.navigationInstruction.instructions"

var travelModes = map[domain.TravelMode]string{
	domain.ModeDriving:    "DRIVE",
	domain.ModeTwoWheeler: "TWO_WHEELER",
	domain.ModeWalking:    "WALK",
	domain.ModeBicycling:  "BICYCLE",
	domain.ModeTransit:    "TRANSIT",
}

// HTTPDoer is the part of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.RoutingService. It makes exactly one request per
// call and never retries.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a Routes API client with its own HTTP client.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTPDoer(apiKey, baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPDoer creates a client using doer for transport.
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	return &Client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), httpClient: doer}
}

// Routes requests alternatives between origin and destination for one option.
// Every failure is a *domain.ServiceUnavailableError; an empty response is not.
func (c *Client) Routes(ctx context.Context, origin, destination domain.Waypoint, option domain.TravelOption) ([]domain.Route, error) {
	fail := func(status string, err error) error {
		return &domain.ServiceUnavailableError{Option: option, Status: status, Err: err}
	}

	mode, ok := travelModes[option.Mode]
	if !ok {
		return nil, fail("", fmt.Errorf("unsupported travel mode %q", option.Mode))
	}

	body := computeRoutesRequest{
		Origin:                   toWaypoint(origin),
		Destination:              toWaypoint(destination),
		TravelMode:               mode,
		ComputeAlternativeRoutes: true,
		LanguageCode:             "en-US",
		Units:                    "METRIC",
	}
	if option.Mode == domain.ModeDriving || option.Mode == domain.ModeTwoWheeler {
		body.RouteModifiers = &routeModifiers{AvoidHighways: option.AvoidHighways}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fail("", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/directions/v2:computeRoutes", bytes.NewReader(payload))
	if err != nil {
		return nil, fail("", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail("", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fail(strconv.Itoa(resp.StatusCode), fmt.Errorf("routes api: %s", strings.TrimSpace(string(msg))))
	}

	var decoded computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fail("", fmt.Errorf("decode response: %w", err))
	}

	routes := make([]domain.Route, 0, len(decoded.Routes))
	for _, r := range decoded.Routes {
		routes = append(routes, r.toDomain())
	}
	return routes, nil
}

func toWaypoint(w domain.Waypoint) waypoint {
	if w.Location != nil {
		return waypoint{Location: &location{LatLng: latLng{Latitude: w.Location.Lat, Longitude: w.Location.Lng}}}
	}
	return waypoint{Address: w.Address}
}

// parseDuration reads the API's "123s" durations; anything else is zero.
func parseDuration(s string) int {
	n, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
	if err != nil {
		return 0
	}
	return int(n)
}

type computeRoutesRequest struct {
	Origin                   waypoint        `json:"origin"`
	Destination              waypoint        `json:"destination"`
	TravelMode               string          `json:"travelMode"`
	ComputeAlternativeRoutes bool            `json:"computeAlternativeRoutes"`
	RouteModifiers           *routeModifiers `json:"routeModifiers,omitempty"`
	LanguageCode             string          `json:"languageCode"`
	Units                    string          `json:"units"`
}

type routeModifiers struct {
	AvoidHighways bool `json:"avoidHighways"`
	AvoidTolls    bool `json:"avoidTolls"`
}

type waypoint struct {
	Location *location `json:"location,omitempty"`
	Address  string    `json:"address,omitempty"`
}

type location struct {
	LatLng latLng `json:"latLng"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l location) point() domain.GeoPoint {
	return domain.GeoPoint{Lat: l.LatLng.Latitude, Lng: l.LatLng.Longitude}
}

type polyline struct {
	EncodedPolyline string `json:"encodedPolyline"`
}

type computeRoutesResponse struct {
	Routes []apiRoute `json:"routes"`
}

type apiRoute struct {
	Description    string   `json:"description"`
	DistanceMeters int      `json:"distanceMeters"`
	Duration       string   `json:"duration"`
	Polyline       polyline `json:"polyline"`
	Legs           []apiLeg `json:"legs"`
}

type apiLeg struct {
	DistanceMeters int       `json:"distanceMeters"`
	Duration       string    `json:"duration"`
	StartLocation  location  `json:"startLocation"`
	EndLocation    location  `json:"endLocation"`
	Steps          []apiStep `json:"steps"`
}

type apiStep struct {
	DistanceMeters        int      `json:"distanceMeters"`
	StartLocation         location `json:"startLocation"`
	EndLocation           location `json:"endLocation"`
	Polyline              polyline `json:"polyline"`
	NavigationInstruction struct {
		Instructions string `json:"instructions"`
	} `json:"navigationInstruction"`
}

func (r apiRoute) toDomain() domain.Route {
	out := domain.Route{
		Summary:         r.Description,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: parseDuration(r.Duration),
		EncodedPolyline: r.Polyline.EncodedPolyline,
		Legs:            make([]domain.RouteLeg, 0, len(r.Legs)),
	}
	for _, l := range r.Legs {
		leg := domain.RouteLeg{
			StartPoint:      l.StartLocation.point(),
			EndPoint:        l.EndLocation.point(),
			DistanceMeters:  l.DistanceMeters,
			DurationSeconds: parseDuration(l.Duration),
			Steps:           make([]domain.RouteStep, 0, len(l.Steps)),
		}
		for _, s := range l.Steps {
			leg.Steps = append(leg.Steps, domain.RouteStep{
				StartPoint:     s.StartLocation.point(),
				EndPoint:       s.EndLocation.point(),
				EncodedPath:    s.Polyline.EncodedPolyline,
				Instruction:    s.NavigationInstruction.Instructions,
				DistanceMeters: s.DistanceMeters,
			})
		}
		out.Legs = append(out.Legs, leg)
	}
	return out
}
