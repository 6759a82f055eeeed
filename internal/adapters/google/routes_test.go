package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const twoAlternatives = `{
  "routes": [
    {
      "description": "NH544",
      "distanceMeters": 5120,
      "duration": "600s",
      "polyline": {"encodedPolyline": "_p~iF~ps|U_ulLnnqC"},
      "legs": [{
        "distanceMeters": 5120,
        "duration": "600s",
        "startLocation": {"latLng": {"latitude": 10.70, "longitude": 76.25}},
        "endLocation": {"latLng": {"latitude": 10.76, "longitude": 76.33}},
        "steps": [
          {
            "distanceMeters": 2500,
            "startLocation": {"latLng": {"latitude": 10.70, "longitude": 76.25}},
            "endLocation": {"latLng": {"latitude": 10.72, "longitude": 76.29}},
            "polyline": {"encodedPolyline": "_p~iF~ps|U"},
            "navigationInstruction": {"instructions": "Head east"}
          },
          {
            "distanceMeters": 2620,
            "startLocation": {"latLng": {"latitude": 10.72, "longitude": 76.29}},
            "endLocation": {"latLng": {"latitude": 10.76, "longitude": 76.33}}
          }
        ]
      }]
    },
    {"description": "Inner road", "distanceMeters": 6000, "duration": "720s", "legs": []}
  ]
}`

var (
	from = domain.PointWaypoint(domain.GeoPoint{Lat: 10.70, Lng: 76.25})
	to   = domain.Waypoint{Address: "Shornur Railway Station"}
)

func TestRoutes_ParsesAlternatives(t *testing.T) {
	var captured *http.Request
	var body map[string]any

	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*http.Request)
		raw, _ := io.ReadAll(captured.Body)
		_ = json.Unmarshal(raw, &body)
	}).Return(response(200, twoAlternatives), nil)

	client := NewClientWithHTTPDoer("test-key", "https://routes.example.com/", mockHTTP)
	routes, err := client.Routes(context.Background(), from, to, domain.TravelOption{Mode: domain.ModeTwoWheeler, AvoidHighways: true})
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "https://routes.example.com/directions/v2:computeRoutes", captured.URL.String())
	assert.Equal(t, "test-key", captured.Header.Get("X-Goog-Api-Key"))
	assert.Contains(t, captured.Header.Get("X-Goog-FieldMask"), "routes.legs.steps.polyline.encodedPolyline")

	assert.Equal(t, "TWO_WHEELER", body["travelMode"])
	assert.Equal(t, true, body["computeAlternativeRoutes"])
	assert.Equal(t, true, body["routeModifiers"].(map[string]any)["avoidHighways"])
	assert.Equal(t, "Shornur Railway Station", body["destination"].(map[string]any)["address"])

	first := routes[0]
	assert.Equal(t, "NH544", first.Summary)
	assert.Equal(t, 600, first.DurationSeconds)
	steps := first.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, domain.GeoPoint{Lat: 10.72, Lng: 76.29}, steps[0].EndPoint)
	assert.Equal(t, "_p~iF~ps|U", steps[0].EncodedPath)
	assert.Equal(t, "Head east", steps[0].Instruction)
	assert.Empty(t, steps[1].EncodedPath)

	assert.Empty(t, routes[1].Steps())
	mockHTTP.AssertExpectations(t)
}

func TestRoutes_WalkingHasNoModifiers(t *testing.T) {
	var body map[string]any
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Run(func(args mock.Arguments) {
		raw, _ := io.ReadAll(args.Get(0).(*http.Request).Body)
		_ = json.Unmarshal(raw, &body)
	}).Return(response(200, `{}`), nil)

	client := NewClientWithHTTPDoer("k", "https://routes.example.com", mockHTTP)
	routes, err := client.Routes(context.Background(), from, to, domain.TravelOption{Mode: domain.ModeWalking})
	require.NoError(t, err)
	assert.Empty(t, routes)
	assert.Equal(t, "WALK", body["travelMode"])
	assert.NotContains(t, body, "routeModifiers")
}

func TestRoutes_StatusErrorIsServiceUnavailable(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(response(403, `{"error":{"status":"PERMISSION_DENIED"}}`), nil).Once()

	client := NewClientWithHTTPDoer("k", "https://routes.example.com", mockHTTP)
	_, err := client.Routes(context.Background(), from, to, domain.TravelOption{Mode: domain.ModeDriving})

	var unavailable *domain.ServiceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "403", unavailable.Status)
	assert.Equal(t, domain.ModeDriving, unavailable.Option.Mode)
	assert.Contains(t, err.Error(), "PERMISSION_DENIED")
	mockHTTP.AssertNumberOfCalls(t, "Do", 1)
}

func TestRoutes_TransportErrorIsServiceUnavailable(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Once()

	client := NewClientWithHTTPDoer("k", "https://routes.example.com", mockHTTP)
	_, err := client.Routes(context.Background(), from, to, domain.TravelOption{Mode: domain.ModeTransit})

	var unavailable *domain.ServiceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Empty(t, unavailable.Status)
	mockHTTP.AssertNumberOfCalls(t, "Do", 1)
}

func TestRoutes_MalformedBody(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.Anything).Return(response(200, `{"routes": [`), nil)

	client := NewClientWithHTTPDoer("k", "https://routes.example.com", mockHTTP)
	_, err := client.Routes(context.Background(), from, to, domain.TravelOption{Mode: domain.ModeBicycling})

	var unavailable *domain.ServiceUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 450, parseDuration("450s"))
	assert.Equal(t, 12, parseDuration("12.7s"))
	assert.Equal(t, 0, parseDuration(""))
}
