package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/usecases"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
)

type reportUnsafeRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ListUnsafeHandler returns reported locations, newest first, one page at a time.
func ListUnsafeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		locs, total, err := deps.Unsafe.ListPage(c.UserContext(), offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: locs, Pagination: pg})
	}
}

// GetUnsafeHandler returns a single reported location.
func GetUnsafeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := deps.Unsafe.GetByID(c.UserContext(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "unsafe location not found")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(loc)
	}
}

// ReportUnsafeHandler stores a new unsafe location.
func ReportUnsafeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req reportUnsafeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		point := domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng}
		if err := point.Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}

		loc, err := deps.Unsafe.Report(c.UserContext(), point)
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.UnsafeReports.Inc()

		return c.Status(201).JSON(loc)
	}
}

// NearbyUnsafeHandler checks the caller's position against reported locations.
func NearbyUnsafeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng are required")
		}
		point := domain.GeoPoint{Lat: c.QueryFloat("lat", 0), Lng: c.QueryFloat("lng", 0)}
		if err := point.Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius", 0)
		if radius < 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		matches, alert, err := deps.Unsafe.Nearby(c.UserContext(), point, radius)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if alert {
			metrics.ProximityAlerts.Inc()
		}

		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{
			"alert":     alert,
			"locations": matches,
		})
	}
}

type waypointInput struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

func (w waypointInput) waypoint() (domain.Waypoint, error) {
	var wp domain.Waypoint
	switch {
	case w.Lat != nil && w.Lng != nil:
		wp = domain.PointWaypoint(domain.GeoPoint{Lat: *w.Lat, Lng: *w.Lng})
	case w.Lat != nil || w.Lng != nil:
		return wp, errors.New("both lat and lng are required")
	}
	wp.Address = w.Address
	return wp, wp.Validate()
}

type safeRouteRequest struct {
	Origin      waypointInput `json:"origin"`
	Destination waypointInput `json:"destination"`
}

// SafeRouteResponse is the accepted route with the clearance it was checked against.
type SafeRouteResponse struct {
	*domain.SafeRouteResult
	ThresholdMeters float64 `json:"threshold_meters"`
}

// SafeRouteHandler searches for a route that avoids every reported location.
func SafeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req safeRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		origin, err := req.Origin.waypoint()
		if err != nil {
			return errBadRequest(c, "origin: "+err.Error())
		}
		destination, err := req.Destination.waypoint()
		if err != nil {
			return errBadRequest(c, "destination: "+err.Error())
		}

		ctx := c.UserContext()
		snapshot, err := deps.Unsafe.Snapshot(ctx)
		if err != nil {
			return errInternal(c, err.Error())
		}

		started := time.Now()
		result, err := deps.SafeRoutes.FindSafeRoute(ctx, origin, destination, snapshot)
		observeSearch(result, err, time.Since(started))
		if err != nil {
			LoggerFromCtx(ctx).Info("safe route search failed", "origin", origin.String(), "destination", destination.String(), "error", err)
			return errSearch(c, err)
		}

		c.Set("Cache-Control", "no-store")
		return c.JSON(SafeRouteResponse{
			SafeRouteResult: result,
			ThresholdMeters: deps.SafeRoutes.Threshold().Meters(),
		})
	}
}

func observeSearch(result *domain.SafeRouteResult, err error, d time.Duration) {
	var attempts []domain.SearchAttempt
	var se *domain.SearchError
	switch {
	case result != nil:
		attempts = result.Attempts
	case errors.As(err, &se):
		attempts = se.Attempts
	}
	for _, a := range attempts {
		metrics.ObserveAttempt(string(a.Option.Mode), a.Option.AvoidHighways, string(a.Outcome))
	}
	metrics.ObserveSearch(usecases.SearchOutcome(err), d)
}

type counselorRequest struct {
	Message string `json:"message"`
}

// CounselorHandler answers a safety question.
func CounselorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req counselorRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		reply, err := deps.Counselor.Ask(c.UserContext(), req.Message)
		switch {
		case errors.Is(err, usecases.ErrEmptyMessage):
			metrics.CounselorRequests.WithLabelValues("rejected").Inc()
			return errBadRequest(c, "Message is required")
		case err != nil:
			metrics.CounselorRequests.WithLabelValues("error").Inc()
			LoggerFromCtx(c.UserContext()).Error("counselor chat failed", "error", err)
			return errInternal(c, "Internal Server Error")
		}

		metrics.CounselorRequests.WithLabelValues("ok").Inc()
		return c.JSON(fiber.Map{"success": true, "message": reply})
	}
}

// ReportStatsHandler returns the unsafe-location dashboard.
func ReportStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Reports.Stats(c.UserContext(), time.Now())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
