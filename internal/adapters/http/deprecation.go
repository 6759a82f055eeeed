package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	Path        string    // Route pattern, ":name" segments match any value
	SunsetDate  time.Time // Date when endpoint will be removed
	Alternative string    // Recommended alternative endpoint (optional)
}

// legacySunset is when the original /api paths stop being served.
var legacySunset = time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)

// legacyRoutes lists the paths used by the original web client.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/api/auth/signup", SunsetDate: legacySunset, Alternative: "/v1/auth/signup"},
	{Path: "/api/auth/login", SunsetDate: legacySunset, Alternative: "/v1/auth/login"},
	{Path: "/api/auth/logout", SunsetDate: legacySunset, Alternative: "/v1/auth/logout"},
	{Path: "/api/auth/checkAuth", SunsetDate: legacySunset, Alternative: "/v1/auth/check"},
	{Path: "/api/counselor", SunsetDate: legacySunset, Alternative: "/v1/counselor"},
	{Path: "/api/unsafe", SunsetDate: legacySunset, Alternative: "/v1/unsafe"},
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to deprecated endpoints.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if !matchPattern(c.Path(), d.Path) {
				continue
			}
			// RFC 8594
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}

			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
			break
		}

		return c.Next()
	}
}

// matchPattern matches path against a route pattern segment by segment.
// A trailing slash on path is ignored.
func matchPattern(path, pattern string) bool {
	path = strings.TrimSuffix(path, "/")
	pattern = strings.TrimSuffix(pattern, "/")
	if path == pattern {
		return true
	}

	ps := strings.Split(path, "/")
	qs := strings.Split(pattern, "/")
	if len(ps) != len(qs) {
		return false
	}
	for i := range qs {
		if strings.HasPrefix(qs[i], ":") && ps[i] != "" {
			continue
		}
		if ps[i] != qs[i] {
			return false
		}
	}
	return true
}
