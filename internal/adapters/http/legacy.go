package http

import (
	"github.com/gofiber/fiber/v2"
)

// LegacyListUnsafeHandler returns every reported location as a bare array,
// the shape the original web client reads.
func LegacyListUnsafeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locs, err := deps.Unsafe.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(locs)
	}
}

// setupLegacyRoutes mounts the original /api paths on the current handlers.
func setupLegacyRoutes(app *fiber.App, deps *Dependencies) {
	api := app.Group("/api", DeprecationMiddleware(legacyRoutes))

	api.Post("/auth/signup", SignupHandler(deps))
	api.Post("/auth/login", LoginHandler(deps))
	api.Post("/auth/logout", LogoutHandler(deps))
	api.Get("/auth/checkAuth", RequireAuth(deps), CheckAuthHandler())

	api.Post("/counselor", CounselorHandler(deps))

	api.Get("/unsafe", LegacyListUnsafeHandler(deps))
	api.Post("/unsafe", ReportUnsafeHandler(deps))
}
