package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
)

const (
	requestTimeout       = 15 * time.Second
	defaultSearchTimeout = 45 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	searchTimeout := deps.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = defaultSearchTimeout
	}

	v1 := app.Group("/v1")

	v1.Post("/auth/signup", timeout.NewWithContext(SignupHandler(deps), requestTimeout))
	v1.Post("/auth/login", timeout.NewWithContext(LoginHandler(deps), requestTimeout))
	v1.Post("/auth/logout", LogoutHandler(deps))
	v1.Get("/auth/check", RequireAuth(deps), CheckAuthHandler())

	v1.Get("/unsafe", timeout.NewWithContext(ListUnsafeHandler(deps), requestTimeout))
	v1.Post("/unsafe", timeout.NewWithContext(ReportUnsafeHandler(deps), requestTimeout))
	v1.Get("/unsafe/nearby", timeout.NewWithContext(NearbyUnsafeHandler(deps), requestTimeout))
	v1.Get("/unsafe/:id", timeout.NewWithContext(GetUnsafeHandler(deps), requestTimeout))

	// The search enforces its own deadline; the outer one only adds headroom.
	v1.Post("/routes/safe", timeout.NewWithContext(SafeRouteHandler(deps), searchTimeout+5*time.Second))

	v1.Post("/counselor", timeout.NewWithContext(CounselorHandler(deps), 30*time.Second))
	v1.Get("/reports/stats", timeout.NewWithContext(ReportStatsHandler(deps), requestTimeout))

	setupLegacyRoutes(app, deps)

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
