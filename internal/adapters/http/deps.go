package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mahi13singh2004/AIKYAM/internal/adapters/postgres"
	"github.com/mahi13singh2004/AIKYAM/internal/adapters/valkey"
	"github.com/mahi13singh2004/AIKYAM/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Unsafe     *usecases.UnsafeLocationService
	SafeRoutes *usecases.SafeRouteService
	Auth       *usecases.AuthService
	Counselor  *usecases.CounselorService
	Reports    *usecases.ReportService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache

	// Session cookie settings
	CookieName   string
	SecureCookie bool

	// SearchTimeout bounds a safe-route request; 0 uses the default.
	SearchTimeout time.Duration
}

func (d *Dependencies) cookieName() string {
	if d.CookieName == "" {
		return "token"
	}
	return d.CookieName
}
