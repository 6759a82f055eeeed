package ports

import (
	"context"
	"time"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

// RoutingService computes route alternatives between two waypoints.
// A failed call or non-success status is reported as *domain.ServiceUnavailableError.
type RoutingService interface {
	Routes(ctx context.Context, origin, destination domain.Waypoint, option domain.TravelOption) ([]domain.Route, error)
}

// PathDecoder decodes an encoded step path. Failures are *domain.DecodeError.
type PathDecoder interface {
	Decode(encoded string) ([]domain.GeoPoint, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishUnsafeReported(ctx context.Context, event *domain.UnsafeLocationReported) error
	PublishRouteSearched(ctx context.Context, event *domain.RouteSearched) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeUnsafeReported(ctx context.Context, handler func(ctx context.Context, event *domain.UnsafeLocationReported) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ContentStore pins JSON documents to content-addressed storage.
type ContentStore interface {
	// PinJSON stores v and returns its content identifier.
	PinJSON(ctx context.Context, name string, v any) (string, error)
	FetchJSON(ctx context.Context, cid string, out any) error
	Unpin(ctx context.Context, cid string) error
}

// ChatModel produces a text completion for a prompt.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TokenIssuer signs and verifies session tokens carrying a user ID.
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
	Parse(token string) (userID string, err error)
}
