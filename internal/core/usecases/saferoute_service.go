package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
	"github.com/mahi13singh2004/AIKYAM/internal/core/safety"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/telemetry"
)

// SafeRouteConfig tunes the safe-route search.
type SafeRouteConfig struct {
	Threshold     safety.Threshold
	OptionTimeout time.Duration // per routing call, 0 disables
	SearchTimeout time.Duration // whole search, 0 disables
	Options       []domain.TravelOption
}

// SafeRouteService searches travel options in priority order for the first
// route that avoids every unsafe location.
type SafeRouteService struct {
	routing   ports.RoutingService
	decoder   ports.PathDecoder
	publisher ports.EventPublisher
	cfg       SafeRouteConfig
}

// NewSafeRouteService creates a new SafeRouteService. publisher may be nil.
func NewSafeRouteService(routing ports.RoutingService, decoder ports.PathDecoder, publisher ports.EventPublisher, cfg SafeRouteConfig) *SafeRouteService {
	if len(cfg.Options) == 0 {
		cfg.Options = domain.DefaultTravelOptions()
	}
	return &SafeRouteService{routing: routing, decoder: decoder, publisher: publisher, cfg: cfg}
}

// Threshold returns the clearance distance used by the search.
func (s *SafeRouteService) Threshold() safety.Threshold {
	return s.cfg.Threshold
}

// FindSafeRoute tries each travel option in order, one routing call at a time,
// and returns the first alternative that passes the safety check against snapshot.
//
// Failures are *domain.SearchError values wrapping domain.ErrNoSafeRoute when
// routes were returned but none was safe, domain.ErrRoutingUnavailable when every
// routing call failed, or the context error when the search was cancelled or ran
// out of time.
func (s *SafeRouteService) FindSafeRoute(ctx context.Context, origin, destination domain.Waypoint, snapshot []domain.UnsafeLocation) (*domain.SafeRouteResult, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}

	searchID := uuid.NewString()
	started := time.Now()

	ctx, span := telemetry.Tracer().Start(ctx, "SafeRouteService.FindSafeRoute", trace.WithAttributes(
		telemetry.AttrSearchID.String(searchID),
		telemetry.AttrSnapshotSize.Int(len(snapshot)),
	))
	defer span.End()

	searchCtx := ctx
	if s.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.cfg.SearchTimeout)
		defer cancel()
	}

	attempts := make([]domain.SearchAttempt, 0, len(s.cfg.Options))
	routed := false
	var lastErr error

	for _, opt := range s.cfg.Options {
		if err := searchCtx.Err(); err != nil {
			return nil, s.finish(ctx, span, searchID, origin, destination, started, attempts, nil,
				&domain.SearchError{Err: err, Attempts: attempts})
		}

		routes, err := s.attempt(searchCtx, origin, destination, opt)
		if err != nil {
			if searchCtx.Err() != nil {
				attempts = append(attempts, domain.SearchAttempt{Option: opt, Outcome: domain.OutcomeUnavailable, Error: err.Error()})
				return nil, s.finish(ctx, span, searchID, origin, destination, started, attempts, nil,
					&domain.SearchError{Err: searchCtx.Err(), Cause: err, Attempts: attempts})
			}
			slog.WarnContext(ctx, "routing option failed", "search_id", searchID, "option", opt.String(), "error", err)
			attempts = append(attempts, domain.SearchAttempt{Option: opt, Outcome: domain.OutcomeUnavailable, Error: err.Error()})
			lastErr = err
			continue
		}
		att := domain.SearchAttempt{Option: opt, Alternatives: len(routes), Outcome: domain.OutcomeAllUnsafe}
		if len(routes) == 0 {
			// An answer without alternatives counts as not routed.
			att.Outcome = domain.OutcomeNoRoutes
			attempts = append(attempts, att)
			continue
		}
		routed = true

		for i, r := range routes {
			v := safety.CheckRoute(r, snapshot, s.cfg.Threshold, s.decoder)
			if !v.Safe {
				slog.DebugContext(ctx, "route alternative rejected",
					"search_id", searchID, "option", opt.String(), "alternative", i,
					"reason", string(v.Reason), "step", v.Step)
				continue
			}
			att.Outcome = domain.OutcomeAccepted
			attempts = append(attempts, att)
			result := &domain.SafeRouteResult{
				SearchID:    searchID,
				Route:       r,
				Option:      opt,
				Alternative: i,
				Attempts:    attempts,
			}
			return result, s.finish(ctx, span, searchID, origin, destination, started, attempts, &opt, nil)
		}
		attempts = append(attempts, att)
	}

	if !routed {
		return nil, s.finish(ctx, span, searchID, origin, destination, started, attempts, nil,
			&domain.SearchError{Err: domain.ErrRoutingUnavailable, Cause: lastErr, Attempts: attempts})
	}
	return nil, s.finish(ctx, span, searchID, origin, destination, started, attempts, nil,
		&domain.SearchError{Err: domain.ErrNoSafeRoute, Attempts: attempts})
}

type routesResult struct {
	routes []domain.Route
	err    error
}

// attempt makes the single routing call for one option under the per-option
// deadline. A response arriving after the deadline is dropped.
func (s *SafeRouteService) attempt(ctx context.Context, origin, destination domain.Waypoint, opt domain.TravelOption) ([]domain.Route, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "SafeRouteService.attempt", trace.WithAttributes(
		telemetry.AttrTravelMode.String(string(opt.Mode)),
		telemetry.AttrAvoidHighways.Bool(opt.AvoidHighways),
	))
	defer span.End()

	if s.cfg.OptionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OptionTimeout)
		defer cancel()
	}

	ch := make(chan routesResult, 1)
	go func() {
		routes, err := s.routing.Routes(ctx, origin, destination, opt)
		ch <- routesResult{routes: routes, err: err}
	}()

	var res routesResult
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-ch:
		if res.err == nil && ctx.Err() != nil {
			res = routesResult{err: ctx.Err()}
		}
	}

	if res.err != nil {
		var unavailable *domain.ServiceUnavailableError
		if !errors.As(res.err, &unavailable) {
			res.err = &domain.ServiceUnavailableError{Option: opt, Err: res.err}
		}
		span.RecordError(res.err)
		span.SetStatus(codes.Error, "routing call failed")
		return nil, res.err
	}

	span.SetAttributes(telemetry.AttrAlternatives.Int(len(res.routes)))
	return res.routes, nil
}

// SearchOutcome classifies a FindSafeRoute error for metrics and events.
func SearchOutcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, domain.ErrNoSafeRoute):
		return "no_safe_route"
	case errors.Is(err, domain.ErrRoutingUnavailable):
		return "unavailable"
	default:
		return "aborted"
	}
}

func (s *SafeRouteService) finish(ctx context.Context, span trace.Span, searchID string, origin, destination domain.Waypoint,
	started time.Time, attempts []domain.SearchAttempt, accepted *domain.TravelOption, err error) error {
	outcome := SearchOutcome(err)
	span.SetAttributes(telemetry.AttrOutcome.String(outcome))
	if err != nil {
		span.SetStatus(codes.Error, outcome)
	}

	if s.publisher != nil {
		event := &domain.RouteSearched{
			SearchID:    searchID,
			Origin:      origin.String(),
			Destination: destination.String(),
			Outcome:     outcome,
			Option:      accepted,
			Attempts:    attempts,
			DurationMS:  time.Since(started).Milliseconds(),
			SearchedAt:  started,
		}
		// Publishing must not block on a cancelled request context.
		if pubErr := s.publisher.PublishRouteSearched(context.WithoutCancel(ctx), event); pubErr != nil {
			slog.WarnContext(ctx, "publish route searched failed", "search_id", searchID, "error", pubErr)
		}
	}
	return err
}
