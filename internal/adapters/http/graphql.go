package http

import (
	"errors"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	unsafeLocationType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "UnsafeLocation",
		Fields: unsafeLocationFields(),
	})

	nearbyFields := unsafeLocationFields()
	nearbyFields["distance"] = &graphql.Field{Type: graphql.Float}
	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "NearbyUnsafeLocation",
		Fields: nearbyFields,
	})

	proximityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProximityCheck",
		Fields: graphql.Fields{
			"alert":     &graphql.Field{Type: graphql.Boolean},
			"locations": &graphql.Field{Type: graphql.NewList(nearbyType)},
		},
	})

	hourlyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HourlyCount",
		Fields: graphql.Fields{
			"start": &graphql.Field{Type: graphql.DateTime},
			"hour":  &graphql.Field{Type: graphql.Int},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	regionCountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RegionCount",
		Fields: graphql.Fields{
			"region": &graphql.Field{Type: graphql.String},
			"count":  &graphql.Field{Type: graphql.Int},
		},
	})

	recentFields := unsafeLocationFields()
	recentFields["region"] = &graphql.Field{Type: graphql.String}
	recentFields["state"] = &graphql.Field{Type: graphql.String}
	recentType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "RecentReport",
		Fields: recentFields,
	})

	reportStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ReportStats",
		Fields: graphql.Fields{
			"generatedAt":        &graphql.Field{Type: graphql.DateTime},
			"total":              &graphql.Field{Type: graphql.Int},
			"last24h":            &graphql.Field{Type: graphql.Int},
			"previous24h":        &graphql.Field{Type: graphql.Int},
			"percentageRise":     &graphql.Field{Type: graphql.Float},
			"mostAffectedRegion": &graphql.Field{Type: graphql.String},
			"regions":            &graphql.Field{Type: graphql.NewList(regionCountType)},
			"hourly":             &graphql.Field{Type: graphql.NewList(hourlyType)},
			"peakHour":           &graphql.Field{Type: hourlyType},
			"recent":             &graphql.Field{Type: graphql.NewList(recentType)},
		},
	})

	attemptType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchAttempt",
		Fields: graphql.Fields{
			"mode":          &graphql.Field{Type: graphql.String},
			"avoidHighways": &graphql.Field{Type: graphql.Boolean},
			"outcome":       &graphql.Field{Type: graphql.String},
			"alternatives":  &graphql.Field{Type: graphql.Int},
			"error":         &graphql.Field{Type: graphql.String},
		},
	})

	safeRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SafeRoute",
		Fields: graphql.Fields{
			"searchId":        &graphql.Field{Type: graphql.String},
			"mode":            &graphql.Field{Type: graphql.String},
			"avoidHighways":   &graphql.Field{Type: graphql.Boolean},
			"alternative":     &graphql.Field{Type: graphql.Int},
			"summary":         &graphql.Field{Type: graphql.String},
			"distanceMeters":  &graphql.Field{Type: graphql.Int},
			"durationSeconds": &graphql.Field{Type: graphql.Int},
			"encodedPolyline": &graphql.Field{Type: graphql.String},
			"thresholdMeters": &graphql.Field{Type: graphql.Float},
			"attempts":        &graphql.Field{Type: graphql.NewList(attemptType)},
		},
	})

	waypointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "WaypointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat":     &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"lng":     &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"address": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"unsafeLocations": &graphql.Field{
				Type:        graphql.NewList(unsafeLocationType),
				Description: "Reported unsafe locations, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					if offset < 0 {
						offset = 0
					}
					if limit <= 0 || limit > 500 {
						limit = 100
					}
					locs, _, err := deps.Unsafe.ListPage(p.Context, offset, limit)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(locs))
					for i, l := range locs {
						out[i] = unsafeLocationMap(l)
					}
					return out, nil
				},
			},
			"nearbyUnsafe": &graphql.Field{
				Type:        proximityType,
				Description: "Unsafe locations around a point, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					point := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					matches, alert, err := deps.Unsafe.Nearby(p.Context, point, p.Args["radius"].(float64))
					if err != nil {
						return nil, err
					}
					if alert {
						metrics.ProximityAlerts.Inc()
					}
					locs := make([]map[string]interface{}, len(matches))
					for i, m := range matches {
						locs[i] = unsafeLocationMap(m.UnsafeLocation)
						locs[i]["distance"] = m.Distance
					}
					return map[string]interface{}{"alert": alert, "locations": locs}, nil
				},
			},
			"reportStats": &graphql.Field{
				Type:        reportStatsType,
				Description: "Unsafe-location dashboard",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stats, err := deps.Reports.Stats(p.Context, time.Now())
					if err != nil {
						return nil, err
					}
					return reportStatsMap(stats), nil
				},
			},
			"safeRoute": &graphql.Field{
				Type:        safeRouteType,
				Description: "First route that avoids every reported unsafe location",
				Args: graphql.FieldConfigArgument{
					"origin":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(waypointInput)},
					"destination": &graphql.ArgumentConfig{Type: graphql.NewNonNull(waypointInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin, err := waypointArg(p.Args["origin"])
					if err != nil {
						return nil, errors.New("origin: " + err.Error())
					}
					destination, err := waypointArg(p.Args["destination"])
					if err != nil {
						return nil, errors.New("destination: " + err.Error())
					}

					snapshot, err := deps.Unsafe.Snapshot(p.Context)
					if err != nil {
						return nil, err
					}
					started := time.Now()
					result, err := deps.SafeRoutes.FindSafeRoute(p.Context, origin, destination, snapshot)
					observeSearch(result, err, time.Since(started))
					if err != nil {
						return nil, err
					}
					return safeRouteMap(result, deps.SafeRoutes.Threshold().Meters()), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"reportUnsafe": &graphql.Field{
				Type:        unsafeLocationType,
				Description: "Report an unsafe location",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					point := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					loc, err := deps.Unsafe.Report(p.Context, point)
					if err != nil {
						return nil, err
					}
					metrics.UnsafeReports.Inc()
					return unsafeLocationMap(*loc), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func unsafeLocationFields() graphql.Fields {
	return graphql.Fields{
		"id":        &graphql.Field{Type: graphql.String},
		"lat":       &graphql.Field{Type: graphql.Float},
		"lng":       &graphql.Field{Type: graphql.Float},
		"status":    &graphql.Field{Type: graphql.String},
		"ipfsHash":  &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
	}
}

func unsafeLocationMap(l domain.UnsafeLocation) map[string]interface{} {
	return map[string]interface{}{
		"id":        l.ID,
		"lat":       l.Lat,
		"lng":       l.Lng,
		"status":    string(l.Status),
		"ipfsHash":  l.IPFSHash,
		"createdAt": l.CreatedAt,
	}
}

func hourlyMap(h domain.HourlyCount) map[string]interface{} {
	return map[string]interface{}{"start": h.Start, "hour": h.Hour, "count": h.Count}
}

func reportStatsMap(s *domain.ReportStats) map[string]interface{} {
	regions := make([]map[string]interface{}, 0, len(s.Regions))
	for r, n := range s.Regions {
		regions = append(regions, map[string]interface{}{"region": string(r), "count": n})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i]["region"].(string) < regions[j]["region"].(string) })

	hourly := make([]map[string]interface{}, len(s.Hourly))
	for i, h := range s.Hourly {
		hourly[i] = hourlyMap(h)
	}

	recent := make([]map[string]interface{}, len(s.Recent))
	for i, r := range s.Recent {
		recent[i] = unsafeLocationMap(r.UnsafeLocation)
		recent[i]["region"] = string(r.Region)
		recent[i]["state"] = r.State
	}

	m := map[string]interface{}{
		"generatedAt":        s.GeneratedAt,
		"total":              s.Total,
		"last24h":            s.Last24h,
		"previous24h":        s.Previous24h,
		"percentageRise":     s.PercentageRise,
		"mostAffectedRegion": string(s.MostAffectedRegion),
		"regions":            regions,
		"hourly":             hourly,
		"recent":             recent,
	}
	if s.PeakHour != nil {
		m["peakHour"] = hourlyMap(*s.PeakHour)
	}
	return m
}

func safeRouteMap(r *domain.SafeRouteResult, threshold float64) map[string]interface{} {
	attempts := make([]map[string]interface{}, len(r.Attempts))
	for i, a := range r.Attempts {
		attempts[i] = map[string]interface{}{
			"mode":          string(a.Option.Mode),
			"avoidHighways": a.Option.AvoidHighways,
			"outcome":       string(a.Outcome),
			"alternatives":  a.Alternatives,
			"error":         a.Error,
		}
	}
	return map[string]interface{}{
		"searchId":        r.SearchID,
		"mode":            string(r.Option.Mode),
		"avoidHighways":   r.Option.AvoidHighways,
		"alternative":     r.Alternative,
		"summary":         r.Route.Summary,
		"distanceMeters":  r.Route.DistanceMeters,
		"durationSeconds": r.Route.DurationSeconds,
		"encodedPolyline": r.Route.EncodedPolyline,
		"thresholdMeters": threshold,
		"attempts":        attempts,
	}
}

func waypointArg(arg interface{}) (domain.Waypoint, error) {
	m, _ := arg.(map[string]interface{})
	var in waypointInput
	if v, ok := m["lat"].(float64); ok {
		in.Lat = &v
	}
	if v, ok := m["lng"].(float64); ok {
		in.Lng = &v
	}
	in.Address, _ = m["address"].(string)
	return in.waypoint()
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
