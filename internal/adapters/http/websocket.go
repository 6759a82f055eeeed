package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/mahi13singh2004/AIKYAM/internal/adapters/nats"
	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/geospatial"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
)

const defaultWatchRadius = 100.0

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string  `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string  `json:"channel"` // "reports" | "nearby" (default: reports)
	Lat     float64 `json:"lat"`     // nearby only
	Lng     float64 `json:"lng"`     // nearby only
	Radius  float64 `json:"radius"`  // nearby only, meters
}

// proximityAlert is pushed on the nearby channel when a new report lands
// inside the watched circle.
type proximityAlert struct {
	Type     string                `json:"type"`
	Location domain.UnsafeLocation `json:"location"`
	Distance float64               `json:"distance"`
}

// WebSocketHandler returns a handler that relays unsafe-location reports to
// connected clients. Every client receives all reports by default. Sending
// {"action":"subscribe","channel":"nearby","lat":..,"lng":..,"radius":..}
// adds proximity alerts for reports inside the given circle.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if nc == nil {
			_ = writeJSON(map[string]string{"error": "live feed unavailable"})
			return
		}

		sub, err := nc.Subscribe(natsadapter.SubjectUnsafeAll, func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}
		subs["reports"] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			channel := m.Channel
			if channel == "" {
				channel = "reports"
			}
			if channel != "reports" && channel != "nearby" {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[channel]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": channel})
					continue
				}
				var handler nats.MsgHandler
				if channel == "nearby" {
					center := domain.GeoPoint{Lat: m.Lat, Lng: m.Lng}
					if err := center.Validate(); err != nil {
						_ = writeJSON(map[string]string{"error": err.Error()})
						continue
					}
					radius := m.Radius
					if radius <= 0 {
						radius = defaultWatchRadius
					}
					handler = proximityRelay(center, radius, func(a proximityAlert) { _ = writeJSON(a) })
				} else {
					handler = func(msg *nats.Msg) { _ = writeJSON(json.RawMessage(msg.Data)) }
				}
				s, err := nc.Subscribe(natsadapter.SubjectUnsafeReported, handler)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[channel] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": channel})

			case "unsubscribe":
				if s, exists := subs[channel]; exists {
					_ = s.Unsubscribe()
					delete(subs, channel)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": channel})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + channel})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}

// proximityRelay decodes report events and passes those within radius of
// center to send.
func proximityRelay(center domain.GeoPoint, radius float64, send func(proximityAlert)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var event domain.UnsafeLocationReported
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}
		if d := geospatial.Distance(center, event.Location.Point()); d <= radius {
			metrics.ProximityAlerts.Inc()
			send(proximityAlert{Type: "proximity_alert", Location: event.Location, Distance: d})
		}
	}
}
