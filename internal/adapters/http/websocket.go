package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/hyunwoojo/gilro/internal/adapters/nats"
	"github.com/hyunwoojo/gilro/internal/pkg/metrics"
)

// wsEnvelope wraps every server-to-client frame with the channel it came
// from so the client can route it to the right surface.
type wsEnvelope struct {
	Channel string          `json:"channel"` // "progress" | "toast" | "map" | "state"
	Data    json.RawMessage `json:"data"`
}

// wsInbound is a client-to-server frame. Position samples are the only
// input the relay accepts; everything else goes through the REST API.
type wsInbound struct {
	Type string          `json:"type"` // "position"
	Data json.RawMessage `json:"data"`
}

// WebSocketHandler relays a session's navigation events between NATS and
// the browser: progress, toasts, and map commands flow out, position
// samples flow in. One connection serves exactly one session.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Params("session")
		if sessionID == "" {
			return
		}

		logger := slog.Default().With("component", "ws", "session_id", sessionID)
		logger.Info("client connected", "remote", c.RemoteAddr().String())

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeFrame := func(channel string, data []byte) error {
			payload, err := json.Marshal(wsEnvelope{Channel: channel, Data: data})
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, payload)
		}

		// Initial snapshot so a reconnecting client does not wait for the
		// next event to repaint.
		if trip, err := deps.Sessions.Get(sessionID); err == nil {
			if data, err := json.Marshal(trip); err == nil {
				_ = writeFrame("state", data)
			}
		}

		channels := map[string]string{
			natsadapter.ProgressSubject(sessionID): "progress",
			natsadapter.ToastSubject(sessionID):    "toast",
			natsadapter.MapSubject(sessionID):      "map",
		}

		subs := make([]*nats.Subscription, 0, len(channels))
		for subject, channel := range channels {
			ch := channel
			sub, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeFrame(ch, msg.Data)
			})
			if err != nil {
				logger.Error("relay subscribe failed", "subject", subject, "error", err)
				return
			}
			subs = append(subs, sub)
		}
		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
		}()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
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

		positionSubject := natsadapter.PositionSubject(sessionID)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var in wsInbound
			if err := json.Unmarshal(msg, &in); err != nil {
				_ = writeFrame("toast", []byte(`{"message":"invalid frame","type":"warning"}`))
				continue
			}

			switch in.Type {
			case "position":
				if err := deps.NATS.Publish(positionSubject, in.Data); err != nil {
					logger.Warn("position publish failed", "error", err)
				}
			default:
				_ = writeFrame("toast", []byte(`{"message":"unknown frame type","type":"warning"}`))
			}
		}

		logger.Info("client disconnected")
	}
}
