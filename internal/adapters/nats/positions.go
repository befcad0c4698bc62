package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/pkg/logging"
)

// PositionSource implements ports.PositionSource over per-session NATS
// subjects. Clients publish samples to nav.position.<session>; the watch
// filters out stale samples and reports a timeout error when the feed
// goes quiet.
type PositionSource struct {
	conn         *nats.Conn
	maxAge       time.Duration
	watchTimeout time.Duration
	logger       *slog.Logger
}

// NewPositionSource wraps a NATS connection. maxAge drops samples whose
// timestamp is too far in the past; watchTimeout bounds how long the watch
// waits for the next sample before reporting an error.
func NewPositionSource(conn *nats.Conn, maxAge, watchTimeout time.Duration) *PositionSource {
	return &PositionSource{
		conn:         conn,
		maxAge:       maxAge,
		watchTimeout: watchTimeout,
		logger:       logging.Component("positions"),
	}
}

// Watch subscribes to the session's position subject. onPosition fires for
// each fresh sample; onError fires when no fresh sample arrives within the
// watch timeout, once per quiet period. The returned cancel is idempotent.
func (s *PositionSource) Watch(ctx context.Context, sessionID string, onPosition func(domain.Position), onError func(error)) (ports.CancelFunc, error) {
	var (
		mu    sync.Mutex
		timer *time.Timer
		done  bool
	)

	fireTimeout := func() {
		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		mu.Unlock()
		onError(fmt.Errorf("no position received within %s", s.watchTimeout))
	}

	sub, err := s.conn.Subscribe(PositionSubject(sessionID), func(msg *nats.Msg) {
		var pos domain.Position
		if err := json.Unmarshal(msg.Data, &pos); err != nil {
			s.logger.Warn("dropping malformed position sample", "session_id", sessionID, "error", err)
			return
		}
		if s.maxAge > 0 && !pos.Timestamp.IsZero() {
			age := time.Since(pos.Timestamp)
			if age > s.maxAge {
				s.logger.Debug("dropping stale position sample", "session_id", sessionID, "age", age)
				return
			}
		}

		mu.Lock()
		if done {
			mu.Unlock()
			return
		}
		if timer != nil {
			timer.Reset(s.watchTimeout)
		}
		mu.Unlock()

		onPosition(pos)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe positions: %w", err)
	}

	mu.Lock()
	timer = time.AfterFunc(s.watchTimeout, fireTimeout)
	mu.Unlock()

	stopped := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			mu.Lock()
			done = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			close(stopped)
			_ = sub.Unsubscribe()
		})
	}

	// Tie the watch to the caller's context so a dying parent cannot
	// leak the subscription. The stopped channel releases the watcher
	// when the context is long-lived and the watch is cancelled first.
	go awaitEnd(ctx, stopped, cancel)

	return cancel, nil
}

// awaitEnd blocks until either the context ends (cancelling the watch)
// or the watch is cancelled through other means.
func awaitEnd(ctx context.Context, stopped <-chan struct{}, cancel ports.CancelFunc) {
	select {
	case <-ctx.Done():
		cancel()
	case <-stopped:
	}
}
