package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

// Per-session subjects. Progress, toast and map events fan out to whatever
// WebSocket relays are attached to the session; positions flow the other
// way, from the client into the navigation engine.
const (
	subjectProgressPrefix = "nav.progress."
	subjectToastPrefix    = "nav.toast."
	subjectMapPrefix      = "nav.map."
	subjectPositionPrefix = "nav.position."
)

// ProgressSubject returns the subject carrying progress snapshots for a session.
func ProgressSubject(sessionID string) string { return subjectProgressPrefix + sessionID }

// ToastSubject returns the subject carrying toast announcements for a session.
func ToastSubject(sessionID string) string { return subjectToastPrefix + sessionID }

// MapSubject returns the subject carrying map commands for a session.
func MapSubject(sessionID string) string { return subjectMapPrefix + sessionID }

// PositionSubject returns the subject clients publish position samples to.
func PositionSubject(sessionID string) string { return subjectPositionPrefix + sessionID }

// Publisher implements ports.EventPublisher on plain NATS pub/sub. The
// events are live UI state; a relay that missed one only waits for the
// next, so there is nothing to persist.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS with indefinite reconnects.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// NewPublisherWithConn wraps an existing connection, shared with the
// WebSocket relay.
func NewPublisherWithConn(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) PublishProgress(_ context.Context, sessionID string, snap *domain.ProgressSnapshot) error {
	return p.publishJSON(ProgressSubject(sessionID), snap)
}

func (p *Publisher) PublishAnnouncement(_ context.Context, sessionID string, a domain.Announcement) error {
	return p.publishJSON(ToastSubject(sessionID), a)
}

func (p *Publisher) PublishMapCommand(_ context.Context, sessionID string, cmd domain.MapCommand) error {
	return p.publishJSON(MapSubject(sessionID), cmd)
}

func (p *Publisher) publishJSON(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect creates a NATS connection with the reconnect policy every
// component of the service uses.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
