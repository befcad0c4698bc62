package ports

import (
	"context"
	"time"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

// TripRecord summarizes one completed navigation run.
type TripRecord struct {
	SessionID       string
	OriginLabel     string
	DestLabel       string
	Waypoints       int
	DistanceMeters  int
	DurationSeconds int
	StartedAt       time.Time
	EndedAt         time.Time
	FinalProgress   *domain.ProgressSnapshot
}

// TripArchive persists completed trips. Live session state never touches
// the archive; it is written once, when navigation ends.
type TripArchive interface {
	Record(ctx context.Context, rec TripRecord) error
	Recent(ctx context.Context, limit int) ([]TripRecord, error)
}
