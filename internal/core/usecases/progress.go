package usecases

import (
	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/pkg/geospatial"
)

// ComputeProgress matches a live position against the route plan: it finds
// the leg whose chord the position projects closest to, how far along that
// leg the position sits, and aggregates into total travelled/remaining
// distance and a [0,1] completion ratio.
//
// The function is pure and recomputes from scratch on every call: the leg
// count is small (tens), so a full O(legs) scan is cheaper to reason about
// than incremental state.
//
// Returns nil when the plan is nil, has no segments, or the position is
// nil.
func ComputeProgress(plan *domain.RoutePlan, position *domain.Position) *domain.ProgressSnapshot {
	if plan == nil || position == nil || len(plan.Segments) == 0 {
		return nil
	}

	type candidate struct {
		segmentIndex     int
		legIndex         int
		distanceToLeg    float64
		cumulativeBefore float64 // meters of route before this leg
		legTravelled     float64
	}

	var best *candidate
	cumulativeBeforeSegment := 0.0

	for segIdx, seg := range plan.Segments {
		cumulativeWithinSegment := 0.0

		for legIdx, leg := range seg.Legs {
			start, end := leg.OriginLocation, leg.DestinationLocation
			if start == nil || end == nil {
				// Untrusted geometry: the leg is excluded from the
				// nearest-leg search but its authoritative distance still
				// offsets everything after it.
				cumulativeWithinSegment += float64(leg.DistanceMeters)
				continue
			}

			proj := geospatial.ProjectOntoSegment(
				start.Lat, start.Lng,
				end.Lat, end.Lng,
				position.Lat, position.Lng,
			)

			// The authoritative distance wins over the geometric chord;
			// the chord only fills in when the field is absent.
			legDistance := float64(leg.DistanceMeters)
			if legDistance == 0 {
				legDistance = proj.ChordMeters
			}

			// Strict < keeps the earlier leg on exact ties.
			if best == nil || proj.DistanceMeters < best.distanceToLeg {
				travelled := legDistance * proj.FractionAlong
				if travelled > legDistance {
					travelled = legDistance
				}
				if travelled < 0 {
					travelled = 0
				}
				best = &candidate{
					segmentIndex:     segIdx,
					legIndex:         legIdx,
					distanceToLeg:    proj.DistanceMeters,
					cumulativeBefore: cumulativeBeforeSegment + cumulativeWithinSegment,
					legTravelled:     travelled,
				}
			}

			cumulativeWithinSegment += legDistance
		}

		if seg.DistanceMeters > 0 {
			cumulativeBeforeSegment += float64(seg.DistanceMeters)
		} else {
			cumulativeBeforeSegment += cumulativeWithinSegment
		}
	}

	if best == nil {
		return nil
	}

	total := float64(plan.TotalDistanceMeters)
	travelled := best.cumulativeBefore + best.legTravelled
	remaining := total - travelled
	if remaining < 0 {
		remaining = 0
	}
	ratio := 0.0
	if total > 0 {
		ratio = travelled / total
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
	}

	return &domain.ProgressSnapshot{
		ClosestSegmentIndex: best.segmentIndex,
		ClosestLegIndex:     best.legIndex,
		DistanceToLegMeters: best.distanceToLeg,
		TravelledMeters:     travelled,
		RemainingMeters:     remaining,
		ProgressRatio:       ratio,
	}
}
