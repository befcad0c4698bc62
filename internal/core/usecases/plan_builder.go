package usecases

import (
	"fmt"
	"strings"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

// Label fallbacks used when a stop carries no display text of its own.
const (
	labelOrigin      = "출발지"
	labelDestination = "도착지"
	labelWaypointFmt = "경유 %d"

	modeWalking = "도보"
	modeGeneric = "이동"
	modeUnknown = "정보 없음"

	emptyText = "--"
)

// BuildRoutePlan converts one directions result per consecutive stop pair
// into a normalized route plan. results[i] describes the travel from
// stops[i] to stops[i+1]; colors[i] is the display color of segment i.
//
// Returns nil, not an error, when any result carries zero routes or the
// union of all legs is empty: callers treat nil as "no plan available".
func BuildRoutePlan(results []domain.DirectionsResult, stops []domain.Stop, colors []string) *domain.RoutePlan {
	if len(results) == 0 {
		return nil
	}

	routes := make([]domain.DirectionsRoute, 0, len(results))
	for _, res := range results {
		if len(res.Routes) == 0 {
			return nil
		}
		routes = append(routes, res.Routes[0])
	}

	totalLegs := 0
	for _, r := range routes {
		totalLegs += len(r.Legs)
	}
	if totalLegs == 0 {
		return nil
	}

	plan := &domain.RoutePlan{
		Segments: make([]domain.Segment, 0, len(routes)),
		Legs:     make([]domain.Leg, 0, totalLegs),
	}

	for i, route := range routes {
		seg := domain.Segment{
			Color:     colorAt(colors, i),
			FromLabel: labelForStop(stopAt(stops, i), fromFallback(i)),
			ToLabel:   labelForStop(stopAt(stops, i+1), toFallback(i, len(stops))),
			Legs:      make([]domain.Leg, 0, len(route.Legs)),
		}

		for _, rawLeg := range route.Legs {
			leg := normalizeLeg(rawLeg)
			seg.DistanceMeters += leg.DistanceMeters
			seg.DurationSeconds += leg.DurationSeconds
			seg.Legs = append(seg.Legs, leg)
			plan.Legs = append(plan.Legs, leg)
		}
		seg.DurationText = combineLegText(route.Legs, func(l domain.DirectionsLeg) *domain.TextValue { return l.Duration })
		seg.DistanceText = combineLegText(route.Legs, func(l domain.DirectionsLeg) *domain.TextValue { return l.Distance })

		plan.TotalDistanceMeters += seg.DistanceMeters
		plan.TotalDurationSeconds += seg.DurationSeconds
		plan.Segments = append(plan.Segments, seg)
	}

	allRaw := make([]domain.DirectionsLeg, 0, totalLegs)
	for _, r := range routes {
		allRaw = append(allRaw, r.Legs...)
	}
	plan.TotalDurationText = combineLegText(allRaw, func(l domain.DirectionsLeg) *domain.TextValue { return l.Duration })
	plan.TotalDistanceText = combineLegText(allRaw, func(l domain.DirectionsLeg) *domain.TextValue { return l.Distance })

	if at := routes[len(routes)-1].ArrivalTime; at != nil {
		plan.ArrivalTimeText = at.Text
	}

	return plan
}

func normalizeLeg(leg domain.DirectionsLeg) domain.Leg {
	primary := primaryStep(leg.Steps)

	out := domain.Leg{
		Origin:       leg.StartAddress,
		Destination:  leg.EndAddress,
		DurationText: emptyText,
		DistanceText: emptyText,
		ModeLabel:    describeStep(primary),
		Details:      summarizeTransitDetails(primary),
	}
	if leg.StartLocation != nil {
		p := *leg.StartLocation
		out.OriginLocation = &p
	}
	if leg.EndLocation != nil {
		p := *leg.EndLocation
		out.DestinationLocation = &p
	}
	if leg.Duration != nil {
		if leg.Duration.Text != "" {
			out.DurationText = leg.Duration.Text
		}
		out.DurationSeconds = leg.Duration.Value
	}
	if leg.Distance != nil {
		if leg.Distance.Text != "" {
			out.DistanceText = leg.Distance.Text
		}
		out.DistanceMeters = leg.Distance.Value
	}
	return out
}

// primaryStep picks the step that represents a leg's mode: the first
// non-walking step if one exists, else the first step. A leg with only
// walking steps is reported as walking.
func primaryStep(steps []domain.DirectionsStep) *domain.DirectionsStep {
	for i := range steps {
		if steps[i].TravelMode != domain.TravelModeWalking {
			return &steps[i]
		}
	}
	if len(steps) > 0 {
		return &steps[0]
	}
	return nil
}

func describeStep(step *domain.DirectionsStep) string {
	if step == nil {
		return modeUnknown
	}
	if step.TravelMode == domain.TravelModeWalking {
		return modeWalking
	}
	if step.Transit != nil && step.Transit.Line != nil {
		line := step.Transit.Line
		if line.ShortName != "" {
			return fmt.Sprintf("%s (%s)", line.ShortName, line.Name)
		}
		return line.Name
	}
	if step.TravelMode != "" {
		return step.TravelMode
	}
	return modeGeneric
}

// summarizeTransitDetails concatenates the clauses a transit step can
// describe, skipping any clause whose data is missing.
func summarizeTransitDetails(step *domain.DirectionsStep) string {
	if step == nil {
		return ""
	}
	if step.TravelMode == domain.TravelModeWalking || step.Transit == nil {
		return step.Instructions
	}

	t := step.Transit
	var clauses []string
	if t.DepartureStop != nil && t.DepartureStop.Name != "" &&
		t.ArrivalStop != nil && t.ArrivalStop.Name != "" {
		clauses = append(clauses, fmt.Sprintf("%s → %s", t.DepartureStop.Name, t.ArrivalStop.Name))
	}
	if t.NumStops > 0 {
		clauses = append(clauses, fmt.Sprintf("%d 정거장", t.NumStops))
	}
	if t.DepartureTime != nil && t.DepartureTime.Text != "" &&
		t.ArrivalTime != nil && t.ArrivalTime.Text != "" {
		clauses = append(clauses, fmt.Sprintf("%s 출발 · %s 도착", t.DepartureTime.Text, t.ArrivalTime.Text))
	}
	return strings.Join(clauses, " / ")
}

func combineLegText(legs []domain.DirectionsLeg, pick func(domain.DirectionsLeg) *domain.TextValue) string {
	var parts []string
	for _, leg := range legs {
		if tv := pick(leg); tv != nil && tv.Text != "" {
			parts = append(parts, tv.Text)
		}
	}
	if len(parts) == 0 {
		return emptyText
	}
	return strings.Join(parts, " + ")
}

func labelForStop(stop *domain.Stop, fallback string) string {
	if stop == nil {
		return fallback
	}
	if stop.Label != "" {
		return stop.Label
	}
	if stop.Address != "" {
		return stop.Address
	}
	return fallback
}

func fromFallback(segmentIndex int) string {
	if segmentIndex == 0 {
		return labelOrigin
	}
	return fmt.Sprintf(labelWaypointFmt, segmentIndex)
}

func toFallback(segmentIndex, stopCount int) string {
	if segmentIndex == stopCount-2 {
		return labelDestination
	}
	return fmt.Sprintf(labelWaypointFmt, segmentIndex+1)
}

func stopAt(stops []domain.Stop, i int) *domain.Stop {
	if i < 0 || i >= len(stops) {
		return nil
	}
	return &stops[i]
}

func colorAt(colors []string, i int) string {
	if i < len(colors) {
		return colors[i]
	}
	return RouteColorAt(i)
}

// MarkerLabel returns the map marker label for a stop position in the list.
func MarkerLabel(index, total int) string {
	switch {
	case index == 0:
		return "출발"
	case index == total-1:
		return "도착"
	default:
		return fmt.Sprintf(labelWaypointFmt, index)
	}
}
