package geospatial

import "math"

// planar is a point in a local equirectangular frame: x = R·λ·cos(φ),
// y = R·φ. Accurate enough for the leg lengths a transit trip produces;
// errors grow with distance from the route, which only affects the
// far-off-route case where precision does not matter.
type planar struct {
	x, y float64
}

func toPlanar(lat, lng float64) planar {
	phi := toRad(lat)
	lambda := toRad(lng)
	return planar{
		x: earthRadiusMeters * lambda * math.Cos(phi),
		y: earthRadiusMeters * phi,
	}
}

// SegmentProjection is the result of projecting a point onto the straight
// chord between a leg's endpoints.
type SegmentProjection struct {
	// DistanceMeters is the Euclidean distance from the point to the
	// clamped projection, in the local planar frame.
	DistanceMeters float64
	// FractionAlong is the scalar projection fraction clamped to [0, 1].
	FractionAlong float64
	// ChordMeters is the planar length of the start→end chord.
	ChordMeters float64
}

// ProjectOntoSegment projects (lat, lng) onto the chord from start to end.
// A degenerate chord (start == end) projects everything onto start with
// FractionAlong 0.
func ProjectOntoSegment(startLat, startLng, endLat, endLng, lat, lng float64) SegmentProjection {
	start := toPlanar(startLat, startLng)
	end := toPlanar(endLat, endLng)
	point := toPlanar(lat, lng)

	segX, segY := end.x-start.x, end.y-start.y
	ptX, ptY := point.x-start.x, point.y-start.y

	lenSq := segX*segX + segY*segY
	frac := 0.0
	if lenSq > 0 {
		frac = clamp((ptX*segX+ptY*segY)/lenSq, 0, 1)
	}

	projX := start.x + segX*frac
	projY := start.y + segY*frac
	dx, dy := point.x-projX, point.y-projY

	return SegmentProjection{
		DistanceMeters: math.Sqrt(dx*dx + dy*dy),
		FractionAlong:  frac,
		ChordMeters:    math.Sqrt(lenSq),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
