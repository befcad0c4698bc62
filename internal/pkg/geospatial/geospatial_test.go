package geospatial

import (
	"math"
	"testing"
)

// One degree of longitude on the equator.
const oneDegreeMeters = 111194.92664455873

func TestHaversineKnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 37.5665, 126.9780, 37.5665, 126.9780, 0, 0.01},
		{"one degree longitude on equator", 0, 0, 0, 1, oneDegreeMeters, 1},
		{"one degree latitude", 0, 0, 1, 0, oneDegreeMeters, 1},
		{"seoul station to city hall", 37.5546, 126.9706, 37.5657, 126.9769, 1350, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Haversine() = %.2f, want %.2f ± %.2f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineSymmetry(t *testing.T) {
	ab := Haversine(37.5546, 126.9706, 35.1796, 129.0756)
	ba := Haversine(35.1796, 129.0756, 37.5546, 126.9706)
	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestProjectOntoSegmentMidpoint(t *testing.T) {
	// Chord running 1000m east along the equator; point 100m north of the
	// midpoint.
	endLng := 1000.0 / oneDegreeMeters
	pointLat := 100.0 / oneDegreeMeters

	proj := ProjectOntoSegment(0, 0, 0, endLng, pointLat, endLng/2)

	if math.Abs(proj.FractionAlong-0.5) > 1e-6 {
		t.Errorf("FractionAlong = %f, want 0.5", proj.FractionAlong)
	}
	if math.Abs(proj.DistanceMeters-100) > 0.5 {
		t.Errorf("DistanceMeters = %f, want ~100", proj.DistanceMeters)
	}
	if math.Abs(proj.ChordMeters-1000) > 0.5 {
		t.Errorf("ChordMeters = %f, want ~1000", proj.ChordMeters)
	}
}

func TestProjectOntoSegmentClampsBeyondEnds(t *testing.T) {
	endLng := 1000.0 / oneDegreeMeters

	before := ProjectOntoSegment(0, 0, 0, endLng, 0, -endLng)
	if before.FractionAlong != 0 {
		t.Errorf("point before start: FractionAlong = %f, want 0", before.FractionAlong)
	}
	if math.Abs(before.DistanceMeters-1000) > 1 {
		t.Errorf("point before start: DistanceMeters = %f, want ~1000", before.DistanceMeters)
	}

	after := ProjectOntoSegment(0, 0, 0, endLng, 0, 2*endLng)
	if after.FractionAlong != 1 {
		t.Errorf("point past end: FractionAlong = %f, want 1", after.FractionAlong)
	}
	if math.Abs(after.DistanceMeters-1000) > 1 {
		t.Errorf("point past end: DistanceMeters = %f, want ~1000", after.DistanceMeters)
	}
}

func TestProjectOntoSegmentDegenerateChord(t *testing.T) {
	proj := ProjectOntoSegment(37.5, 127.0, 37.5, 127.0, 37.51, 127.0)
	if proj.FractionAlong != 0 {
		t.Errorf("degenerate chord: FractionAlong = %f, want 0", proj.FractionAlong)
	}
	if proj.ChordMeters != 0 {
		t.Errorf("degenerate chord: ChordMeters = %f, want 0", proj.ChordMeters)
	}
	if proj.DistanceMeters <= 0 {
		t.Error("degenerate chord should still measure distance to the point")
	}
}

func TestBoundingBoxContainsPoint(t *testing.T) {
	minLat, minLng, maxLat, maxLng := BoundingBox(37.5665, 126.9780, 500)
	if minLat >= 37.5665 || maxLat <= 37.5665 {
		t.Errorf("latitude range [%f, %f] does not bracket the center", minLat, maxLat)
	}
	if minLng >= 126.9780 || maxLng <= 126.9780 {
		t.Errorf("longitude range [%f, %f] does not bracket the center", minLng, maxLng)
	}
}
