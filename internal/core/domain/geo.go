package domain

// GeoPoint represents a geographic coordinate (WGS 84).
// Lng is used rather than Lon to match the upstream directions payloads.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
	valid  bool
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p GeoPoint) {
	if !b.valid {
		b.MinLat, b.MaxLat = p.Lat, p.Lat
		b.MinLng, b.MaxLng = p.Lng, p.Lng
		b.valid = true
		return
	}
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
	if p.Lng < b.MinLng {
		b.MinLng = p.Lng
	}
	if p.Lng > b.MaxLng {
		b.MaxLng = p.Lng
	}
}

// IsZero reports whether the bounds have never been extended.
func (b *Bounds) IsZero() bool { return !b.valid }
