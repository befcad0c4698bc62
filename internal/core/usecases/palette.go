package usecases

// routeColors is the cyclic palette assigned to segments by index.
var routeColors = []string{
	"#1a73e8",
	"#ff7043",
	"#34a853",
	"#ab47bc",
	"#fbbc04",
	"#00acc1",
}

// RouteColorAt returns the palette color for a segment index.
func RouteColorAt(index int) string {
	if index < 0 {
		return routeColors[0]
	}
	return routeColors[index%len(routeColors)]
}

// RouteColors returns one color per segment, cycling through the palette.
func RouteColors(count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = RouteColorAt(i)
	}
	return out
}
