package world

import "math"

// Zone types used by the default campus layout and by the interaction rules.
const (
	ZoneMeeting = "meeting"
	ZoneSocial  = "social"
	ZoneLecture = "lecture"
	ZoneGaming  = "gaming"
	ZoneQuiet   = "quiet"
)

// Zone is a named, static, axis-aligned rectangle of the world.
type Zone struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Type   string  `json:"type"`
	Locked bool    `json:"locked"`
}

// Contains reports whether (x, y) lies inside the zone, edges included.
// Degenerate rectangles contain nothing.
func (z Zone) Contains(x, y float64) bool {
	if z.Width <= 0 || z.Height <= 0 {
		return false
	}
	return x >= z.X && x <= z.X+z.Width && y >= z.Y && y <= z.Y+z.Height
}

// DefaultZones returns the built-in campus layout used when no zone catalog
// is configured.
func DefaultZones() []Zone {
	return []Zone{
		{ID: "meet1", Name: "Meeting Room 1", X: 100, Y: 100, Width: 50, Height: 50, Type: ZoneMeeting},
		{ID: "club1", Name: "Club House 1", X: 200, Y: 150, Width: 70, Height: 70, Type: ZoneSocial},
		{ID: "lecture1", Name: "Lecture Hall 1", X: 300, Y: 200, Width: 100, Height: 80, Type: ZoneLecture},
		{ID: "gaming", Name: "Gaming Zone", X: 400, Y: 250, Width: 120, Height: 90, Type: ZoneGaming},
		{ID: "library", Name: "Library", X: 500, Y: 300, Width: 80, Height: 60, Type: ZoneQuiet},
	}
}

// ZoneAt returns the first zone in zones that contains (x, y).
func ZoneAt(zones []Zone, x, y float64) (Zone, bool) {
	for _, z := range zones {
		if z.Contains(x, y) {
			return z, true
		}
	}
	return Zone{}, false
}

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
