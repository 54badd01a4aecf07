package firms

import (
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
)

// milesPerDegree approximates one degree of latitude. It is slightly below
// the true value so the derived box errs on the large side.
const milesPerDegree = 69.0

// BBox is a west,south,east,north rectangle in degrees.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// ConusBBox roughly covers the contiguous United States.
var ConusBBox = BBox{West: -125, South: 24, East: -66, North: 50}

// String formats the box in the order the FIRMS area endpoint expects.
func (b BBox) String() string {
	return fmt.Sprintf("%s,%s,%s,%s", formatCoord(b.West), formatCoord(b.South), formatCoord(b.East), formatCoord(b.North))
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(p domain.Point) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lon >= b.West && p.Lon <= b.East
}

// BBoxAround returns a box containing every point within radiusMiles of
// center. The longitude half-width grows with latitude, edges are rounded
// outward to 2 decimals, and the result is clamped to valid coordinates. A
// circle that reaches a pole gets the full longitude range. Boxes are not
// split at the antimeridian; they are clamped to ±180.
func BBoxAround(center domain.Point, radiusMiles float64) BBox {
	dLat := radiusMiles / milesPerDegree

	b := BBox{
		South: floor2(center.Lat - dLat),
		North: ceil2(center.Lat + dLat),
	}

	b.West, b.East = -180, 180
	if b.North < 90 && b.South > -90 {
		// Widest longitude extent of a small circle of angular radius dLat.
		x := math.Sin(dLat*math.Pi/180) / math.Cos(center.Lat*math.Pi/180)
		if x < 1 {
			dLon := math.Asin(x) * 180 / math.Pi
			b.West = floor2(center.Lon - dLon)
			b.East = ceil2(center.Lon + dLon)
		}
	}

	b.South = math.Max(b.South, -90)
	b.North = math.Min(b.North, 90)
	b.West = math.Max(b.West, -180)
	b.East = math.Min(b.East, 180)
	return b
}

func floor2(v float64) float64 { return math.Floor(v*100) / 100 }
func ceil2(v float64) float64  { return math.Ceil(v*100) / 100 }

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
