package grid

import "github.com/gridframe/ncanimate/internal/dataset"

// CoordKind tags how a raster's coordinates were resolved.
type CoordKind int

const (
	// CoordsReal means latitude/longitude arrays came from dataset or
	// variable metadata and carry geographic meaning.
	CoordsReal CoordKind = iota

	// CoordsSynthetic means no coordinate metadata was found and integer
	// index arrays were substituted. Callers doing geographic work must
	// check for this kind rather than treat indices as degrees.
	CoordsSynthetic
)

// Coords is the resolved horizontal grid of a raster. The arrays are rank 1
// or rank 2, matching what the source file provides.
type Coords struct {
	Kind CoordKind
	Lats *dataset.Coord
	Lons *dataset.Coord
}

// Synthetic reports whether the coordinates are index-array fallbacks.
func (c Coords) Synthetic() bool { return c.Kind == CoordsSynthetic }

// ResolveCoords finds latitude/longitude arrays for a rows×cols raster.
//
// Resolution order: dataset-level "latitude"/"longitude", dataset-level
// "lat"/"lon", the variable's own coordinate metadata under either naming,
// and finally synthetic integer index arrays sized to the raster. The
// fallback is not an error but is tagged so callers can detect it.
func ResolveCoords(ds dataset.Dataset, v dataset.Variable, rows, cols int) Coords {
	pairs := [][2]string{{"latitude", "longitude"}, {"lat", "lon"}}

	for _, p := range pairs {
		if lats, ok := ds.Coordinate(p[0]); ok {
			if lons, ok := ds.Coordinate(p[1]); ok {
				return Coords{Kind: CoordsReal, Lats: lats, Lons: lons}
			}
		}
	}
	for _, p := range pairs {
		if lats, ok := v.Coord(p[0]); ok {
			if lons, ok := v.Coord(p[1]); ok {
				return Coords{Kind: CoordsReal, Lats: lats, Lons: lons}
			}
		}
	}
	return Coords{Kind: CoordsSynthetic, Lats: indexCoord(rows), Lons: indexCoord(cols)}
}

func indexCoord(n int) *dataset.Coord {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	return &dataset.Coord{Values: vals, Shape: []int{n}}
}
