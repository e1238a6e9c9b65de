package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/gridframe/ncanimate/internal/dataset"
)

// MaxZoomFactor bounds the zoom factor. Beyond this the crop window is
// narrower than any real grid spacing.
const MaxZoomFactor = 125.0

// ZoomSpec describes a zoomed sub-region of the grid. Factor 1 is the
// identity. CenterLat/CenterLon are both-or-neither: with only one set the
// spec is invalid. When neither is set, the crop centers on the midpoint of
// the data's own bounds.
type ZoomSpec struct {
	Factor    float64
	CenterLat *float64
	CenterLon *float64
}

// Identity reports whether the spec leaves the grid untouched.
func (z ZoomSpec) Identity() bool { return z.Factor == 1 }

// Centered reports whether an explicit zoom center is set.
func (z ZoomSpec) Centered() bool { return z.CenterLat != nil && z.CenterLon != nil }

// Validate checks the spec once, at construction time.
func (z ZoomSpec) Validate() error {
	if z.Factor <= 0 || z.Factor > MaxZoomFactor {
		return fmt.Errorf("zoom factor %g out of range (0, %g]", z.Factor, MaxZoomFactor)
	}
	if (z.CenterLat == nil) != (z.CenterLon == nil) {
		return fmt.Errorf("zoom center latitude and longitude must be set together")
	}
	if z.CenterLat != nil {
		if *z.CenterLat < -90 || *z.CenterLat > 90 {
			return fmt.Errorf("zoom center latitude %g out of range [-90, 90]", *z.CenterLat)
		}
		if *z.CenterLon < -180 || *z.CenterLon > 360 {
			return fmt.Errorf("zoom center longitude %g out of range [-180, 360]", *z.CenterLon)
		}
	}
	return nil
}

// IndexRange is a half-open [Start, End) index interval on one raster axis.
type IndexRange struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r IndexRange) Len() int { return r.End - r.Start }

// Crop computes the zoomed sub-region of a coordinate grid.
//
// With factor 1 the inputs are returned unchanged together with the full
// index ranges. Otherwise each axis span is divided by the factor
// independently (non-square grids stay non-square), the window is placed on
// the zoom center or the data midpoint, clamped to the data bounds, and
// mapped to the nearest enclosing grid index ranges. An axis left with
// fewer than 2 points fails with *CropTooSmallError.
func Crop(lats, lons *dataset.Coord, zoom ZoomSpec) (*dataset.Coord, *dataset.Coord, IndexRange, IndexRange, error) {
	if err := zoom.Validate(); err != nil {
		return nil, nil, IndexRange{}, IndexRange{}, err
	}

	rowAxis := rowAxisValues(lats)
	colAxis := colAxisValues(lons)
	full := func(axis []float64) IndexRange { return IndexRange{Start: 0, End: len(axis)} }

	if zoom.Identity() {
		return lats, lons, full(rowAxis), full(colAxis), nil
	}

	latMin, latMax := floats.Min(lats.Values), floats.Max(lats.Values)
	lonMin, lonMax := floats.Min(lons.Values), floats.Max(lons.Values)

	latLo, latHi := window(latMin, latMax, zoom.Factor, zoom.CenterLat)
	lonLo, lonHi := window(lonMin, lonMax, zoom.Factor, zoom.CenterLon)

	rowRange := enclosingRange(rowAxis, latLo, latHi)
	if rowRange.Len() < 2 {
		return nil, nil, IndexRange{}, IndexRange{}, &CropTooSmallError{Axis: "lat", Points: rowRange.Len()}
	}
	colRange := enclosingRange(colAxis, lonLo, lonHi)
	if colRange.Len() < 2 {
		return nil, nil, IndexRange{}, IndexRange{}, &CropTooSmallError{Axis: "lon", Points: colRange.Len()}
	}

	return cropCoord(lats, rowRange, rowRange, colRange), cropCoord(lons, colRange, rowRange, colRange), rowRange, colRange, nil
}

// CropRaster copies a raster down to the index ranges produced by Crop.
// The result owns its cells: writing to it never touches the source.
func CropRaster(r Raster, rows, cols IndexRange) Raster {
	out := make(Raster, 0, rows.Len())
	for i := rows.Start; i < rows.End; i++ {
		row := make([]float64, cols.Len())
		copy(row, r[i][cols.Start:cols.End])
		out = append(out, row)
	}
	return out
}

// window places a span/factor wide interval on the center (or the data
// midpoint) and clamps it to the data bounds. The crop never extrapolates
// beyond the available grid.
func window(min, max, factor float64, center *float64) (lo, hi float64) {
	span := (max - min) / factor
	mid := (min + max) / 2
	if center != nil {
		mid = *center
	}
	lo = mid - span/2
	hi = mid + span/2
	if lo < min {
		lo = min
	}
	if hi > max {
		hi = max
	}
	return lo, hi
}

// rowAxisValues returns a 1D representative of the latitude axis: the
// array itself for rank 1, the first column for rank 2.
func rowAxisValues(c *dataset.Coord) []float64 {
	if c.Rank() != 2 {
		return c.Values
	}
	rows, cols := c.Shape[0], c.Shape[1]
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = c.Values[i*cols]
	}
	return out
}

// colAxisValues returns a 1D representative of the longitude axis: the
// array itself for rank 1, the first row for rank 2.
func colAxisValues(c *dataset.Coord) []float64 {
	if c.Rank() != 2 {
		return c.Values
	}
	return c.Values[:c.Shape[1]]
}

// enclosingRange maps [lo, hi] to the smallest index range whose coordinate
// values cover it. The axis may be ascending or descending.
func enclosingRange(axis []float64, lo, hi float64) IndexRange {
	n := len(axis)
	if n == 0 {
		return IndexRange{}
	}
	ascending := axis[0] <= axis[n-1]

	contains := func(v float64) bool { return v >= lo && v <= hi }

	first, last := -1, -1
	for i, v := range axis {
		if contains(v) {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		// The window fell entirely between two grid points; take the
		// enclosing pair.
		for i := 0; i < n-1; i++ {
			a, b := axis[i], axis[i+1]
			if !ascending {
				a, b = b, a
			}
			if a <= lo && hi <= b {
				return IndexRange{Start: i, End: i + 2}
			}
		}
		return IndexRange{}
	}

	// Widen by one point where the bound falls strictly inside the
	// neighboring cell, so the range encloses the requested window.
	if ascending {
		if first > 0 && axis[first] > lo {
			first--
		}
		if last < n-1 && axis[last] < hi {
			last++
		}
	} else {
		if first > 0 && axis[first] < hi {
			first--
		}
		if last < n-1 && axis[last] > lo {
			last++
		}
	}
	return IndexRange{Start: first, End: last + 1}
}

// cropCoord slices a coordinate array to the crop window. Rank-1 arrays are
// sliced on their own axis; rank-2 arrays on both.
func cropCoord(c *dataset.Coord, own, rows, cols IndexRange) *dataset.Coord {
	if c.Rank() != 2 {
		return &dataset.Coord{Values: c.Values[own.Start:own.End], Shape: []int{own.Len()}}
	}
	outRows, outCols := rows.Len(), cols.Len()
	vals := make([]float64, 0, outRows*outCols)
	for i := rows.Start; i < rows.End; i++ {
		vals = append(vals, c.Values[i*c.Shape[1]+cols.Start:i*c.Shape[1]+cols.End]...)
	}
	return &dataset.Coord{Values: vals, Shape: []int{outRows, outCols}}
}
