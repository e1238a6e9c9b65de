package grid

import "math"

// Raster is a rank-2 value grid. Rows follow the latitude axis, columns the
// longitude axis. NaN marks masked cells.
type Raster [][]float64

// Rows returns the number of rows.
func (r Raster) Rows() int { return len(r) }

// Cols returns the number of columns.
func (r Raster) Cols() int {
	if len(r) == 0 {
		return 0
	}
	return len(r[0])
}

// Clone returns a deep copy.
func (r Raster) Clone() Raster {
	out := make(Raster, len(r))
	for i, row := range r {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// MinMax returns the smallest and largest non-NaN values, and whether any
// such value exists.
func (r Raster) MinMax() (min, max float64, ok bool) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, row := range r {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return min, max, true
}

func rasterFromFlat(data []float64, rows, cols int) Raster {
	out := make(Raster, rows)
	for i := 0; i < rows; i++ {
		out[i] = data[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return out
}
