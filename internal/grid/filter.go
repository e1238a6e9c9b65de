package grid

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FilterSpec masks raster cells before rendering. Ignored values are matched
// by exact equality and replaced with NaN; the percentile threshold then
// masks everything below the Nth percentile of the strictly positive values.
// Percentile 0 disables the threshold.
type FilterSpec struct {
	Percentile   int
	IgnoreValues []float64
}

// Validate checks the spec.
func (f FilterSpec) Validate() error {
	if f.Percentile < 0 || f.Percentile > 100 {
		return fmt.Errorf("percentile %d out of range [0, 100]", f.Percentile)
	}
	return nil
}

// Active reports whether the spec masks anything at all.
func (f FilterSpec) Active() bool {
	return f.Percentile > 0 || len(f.IgnoreValues) > 0
}

// MaskIgnored returns a copy of the raster with every cell exactly equal to
// one of the ignore values replaced by NaN. The input is not mutated.
func MaskIgnored(r Raster, ignore []float64) Raster {
	out := r.Clone()
	if len(ignore) == 0 {
		return out
	}
	for _, row := range out {
		for i, v := range row {
			for _, ig := range ignore {
				if v == ig {
					row[i] = math.NaN()
					break
				}
			}
		}
	}
	return out
}

// MaskBelowPercentile returns a copy of the raster with every cell below
// the pth percentile of the strictly positive values replaced by NaN. Cells
// equal to the threshold survive. With no positive values the threshold is
// 0, which masks negative cells and keeps zeros; at p = 0 the threshold is
// the minimum positive value, so zeros and negatives are still masked.
func MaskBelowPercentile(r Raster, p int) Raster {
	threshold := positivePercentile(r, p)
	out := r.Clone()
	for _, row := range out {
		for i, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v < threshold {
				row[i] = math.NaN()
			}
		}
	}
	return out
}

// Apply runs the full filter: ignored values first, so they never count
// toward the percentile population, then the percentile mask. Percentile 0
// means no percentile masking at all, the way the run configuration
// disables the filter.
func (f FilterSpec) Apply(r Raster) Raster {
	out := MaskIgnored(r, f.IgnoreValues)
	if f.Percentile > 0 {
		out = MaskBelowPercentile(out, f.Percentile)
	}
	return out
}

// positivePercentile computes the pth percentile of the strictly positive,
// non-NaN values of the raster.
func positivePercentile(r Raster, p int) float64 {
	var pos []float64
	for _, row := range r {
		for _, v := range row {
			if v > 0 && !math.IsNaN(v) {
				pos = append(pos, v)
			}
		}
	}
	if len(pos) == 0 {
		return 0
	}
	sort.Float64s(pos)
	return stat.Quantile(float64(p)/100, stat.LinInterp, pos, nil)
}
