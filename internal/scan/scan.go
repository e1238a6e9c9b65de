// Package scan samples a file set to estimate a global value range for a
// fixed color scale across animation frames.
package scan

import (
	"errors"
	"fmt"
	"os"

	"github.com/gridframe/ncanimate/internal/dataset"
	"github.com/gridframe/ncanimate/internal/fileset"
	"github.com/gridframe/ncanimate/internal/grid"
)

// DefaultSampleCap is how many files a scan inspects when the caller does
// not say otherwise. Sampling trades exactness for not opening a
// thousand-file batch twice.
const DefaultSampleCap = 10

// Range is an inclusive value interval.
type Range struct {
	Min float64
	Max float64
}

// ReduceFunc turns one open dataset into the raster whose values the scan
// measures. Filtering, when wanted, happens inside the func so the measured
// range matches what rendering will show.
type ReduceFunc func(ds dataset.Dataset) (grid.Raster, error)

// Scan reduces up to sampleCap files (DefaultSampleCap when <= 0) and
// returns the min/max over every non-NaN cell seen, together with how many
// files were actually measured.
//
// A *grid.ShapeError on the first file aborts the scan: a structurally
// incompatible selection would fail the same way on every file. Any other
// failure, first file included, is logged and the file skipped. When no
// sampled file yields a usable value the range is nil, which callers treat
// as "fall back to per-frame scaling".
func Scan(fs *fileset.FileSet, open dataset.Opener, reduce ReduceFunc, sampleCap int) (*Range, int, error) {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	n := fs.Len()
	if n > sampleCap {
		n = sampleCap
	}

	var r *Range
	sampled := 0
	for i := 0; i < n; i++ {
		path := fs.Files[i].Path
		min, max, ok, err := scanOne(path, open, reduce)
		if err != nil {
			var shapeErr *grid.ShapeError
			if i == 0 && errors.As(err, &shapeErr) {
				return nil, 0, fmt.Errorf("scan %q: %w", path, err)
			}
			fmt.Fprintf(os.Stderr, "Warning: skipping %s in range scan: %v\n", path, err)
			continue
		}
		sampled++
		if !ok {
			continue
		}
		if r == nil {
			r = &Range{Min: min, Max: max}
			continue
		}
		if min < r.Min {
			r.Min = min
		}
		if max > r.Max {
			r.Max = max
		}
	}
	return r, sampled, nil
}

func scanOne(path string, open dataset.Opener, reduce ReduceFunc) (min, max float64, ok bool, err error) {
	ds, err := open(path)
	if err != nil {
		return 0, 0, false, err
	}
	defer ds.Close()

	raster, err := reduce(ds)
	if err != nil {
		return 0, 0, false, err
	}
	min, max, ok = raster.MinMax()
	return min, max, ok, nil
}
