package usecase

import (
	"errors"
	"fmt"
	"os"

	"github.com/gridframe/ncanimate/internal/dataset"
	"github.com/gridframe/ncanimate/internal/fileset"
	"github.com/gridframe/ncanimate/internal/grid"
	"github.com/gridframe/ncanimate/internal/scan"
)

// ErrSyntheticZoom is returned when a lat/lon-centered zoom is requested on
// a file without real coordinate metadata. Index-based coordinates have no
// geographic meaning, so centering on degrees would silently crop the wrong
// region.
var ErrSyntheticZoom = errors.New("zoom center requires real coordinates, file has none")

// FrameRequest describes one raster extraction: which variable, which frame
// along which dimension, and the masking/cropping to apply.
type FrameRequest struct {
	// Variable to render
	Variable string

	// Frame position along the animation dimension
	FrameIndex int

	// Animation dimension name - if empty, the first non-spatial
	// dimension of the file is used
	FrameDim string

	// Vertical level index for 4D+ variables (nil averages levels out)
	Level *int

	// Value masking
	Filter grid.FilterSpec

	// Spatial crop
	Zoom grid.ZoomSpec
}

// Frame is one rendered raster with its resolved coordinates. VMin/VMax are
// the color-scale bounds; nil when the raster holds no usable value. Source
// is the file path when the frame came through FrameAt.
type Frame struct {
	Source string
	Raster grid.Raster
	Lats   *dataset.Coord
	Lons   *dataset.Coord
	Kind   grid.CoordKind
	VMin   *float64
	VMax   *float64
	Units  string
}

// Producer turns datasets into frames. It holds the opener so the HTTP
// layer and the CLI share one code path.
type Producer struct {
	Open dataset.Opener
}

// NewProducer creates a frame producer over the given dataset opener.
func NewProducer(open dataset.Opener) *Producer {
	return &Producer{Open: open}
}

// Validate checks if the request is valid
func (r *FrameRequest) Validate() error {
	if r.Variable == "" {
		return fmt.Errorf("variable must be provided")
	}
	if r.FrameIndex < 0 {
		return fmt.Errorf("frame index must not be negative")
	}
	if r.Level != nil && *r.Level < 0 {
		return fmt.Errorf("level index must not be negative")
	}
	if err := r.Filter.Validate(); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	if err := r.Zoom.Validate(); err != nil {
		return fmt.Errorf("invalid zoom: %w", err)
	}
	return nil
}

// Frame extracts one frame from an already-open dataset.
func (p *Producer) Frame(ds dataset.Dataset, req FrameRequest) (*Frame, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	frameDim := req.FrameDim
	if frameDim == "" {
		d, ok := grid.AnimationDim(ds)
		if !ok {
			return nil, fmt.Errorf("no animation dimension found in file")
		}
		frameDim = d
	}

	raster, coords, err := grid.Reduce(ds, req.Variable, req.FrameIndex, frameDim, req.Level)
	if err != nil {
		return nil, err
	}

	if coords.Synthetic() && req.Zoom.Centered() {
		return nil, ErrSyntheticZoom
	}

	lats, lons := coords.Lats, coords.Lons
	if !req.Zoom.Identity() {
		var rows, cols grid.IndexRange
		lats, lons, rows, cols, err = grid.Crop(lats, lons, req.Zoom)
		if err != nil {
			return nil, err
		}
		raster = grid.CropRaster(raster, rows, cols)
	}

	raster = req.Filter.Apply(raster)

	f := &Frame{
		Raster: raster,
		Lats:   lats,
		Lons:   lons,
		Kind:   coords.Kind,
		Units:  variableUnits(ds, req.Variable),
	}
	if min, max, ok := raster.MinMax(); ok {
		f.VMin = &min
		f.VMax = &max
	}
	return f, nil
}

// FrameAt opens a file and extracts one frame from it.
func (p *Producer) FrameAt(path string, req FrameRequest) (*Frame, error) {
	ds, err := p.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer ds.Close()

	f, err := p.Frame(ds, req)
	if err != nil {
		return nil, err
	}
	f.Source = path
	return f, nil
}

// GlobalRange samples the file set and returns a value range shared by
// every frame, so the color scale does not flicker across the animation,
// plus the number of files actually measured. Filtering and cropping from
// the request apply before measuring, and a nil range means no sampled file
// held a usable value.
func (p *Producer) GlobalRange(fs *fileset.FileSet, req FrameRequest, sampleCap int) (*scan.Range, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid request: %w", err)
	}
	reduce := func(ds dataset.Dataset) (grid.Raster, error) {
		f, err := p.Frame(ds, req)
		if err != nil {
			return nil, err
		}
		return f.Raster, nil
	}
	return scan.Scan(fs, p.Open, reduce, sampleCap)
}

// FrameSequence extracts one frame per file, in set order. A *grid.ShapeError
// on the first file aborts the run: a structurally incompatible selection
// would fail identically on every file. Any other failure is logged, the
// file's path collected in skipped, and the sequence continues, so one
// corrupt file does not kill a long batch. The sequence fails only when no
// file at all produces a frame.
func (p *Producer) FrameSequence(fs *fileset.FileSet, req FrameRequest) (frames []*Frame, skipped []string, err error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid request: %w", err)
	}
	for i, f := range fs.Files {
		frame, err := p.FrameAt(f.Path, req)
		if err != nil {
			var shapeErr *grid.ShapeError
			if i == 0 && errors.As(err, &shapeErr) {
				return nil, nil, fmt.Errorf("first file %q: %w", f.Path, err)
			}
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", f.Path, err)
			skipped = append(skipped, f.Path)
			continue
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 && fs.Len() > 0 {
		return nil, nil, fmt.Errorf("no file in the set produced a frame")
	}
	return frames, skipped, nil
}

func variableUnits(ds dataset.Dataset, name string) string {
	v, err := ds.Variable(name)
	if err != nil {
		return ""
	}
	units, _ := v.Attr("units")
	return units
}
