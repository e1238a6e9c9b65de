package grid

import (
	"fmt"
	"strings"

	"github.com/gridframe/ncanimate/internal/dataset"
)

// spatialDimNames are the dimension names recognized as the horizontal
// grid. Everything else is a candidate frame or level dimension.
var spatialDimNames = []string{"lat", "lon", "latitude", "longitude", "y", "x", "nj", "ni"}

// IsSpatialDim reports whether a dimension name denotes a horizontal axis.
func IsSpatialDim(name string) bool {
	for _, s := range spatialDimNames {
		if name == s {
			return true
		}
	}
	return false
}

// AnimationDim returns the first non-spatial dimension of the dataset, in
// file order. This is the default frame dimension when the caller does not
// name one.
func AnimationDim(ds dataset.Dataset) (string, bool) {
	for _, d := range ds.Dimensions() {
		if !IsSpatialDim(d.Name) {
			return d.Name, true
		}
	}
	return "", false
}

// isLevelDim reports whether a dimension name looks like a vertical level
// axis ("level", "level_w", "model_level", ...).
func isLevelDim(name string) bool {
	return strings.Contains(strings.ToLower(name), "level")
}

// Reduce converts one variable of an open dataset to a rank-2 raster for
// the given frame.
//
// The frame dimension is selected at frameIndex. If more than two
// dimensions remain, a level-like dimension is selected at *level when one
// is present and level is non-nil; every other non-spatial dimension is
// then averaged out (NaN-propagating mean) in the order it appears in the
// variable's dimension list. Singleton dimensions are squeezed last.
//
// The result is exactly rank 2 or the call fails: *FrameIndexError for a
// bad frame or level index, *ShapeError when the dimensions cannot be
// resolved to a 2D grid.
func Reduce(ds dataset.Dataset, variable string, frameIndex int, frameDim string, level *int) (Raster, Coords, error) {
	v, err := ds.Variable(variable)
	if err != nil {
		return nil, Coords{}, err
	}

	data, err := v.Read()
	if err != nil {
		return nil, Coords{}, fmt.Errorf("read %q: %w", variable, err)
	}
	arr := &array{data: data, shape: append([]int(nil), v.Shape()...), dims: append([]string(nil), v.Dims()...)}

	// Select the frame.
	axis := arr.axisOf(frameDim)
	if axis < 0 {
		return nil, Coords{}, &FrameIndexError{Dim: frameDim, Index: frameIndex, Size: 0}
	}
	if frameIndex < 0 || frameIndex >= arr.shape[axis] {
		return nil, Coords{}, &FrameIndexError{Dim: frameDim, Index: frameIndex, Size: arr.shape[axis]}
	}
	arr = arr.selectAxis(axis, frameIndex)

	// Resolve leftover non-spatial dimensions.
	if arr.rank() > 2 {
		if level != nil {
			if lvlAxis := levelAxis(arr); lvlAxis >= 0 {
				if *level < 0 || *level >= arr.shape[lvlAxis] {
					return nil, Coords{}, &FrameIndexError{Dim: arr.dims[lvlAxis], Index: *level, Size: arr.shape[lvlAxis]}
				}
				arr = arr.selectAxis(lvlAxis, *level)
			}
		}
		for {
			axis := firstNonSpatialAxis(arr)
			if axis < 0 || arr.rank() <= 2 {
				break
			}
			arr = arr.meanAxis(axis)
		}
	}

	arr = arr.squeeze()

	if arr.rank() != 2 {
		return nil, Coords{}, &ShapeError{Dims: arr.dims, Shape: arr.shape}
	}

	rows, cols := arr.shape[0], arr.shape[1]
	coords := ResolveCoords(ds, v, rows, cols)
	return rasterFromFlat(arr.data, rows, cols), coords, nil
}

func levelAxis(a *array) int {
	for i, d := range a.dims {
		if !IsSpatialDim(d) && isLevelDim(d) {
			return i
		}
	}
	return -1
}

func firstNonSpatialAxis(a *array) int {
	for i, d := range a.dims {
		if !IsSpatialDim(d) {
			return i
		}
	}
	return -1
}
