package grid

import "fmt"

// FrameIndexError reports a frame or level index outside the valid range,
// or a selection along a dimension the variable does not have. Fatal for
// the call that raised it.
type FrameIndexError struct {
	Dim   string
	Index int
	Size  int
}

func (e *FrameIndexError) Error() string {
	if e.Size == 0 {
		return fmt.Sprintf("dimension %q not present in variable", e.Dim)
	}
	return fmt.Sprintf("index %d out of range for dimension %q (size %d)", e.Index, e.Dim, e.Size)
}

// ShapeError reports a reduction that did not converge to rank 2. It names
// the dimensions left unresolved so the caller can see what a structurally
// incompatible variable looks like.
type ShapeError struct {
	Dims  []string
	Shape []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("reduced data is not 2D: dimensions %v with shape %v remain", e.Dims, e.Shape)
}

// CropTooSmallError reports a zoom crop that collapsed below 2 grid points
// on an axis. The caller should report and skip, or clamp the zoom factor.
type CropTooSmallError struct {
	Axis   string
	Points int
}

func (e *CropTooSmallError) Error() string {
	return fmt.Sprintf("zoom crop on %s axis keeps %d grid points, need at least 2", e.Axis, e.Points)
}
