package grid

// array is a labeled N-dimensional float64 array in row-major layout. It is
// the working representation inside Reduce; callers only ever see the final
// rank-2 Raster.
type array struct {
	data  []float64
	shape []int
	dims  []string
}

func (a *array) rank() int { return len(a.shape) }

func (a *array) size() int {
	n := 1
	for _, s := range a.shape {
		n *= s
	}
	return n
}

// strides returns the row-major stride of each axis.
func (a *array) strides() []int {
	st := make([]int, len(a.shape))
	acc := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= a.shape[i]
	}
	return st
}

func (a *array) axisOf(dim string) int {
	for i, d := range a.dims {
		if d == dim {
			return i
		}
	}
	return -1
}

// selectAxis fixes one axis at the given index, dropping it from the shape.
func (a *array) selectAxis(axis, idx int) *array {
	st := a.strides()
	outShape := make([]int, 0, len(a.shape)-1)
	outDims := make([]string, 0, len(a.dims)-1)
	for i := range a.shape {
		if i == axis {
			continue
		}
		outShape = append(outShape, a.shape[i])
		outDims = append(outDims, a.dims[i])
	}

	out := &array{
		data:  make([]float64, 0, a.size()/a.shape[axis]),
		shape: outShape,
		dims:  outDims,
	}

	base := idx * st[axis]
	var walk func(depth, offset int)
	walk = func(depth, offset int) {
		if depth == len(a.shape) {
			out.data = append(out.data, a.data[offset])
			return
		}
		if depth == axis {
			walk(depth+1, offset)
			return
		}
		for i := 0; i < a.shape[depth]; i++ {
			walk(depth+1, offset+i*st[depth])
		}
	}
	walk(0, base)
	return out
}

// meanAxis averages over one axis. The mean is NaN-propagating: any NaN in
// a lane makes the averaged cell NaN.
func (a *array) meanAxis(axis int) *array {
	st := a.strides()
	n := a.shape[axis]

	sum := a.selectAxis(axis, 0)
	// Accumulate the remaining slices on top of slice 0.
	for k := 1; k < n; k++ {
		i := 0
		base := k * st[axis]
		var walk func(depth, offset int)
		walk = func(depth, offset int) {
			if depth == len(a.shape) {
				sum.data[i] += a.data[offset]
				i++
				return
			}
			if depth == axis {
				walk(depth+1, offset)
				return
			}
			for j := 0; j < a.shape[depth]; j++ {
				walk(depth+1, offset+j*st[depth])
			}
		}
		walk(0, base)
	}
	for i := range sum.data {
		sum.data[i] /= float64(n)
	}
	return sum
}

// squeeze drops every singleton axis.
func (a *array) squeeze() *array {
	outShape := make([]int, 0, len(a.shape))
	outDims := make([]string, 0, len(a.dims))
	for i, s := range a.shape {
		if s == 1 {
			continue
		}
		outShape = append(outShape, s)
		outDims = append(outDims, a.dims[i])
	}
	return &array{data: a.data, shape: outShape, dims: outDims}
}
