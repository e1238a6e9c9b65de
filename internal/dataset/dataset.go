// Package dataset defines the gridded-data collaborator contract consumed
// by the reduction and file-set layers. Implementations live under
// internal/adapter; the in-memory implementation in this package doubles as
// a test fixture and a programmatic data source.
package dataset

import "fmt"

// Coord is a coordinate array of rank 1 or 2.
type Coord struct {
	Values []float64
	Shape  []int
}

// Rank returns the number of axes of the coordinate array.
func (c *Coord) Rank() int {
	return len(c.Shape)
}

// Len returns the total number of coordinate values.
func (c *Coord) Len() int {
	n := 1
	for _, s := range c.Shape {
		n *= s
	}
	if len(c.Shape) == 0 {
		return 0
	}
	return n
}

// Dimension is a named dimension with its size.
type Dimension struct {
	Name string
	Size int
}

// Variable is an N-dimensional numeric array with ordered dimension names
// and an attribute mapping. The core reads variables, never mutates them.
type Variable interface {
	Name() string

	// Dims returns the ordered dimension names, outermost first.
	Dims() []string

	// Shape returns the per-dimension sizes, matching Dims order.
	Shape() []int

	// DType names the on-disk element type (e.g. "float64", "float32").
	DType() string

	// Attr returns a named attribute rendered as text.
	Attr(name string) (string, bool)

	// Coord returns coordinate metadata attached to the variable itself,
	// if any. This is the third stop in coordinate resolution, after the
	// dataset-level lookups.
	Coord(name string) (*Coord, bool)

	// Read returns the variable's values flattened in row-major order,
	// widened to float64.
	Read() ([]float64, error)
}

// Dataset is one open gridded data file. Lifetime is scoped to one file's
// processing: the caller opens it, reduces from it, and closes it before
// opening the next.
type Dataset interface {
	// Variables returns data variable names in file order.
	Variables() []string

	// Variable looks up a variable by name. Returns *MissingVariableError
	// when absent.
	Variable(name string) (Variable, error)

	// Dimensions returns the file's dimensions in file order.
	Dimensions() []Dimension

	// Coordinate returns a dataset-level coordinate array by name.
	Coordinate(name string) (*Coord, bool)

	Close() error
}

// Opener opens a dataset by path. The file-set and scanning layers take an
// Opener so they stay independent of the concrete file format.
type Opener func(path string) (Dataset, error)

// MissingVariableError reports a variable absent from a file. Fatal for
// that file, non-fatal for a batch.
type MissingVariableError struct {
	Path string
	Name string
}

func (e *MissingVariableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("variable %q not found", e.Name)
	}
	return fmt.Sprintf("variable %q not found in %s", e.Name, e.Path)
}

// DTypeSize returns the element size in bytes for a dtype name.
func DTypeSize(dtype string) (int, bool) {
	switch dtype {
	case "float64", "int64", "uint64":
		return 8, true
	case "float32", "int32", "uint32":
		return 4, true
	case "int16", "uint16":
		return 2, true
	case "int8", "uint8", "byte", "char":
		return 1, true
	default:
		return 0, false
	}
}
