package dataset

import "fmt"

// MemVariable is an in-memory Variable.
type MemVariable struct {
	VarName  string
	DimNames []string
	Sizes    []int
	DTypeStr string
	Data     []float64
	AttrMap  map[string]string
	Coords   map[string]*Coord
}

// Name implements Variable.
func (v *MemVariable) Name() string { return v.VarName }

// Dims implements Variable.
func (v *MemVariable) Dims() []string { return v.DimNames }

// Shape implements Variable.
func (v *MemVariable) Shape() []int { return v.Sizes }

// DType implements Variable. Defaults to float64 when unset.
func (v *MemVariable) DType() string {
	if v.DTypeStr == "" {
		return "float64"
	}
	return v.DTypeStr
}

// Attr implements Variable.
func (v *MemVariable) Attr(name string) (string, bool) {
	val, ok := v.AttrMap[name]
	return val, ok
}

// Coord implements Variable.
func (v *MemVariable) Coord(name string) (*Coord, bool) {
	c, ok := v.Coords[name]
	return c, ok
}

// Read implements Variable.
func (v *MemVariable) Read() ([]float64, error) {
	want := 1
	for _, s := range v.Sizes {
		want *= s
	}
	if len(v.Data) != want {
		return nil, fmt.Errorf("variable %q: have %d values, shape %v wants %d",
			v.VarName, len(v.Data), v.Sizes, want)
	}
	out := make([]float64, len(v.Data))
	copy(out, v.Data)
	return out, nil
}

// Memory is an in-memory Dataset.
type Memory struct {
	Path    string
	Vars    []*MemVariable
	DimList []Dimension
	Coords  map[string]*Coord
}

// Variables implements Dataset.
func (m *Memory) Variables() []string {
	names := make([]string, len(m.Vars))
	for i, v := range m.Vars {
		names[i] = v.VarName
	}
	return names
}

// Variable implements Dataset.
func (m *Memory) Variable(name string) (Variable, error) {
	for _, v := range m.Vars {
		if v.VarName == name {
			return v, nil
		}
	}
	return nil, &MissingVariableError{Path: m.Path, Name: name}
}

// Dimensions implements Dataset.
func (m *Memory) Dimensions() []Dimension { return m.DimList }

// Coordinate implements Dataset.
func (m *Memory) Coordinate(name string) (*Coord, bool) {
	c, ok := m.Coords[name]
	return c, ok
}

// Close implements Dataset. It is a no-op for in-memory data.
func (m *Memory) Close() error { return nil }

// MapOpener returns an Opener serving in-memory datasets by path. Paths not
// present in the map yield an error, mimicking a failed file open.
func MapOpener(files map[string]*Memory) Opener {
	return func(path string) (Dataset, error) {
		ds, ok := files[path]
		if !ok {
			return nil, fmt.Errorf("open %s: no such dataset", path)
		}
		return ds, nil
	}
}
