// Package ncfile adapts NetCDF files behind the dataset contract using the
// netCDF C library bindings.
package ncfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/gridframe/ncanimate/internal/dataset"
)

// File is an open NetCDF file. It satisfies dataset.Dataset.
type File struct {
	path string
	nc   netcdf.Dataset

	// Metadata snapshot taken at open time. NetCDF inquiry calls are
	// cheap but error-prone to thread through every accessor.
	varNames []string
	vars     map[string]*ncVar
	dims     []dataset.Dimension
}

// Open opens a NetCDF file read-only and snapshots its metadata. Values are
// not read until a variable's Read is called.
func Open(path string) (dataset.Dataset, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open NetCDF file %q: %w", path, err)
	}

	f := &File{path: path, nc: nc, vars: map[string]*ncVar{}}
	if err := f.snapshot(); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("read metadata of %q: %w", path, err)
	}
	return f, nil
}

// Opener returns dataset.Opener backed by Open.
func Opener() dataset.Opener { return Open }

func (f *File) snapshot() error {
	nvars, err := f.nc.NVars()
	if err != nil {
		return fmt.Errorf("count variables: %w", err)
	}

	seenDim := map[string]bool{}
	for i := 0; i < nvars; i++ {
		v := f.nc.VarN(i)
		name, err := v.Name()
		if err != nil {
			return fmt.Errorf("variable %d name: %w", i, err)
		}

		dims, err := v.Dims()
		if err != nil {
			return fmt.Errorf("variable %q dimensions: %w", name, err)
		}
		dimNames := make([]string, len(dims))
		shape := make([]int, len(dims))
		for j, d := range dims {
			dn, err := d.Name()
			if err != nil {
				return fmt.Errorf("variable %q dimension %d name: %w", name, j, err)
			}
			ln, err := d.Len()
			if err != nil {
				return fmt.Errorf("dimension %q length: %w", dn, err)
			}
			dimNames[j] = dn
			shape[j] = int(ln)
			if !seenDim[dn] {
				seenDim[dn] = true
				f.dims = append(f.dims, dataset.Dimension{Name: dn, Size: int(ln)})
			}
		}

		t, err := v.Type()
		if err != nil {
			return fmt.Errorf("variable %q type: %w", name, err)
		}

		f.varNames = append(f.varNames, name)
		f.vars[name] = &ncVar{
			file:  f,
			v:     v,
			name:  name,
			dims:  dimNames,
			shape: shape,
			dtype: dtypeName(t),
		}
	}
	return nil
}

// Variables lists variable names in file order.
func (f *File) Variables() []string { return f.varNames }

// Variable looks a variable up by name.
func (f *File) Variable(name string) (dataset.Variable, error) {
	v, ok := f.vars[name]
	if !ok {
		return nil, &dataset.MissingVariableError{Path: f.path, Name: name}
	}
	return v, nil
}

// Dimensions lists the dimensions of the file, in the order variables first
// reference them.
func (f *File) Dimensions() []dataset.Dimension { return f.dims }

// Coordinate returns the values of a rank-1 or rank-2 variable by name,
// the NetCDF convention for coordinate arrays.
func (f *File) Coordinate(name string) (*dataset.Coord, bool) {
	v, ok := f.vars[name]
	if !ok || len(v.shape) == 0 || len(v.shape) > 2 {
		return nil, false
	}
	data, err := v.Read()
	if err != nil {
		return nil, false
	}
	return &dataset.Coord{Values: data, Shape: append([]int(nil), v.shape...)}, true
}

// Close closes the underlying NetCDF file.
func (f *File) Close() error { return f.nc.Close() }

// ncVar is one variable of an open file.
type ncVar struct {
	file  *File
	v     netcdf.Var
	name  string
	dims  []string
	shape []int
	dtype string
}

func (v *ncVar) Name() string   { return v.name }
func (v *ncVar) Dims() []string { return append([]string(nil), v.dims...) }
func (v *ncVar) Shape() []int   { return append([]int(nil), v.shape...) }
func (v *ncVar) DType() string  { return v.dtype }

// Attr reads one attribute rendered as a string. Character attributes come
// back verbatim, numeric ones formatted with %g. The typed readers are
// probed in order since text reads fail on numeric attributes and vice
// versa.
func (v *ncVar) Attr(name string) (string, bool) {
	a := v.v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}

	text := make([]byte, n)
	if err := a.ReadBytes(text); err == nil {
		return strings.TrimRight(string(text), "\x00"), true
	}

	nums := make([]float64, n)
	if err := a.ReadFloat64s(nums); err == nil {
		parts := make([]string, len(nums))
		for i, x := range nums {
			parts[i] = fmt.Sprintf("%g", x)
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

// Coord resolves a coordinate array for this variable: a file variable with
// the given name whose dimensions are all dimensions of this variable.
func (v *ncVar) Coord(name string) (*dataset.Coord, bool) {
	cv, ok := v.file.vars[name]
	if !ok || cv == v {
		return nil, false
	}
	mine := map[string]bool{}
	for _, d := range v.dims {
		mine[d] = true
	}
	for _, d := range cv.dims {
		if !mine[d] {
			return nil, false
		}
	}
	return v.file.Coordinate(name)
}

// Read loads the whole variable as float64, converting from the on-disk
// type. Fill values marked by _FillValue or missing_value become NaN.
func (v *ncVar) Read() ([]float64, error) {
	total := 1
	for _, s := range v.shape {
		total *= s
	}

	t, err := v.v.Type()
	if err != nil {
		return nil, fmt.Errorf("variable %q type: %w", v.name, err)
	}

	var data []float64
	switch t {
	case netcdf.DOUBLE:
		data = make([]float64, total)
		if err := v.v.ReadFloat64s(data); err != nil {
			return nil, fmt.Errorf("read %q: %w", v.name, err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.v.ReadFloat32s(tmp); err != nil {
			return nil, fmt.Errorf("read %q: %w", v.name, err)
		}
		data = make([]float64, total)
		for i, val := range tmp {
			data[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.v.ReadInt32s(tmp); err != nil {
			return nil, fmt.Errorf("read %q: %w", v.name, err)
		}
		data = make([]float64, total)
		for i, val := range tmp {
			data[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.v.ReadInt16s(tmp); err != nil {
			return nil, fmt.Errorf("read %q: %w", v.name, err)
		}
		data = make([]float64, total)
		for i, val := range tmp {
			data[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %q: unsupported type %v", v.name, t)
	}

	if fv, ok := fillValue(v.v); ok {
		for i, val := range data {
			if val == fv {
				data[i] = math.NaN()
			}
		}
	}
	return data, nil
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		n, err := a.Len()
		if err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
	}
	return 0, false
}

func dtypeName(t netcdf.Type) string {
	switch t {
	case netcdf.DOUBLE:
		return "float64"
	case netcdf.FLOAT:
		return "float32"
	case netcdf.INT:
		return "int32"
	case netcdf.SHORT:
		return "int16"
	case netcdf.INT64:
		return "int64"
	case netcdf.UINT64:
		return "uint64"
	case netcdf.UINT:
		return "uint32"
	case netcdf.USHORT:
		return "uint16"
	case netcdf.BYTE:
		return "int8"
	case netcdf.UBYTE:
		return "uint8"
	case netcdf.CHAR:
		return "char"
	case netcdf.STRING:
		return "string"
	default:
		return fmt.Sprintf("type(%v)", t)
	}
}
