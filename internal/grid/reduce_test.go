package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gridframe/ncanimate/internal/dataset"
)

// seq returns [0, 1, ..., n-1] as float64.
func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func tempDataset() *dataset.Memory {
	return &dataset.Memory{
		Path: "temp.nc",
		Vars: []*dataset.MemVariable{
			{
				VarName:  "temp",
				DimNames: []string{"time", "lat", "lon"},
				Sizes:    []int{2, 2, 2},
				Data:     seq(8),
			},
		},
		DimList: []dataset.Dimension{
			{Name: "time", Size: 2},
			{Name: "lat", Size: 2},
			{Name: "lon", Size: 2},
		},
		Coords: map[string]*dataset.Coord{
			"lat": {Values: []float64{10, 20}, Shape: []int{2}},
			"lon": {Values: []float64{100, 110}, Shape: []int{2}},
		},
	}
}

func TestReduce3D(t *testing.T) {
	ds := tempDataset()

	raster, coords, err := Reduce(ds, "temp", 1, "time", nil)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}

	want := Raster{{4, 5}, {6, 7}}
	if diff := cmp.Diff(want, raster); diff != "" {
		t.Errorf("raster mismatch (-want +got):\n%s", diff)
	}
	if coords.Kind != CoordsReal {
		t.Errorf("expected real coordinates, got kind %v", coords.Kind)
	}
	if diff := cmp.Diff([]float64{10, 20}, coords.Lats.Values); diff != "" {
		t.Errorf("lats mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceFrameErrors(t *testing.T) {
	tests := []struct {
		name     string
		frameDim string
		frame    int
		wantSize int
	}{
		{"index out of range", "time", 5, 2},
		{"negative index", "time", -1, 2},
		{"dimension not present", "step", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Reduce(tempDataset(), "temp", tt.frame, tt.frameDim, nil)
			var fie *FrameIndexError
			if !errors.As(err, &fie) {
				t.Fatalf("expected FrameIndexError, got %v", err)
			}
			if fie.Size != tt.wantSize {
				t.Errorf("expected size %d in error, got %d", tt.wantSize, fie.Size)
			}
		})
	}
}

func TestReduceMissingVariable(t *testing.T) {
	_, _, err := Reduce(tempDataset(), "salinity", 0, "time", nil)
	var mve *dataset.MissingVariableError
	if !errors.As(err, &mve) {
		t.Fatalf("expected MissingVariableError, got %v", err)
	}
	if mve.Name != "salinity" {
		t.Errorf("expected variable name in error, got %q", mve.Name)
	}
}

func fourDDataset() *dataset.Memory {
	return &dataset.Memory{
		Path: "salt.nc",
		Vars: []*dataset.MemVariable{
			{
				VarName:  "salt",
				DimNames: []string{"time", "level", "lat", "lon"},
				Sizes:    []int{2, 2, 2, 2},
				Data:     seq(16),
			},
		},
		DimList: []dataset.Dimension{
			{Name: "time", Size: 2},
			{Name: "level", Size: 2},
			{Name: "lat", Size: 2},
			{Name: "lon", Size: 2},
		},
	}
}

func TestReduce4D(t *testing.T) {
	t.Run("averages levels by default", func(t *testing.T) {
		raster, _, err := Reduce(fourDDataset(), "salt", 0, "time", nil)
		if err != nil {
			t.Fatalf("Reduce failed: %v", err)
		}
		want := Raster{{2, 3}, {4, 5}}
		if diff := cmp.Diff(want, raster); diff != "" {
			t.Errorf("raster mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("selects level when given", func(t *testing.T) {
		level := 1
		raster, _, err := Reduce(fourDDataset(), "salt", 0, "time", &level)
		if err != nil {
			t.Fatalf("Reduce failed: %v", err)
		}
		want := Raster{{4, 5}, {6, 7}}
		if diff := cmp.Diff(want, raster); diff != "" {
			t.Errorf("raster mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("level out of range", func(t *testing.T) {
		level := 7
		_, _, err := Reduce(fourDDataset(), "salt", 0, "time", &level)
		var fie *FrameIndexError
		if !errors.As(err, &fie) {
			t.Fatalf("expected FrameIndexError, got %v", err)
		}
		if fie.Dim != "level" {
			t.Errorf("expected level dimension in error, got %q", fie.Dim)
		}
	})

	t.Run("mean propagates NaN", func(t *testing.T) {
		ds := fourDDataset()
		ds.Vars[0].Data[4] = math.NaN() // time 0, level 1, lat 0, lon 0

		raster, _, err := Reduce(ds, "salt", 0, "time", nil)
		if err != nil {
			t.Fatalf("Reduce failed: %v", err)
		}
		if !math.IsNaN(raster[0][0]) {
			t.Errorf("expected NaN at masked cell, got %v", raster[0][0])
		}
		if raster[0][1] != 3 {
			t.Errorf("expected untouched neighbor 3, got %v", raster[0][1])
		}
	})
}

// Averaging two independent extra dimensions in either order must equal the
// joint mean.
func TestReduceJointMean(t *testing.T) {
	ds := &dataset.Memory{
		Path: "ens.nc",
		Vars: []*dataset.MemVariable{
			{
				VarName:  "v",
				DimNames: []string{"time", "member", "run", "lat", "lon"},
				Sizes:    []int{1, 2, 2, 2, 2},
				Data:     seq(16),
			},
		},
		DimList: []dataset.Dimension{{Name: "time", Size: 1}},
	}

	raster, _, err := Reduce(ds, "v", 0, "time", nil)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	want := Raster{{6, 7}, {8, 9}}
	if diff := cmp.Diff(want, raster); diff != "" {
		t.Errorf("raster mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceShapeError(t *testing.T) {
	// Three spatial dimensions remain after frame selection; nothing can
	// be averaged away.
	ds := &dataset.Memory{
		Path: "odd.nc",
		Vars: []*dataset.MemVariable{
			{
				VarName:  "v",
				DimNames: []string{"time", "y", "x", "ni"},
				Sizes:    []int{1, 2, 2, 2},
				Data:     seq(8),
			},
		},
		DimList: []dataset.Dimension{{Name: "time", Size: 1}},
	}

	_, _, err := Reduce(ds, "v", 0, "time", nil)
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
}

func TestReduceSqueezesSingletons(t *testing.T) {
	ds := &dataset.Memory{
		Path: "single.nc",
		Vars: []*dataset.MemVariable{
			{
				VarName:  "v",
				DimNames: []string{"time", "level", "lat", "lon"},
				Sizes:    []int{1, 1, 2, 2},
				Data:     seq(4),
			},
		},
		DimList: []dataset.Dimension{{Name: "time", Size: 1}},
	}

	raster, _, err := Reduce(ds, "v", 0, "time", nil)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	want := Raster{{0, 1}, {2, 3}}
	if diff := cmp.Diff(want, raster); diff != "" {
		t.Errorf("raster mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveCoords(t *testing.T) {
	t.Run("dataset longhand beats shorthand", func(t *testing.T) {
		ds := tempDataset()
		ds.Coords["latitude"] = &dataset.Coord{Values: []float64{1, 2}, Shape: []int{2}}
		ds.Coords["longitude"] = &dataset.Coord{Values: []float64{3, 4}, Shape: []int{2}}

		v, _ := ds.Variable("temp")
		coords := ResolveCoords(ds, v, 2, 2)
		if coords.Kind != CoordsReal {
			t.Fatalf("expected real coordinates")
		}
		if diff := cmp.Diff([]float64{1, 2}, coords.Lats.Values); diff != "" {
			t.Errorf("lats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("falls back to variable metadata", func(t *testing.T) {
		ds := tempDataset()
		ds.Coords = nil
		ds.Vars[0].Coords = map[string]*dataset.Coord{
			"lat": {Values: []float64{5, 6}, Shape: []int{2}},
			"lon": {Values: []float64{7, 8}, Shape: []int{2}},
		}

		v, _ := ds.Variable("temp")
		coords := ResolveCoords(ds, v, 2, 2)
		if coords.Kind != CoordsReal {
			t.Fatalf("expected real coordinates")
		}
		if diff := cmp.Diff([]float64{5, 6}, coords.Lats.Values); diff != "" {
			t.Errorf("lats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("synthetic when nothing found", func(t *testing.T) {
		ds := tempDataset()
		ds.Coords = nil

		v, _ := ds.Variable("temp")
		coords := ResolveCoords(ds, v, 2, 3)
		if !coords.Synthetic() {
			t.Fatalf("expected synthetic coordinates")
		}
		if diff := cmp.Diff([]float64{0, 1}, coords.Lats.Values); diff != "" {
			t.Errorf("lats mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]float64{0, 1, 2}, coords.Lons.Values); diff != "" {
			t.Errorf("lons mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAnimationDim(t *testing.T) {
	ds := tempDataset()
	dim, ok := AnimationDim(ds)
	if !ok || dim != "time" {
		t.Errorf("expected time, got %q (ok=%v)", dim, ok)
	}

	spatialOnly := &dataset.Memory{
		DimList: []dataset.Dimension{{Name: "lat", Size: 2}, {Name: "lon", Size: 2}},
	}
	if _, ok := AnimationDim(spatialOnly); ok {
		t.Errorf("expected no animation dimension for a purely spatial file")
	}
}
