package scan

import (
	"fmt"
	"math"
	"testing"

	"github.com/gridframe/ncanimate/internal/dataset"
	"github.com/gridframe/ncanimate/internal/fileset"
	"github.com/gridframe/ncanimate/internal/grid"
)

func rasterFile(path string, values ...float64) *dataset.Memory {
	return &dataset.Memory{
		Path: path,
		Vars: []*dataset.MemVariable{
			{
				VarName:  "t",
				DimNames: []string{"cell"},
				Sizes:    []int{len(values)},
				Data:     values,
			},
		},
	}
}

// readRow reduces a test file to a single-row raster.
func readRow(ds dataset.Dataset) (grid.Raster, error) {
	v, err := ds.Variable("t")
	if err != nil {
		return nil, err
	}
	data, err := v.Read()
	if err != nil {
		return nil, err
	}
	return grid.Raster{data}, nil
}

func TestScanDisjointRanges(t *testing.T) {
	open := dataset.MapOpener(map[string]*dataset.Memory{
		"f_001.nc": rasterFile("f_001.nc", 270, 275, 280),
		"f_002.nc": rasterFile("f_002.nc", 300, 310, 320),
		"f_003.nc": rasterFile("f_003.nc", 290, 292, 295),
		"f_004.nc": rasterFile("f_004.nc", 310, 312, 315),
	})
	fs := fileset.FromPaths([]string{"f_001.nc", "f_002.nc", "f_003.nc", "f_004.nc"})

	r, sampled, err := Scan(fs, open, readRow, 0)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if r == nil {
		t.Fatal("expected a range, got nil")
	}
	if r.Min != 270 || r.Max != 320 {
		t.Errorf("range = [%g, %g], want [270, 320]", r.Min, r.Max)
	}
	if sampled != 4 {
		t.Errorf("sampled = %d, want 4", sampled)
	}
}

func TestScanAllNaN(t *testing.T) {
	nan := math.NaN()
	open := dataset.MapOpener(map[string]*dataset.Memory{
		"f_001.nc": rasterFile("f_001.nc", nan, nan),
		"f_002.nc": rasterFile("f_002.nc", nan),
	})
	fs := fileset.FromPaths([]string{"f_001.nc", "f_002.nc"})

	r, sampled, err := Scan(fs, open, readRow, 0)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil range when nothing is usable, got %v", r)
	}
	if sampled != 2 {
		t.Errorf("all-NaN files still count as sampled, got %d", sampled)
	}
}

func TestScanSampleCap(t *testing.T) {
	files := map[string]*dataset.Memory{}
	var paths []string
	for i := 1; i <= 5; i++ {
		path := fmt.Sprintf("f_%03d.nc", i)
		files[path] = rasterFile(path, float64(i))
		paths = append(paths, path)
	}
	// An extreme value beyond the cap must not count.
	files["f_005.nc"] = rasterFile("f_005.nc", 9999)

	fs := fileset.FromPaths(paths)
	r, sampled, err := Scan(fs, dataset.MapOpener(files), readRow, 2)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if r == nil || r.Min != 1 || r.Max != 2 {
		t.Errorf("expected range [1, 2] from the first two files, got %v", r)
	}
	if sampled != 2 {
		t.Errorf("sampled = %d, want 2", sampled)
	}
}

func TestScanFirstFileShapeErrorAborts(t *testing.T) {
	open := dataset.MapOpener(map[string]*dataset.Memory{
		"f_001.nc": rasterFile("f_001.nc", 1, 2),
		"f_002.nc": rasterFile("f_002.nc", 3, 4),
	})
	fs := fileset.FromPaths([]string{"f_001.nc", "f_002.nc"})

	// A selection that leaves extra dimensions fails the same way on every
	// file, so the scan stops at the first one.
	reduce := func(ds dataset.Dataset) (grid.Raster, error) {
		return nil, &grid.ShapeError{Dims: []string{"time", "level"}, Shape: []int{2, 3}}
	}
	if _, _, err := Scan(fs, open, reduce, 0); err == nil {
		t.Errorf("expected a shape error on the first file to abort the scan")
	}
}

func TestScanUnopenableFirstFileSkipped(t *testing.T) {
	open := dataset.MapOpener(map[string]*dataset.Memory{
		"f_002.nc": rasterFile("f_002.nc", 280, 310),
	})
	fs := fileset.FromPaths([]string{"f_001.nc", "f_002.nc"})

	r, sampled, err := Scan(fs, open, readRow, 0)
	if err != nil {
		t.Fatalf("an unopenable first file must be skipped, not fatal: %v", err)
	}
	if r == nil || r.Min != 280 || r.Max != 310 {
		t.Errorf("expected range [280, 310] from the surviving file, got %v", r)
	}
	if sampled != 1 {
		t.Errorf("sampled = %d, want 1", sampled)
	}
}

func TestScanLaterFailureSkipped(t *testing.T) {
	open := dataset.MapOpener(map[string]*dataset.Memory{
		"f_001.nc": rasterFile("f_001.nc", 5, 10),
		"f_003.nc": rasterFile("f_003.nc", 1, 20),
	})
	fs := fileset.FromPaths([]string{"f_001.nc", "f_002.nc", "f_003.nc"})

	r, sampled, err := Scan(fs, open, readRow, 0)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if r == nil || r.Min != 1 || r.Max != 20 {
		t.Errorf("expected range [1, 20] from the surviving files, got %v", r)
	}
	if sampled != 2 {
		t.Errorf("sampled = %d, want 2", sampled)
	}
}
