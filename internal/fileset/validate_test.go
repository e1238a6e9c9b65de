package fileset

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gridframe/ncanimate/internal/dataset"
)

func memVar(name string, dims []string, sizes []int, dtype string) *dataset.MemVariable {
	n := 1
	for _, s := range sizes {
		n *= s
	}
	return &dataset.MemVariable{
		VarName:  name,
		DimNames: dims,
		Sizes:    sizes,
		DTypeStr: dtype,
		Data:     make([]float64, n),
	}
}

func batchOpener() dataset.Opener {
	first := &dataset.Memory{
		Path: "a_001.nc",
		Vars: []*dataset.MemVariable{
			memVar("temp", []string{"time", "lat", "lon"}, []int{2, 10, 12}, "float32"),
			memVar("salt", []string{"time", "lat", "lon"}, []int{2, 10, 12}, "float32"),
		},
	}
	second := &dataset.Memory{
		Path: "a_002.nc",
		Vars: []*dataset.MemVariable{
			// temp missing entirely; salt diverges in shape and dtype.
			memVar("salt", []string{"time", "lat", "lon"}, []int{2, 10, 14}, "float64"),
			memVar("extra", []string{"time"}, []int{2}, "float32"),
		},
	}
	third := &dataset.Memory{
		Path: "a_003.nc",
		Vars: []*dataset.MemVariable{
			memVar("temp", []string{"time", "lat", "lon"}, []int{2, 10, 12}, "float32"),
			memVar("salt", []string{"time", "lat", "lon"}, []int{2, 10, 12}, "float32"),
		},
	}
	return dataset.MapOpener(map[string]*dataset.Memory{
		"a_001.nc": first,
		"a_002.nc": second,
		"a_003.nc": third,
	})
}

func TestValidateConsistency(t *testing.T) {
	fs := FromPaths([]string{"a_001.nc", "a_002.nc", "a_003.nc"})
	report := ValidateConsistency(fs, batchOpener())

	wantSubstrings := []string{
		`missing variable "temp"`,
		`shape [2 10 14] differs from first file [2 10 12]`,
		`dtype float64 differs from first file float32`,
		`variable "extra" not in first file`,
	}
	for _, want := range wantSubstrings {
		found := false
		for _, msg := range report {
			if strings.Contains(msg, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("report lacks %q:\n%s", want, strings.Join(report, "\n"))
		}
	}
	if len(report) != len(wantSubstrings) {
		t.Errorf("expected %d messages, got %d:\n%s", len(wantSubstrings), len(report), strings.Join(report, "\n"))
	}
}

func TestValidateConsistencySingleFile(t *testing.T) {
	fs := FromPaths([]string{"a_001.nc"})
	if report := ValidateConsistency(fs, batchOpener()); report != nil {
		t.Errorf("a single file has nothing to diverge from, got %v", report)
	}
}

func TestValidateConsistencyUnopenable(t *testing.T) {
	fs := FromPaths([]string{"a_001.nc", "gone.nc"})
	report := ValidateConsistency(fs, batchOpener())
	if len(report) != 1 || !strings.Contains(report[0], "gone.nc") {
		t.Errorf("expected one open-failure message, got %v", report)
	}
}

func TestCommonVariables(t *testing.T) {
	fs := FromPaths([]string{"a_001.nc", "a_002.nc", "a_003.nc"})
	common, err := CommonVariables(fs, batchOpener())
	if err != nil {
		t.Fatalf("CommonVariables failed: %v", err)
	}

	// Shape divergence does not remove a name from the intersection; only
	// absence does.
	if diff := cmp.Diff([]string{"salt"}, common); diff != "" {
		t.Errorf("intersection mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimateMemoryMB(t *testing.T) {
	fs := FromPaths([]string{"a_001.nc", "a_002.nc", "a_003.nc"})
	mb, err := EstimateMemoryMB(fs, batchOpener(), "temp")
	if err != nil {
		t.Fatalf("EstimateMemoryMB failed: %v", err)
	}

	// 2*10*12 float32 cells per file, three files.
	want := float64(2*10*12*4*3) / (1024 * 1024)
	if math.Abs(mb-want) > 1e-9 {
		t.Errorf("estimate = %g MB, want %g MB", mb, want)
	}
}

func TestEstimateMemoryMBMissingVariable(t *testing.T) {
	fs := FromPaths([]string{"a_001.nc"})
	if _, err := EstimateMemoryMB(fs, batchOpener(), "absent"); err == nil {
		t.Errorf("expected an error for an absent variable")
	}
}
