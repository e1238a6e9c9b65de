package fileset

import (
	"fmt"
	"reflect"

	"github.com/gridframe/ncanimate/internal/dataset"
)

// ValidateConsistency compares every file in the set against the first one
// and reports divergences as human-readable messages. Checks cover variable
// presence, shapes and dtypes. The report is advisory: a non-empty result
// does not stop a batch run, and a file that cannot be opened contributes a
// message rather than an error.
func ValidateConsistency(fs *FileSet, open dataset.Opener) []string {
	if fs.Len() < 2 {
		return nil
	}

	ref, err := open(fs.Files[0].Path)
	if err != nil {
		return []string{fmt.Sprintf("%s: cannot open reference file: %v", fs.Files[0].Path, err)}
	}
	defer ref.Close()

	type varInfo struct {
		shape []int
		dtype string
	}
	refVars := map[string]varInfo{}
	for _, name := range ref.Variables() {
		v, err := ref.Variable(name)
		if err != nil {
			continue
		}
		refVars[name] = varInfo{shape: v.Shape(), dtype: v.DType()}
	}

	var report []string
	for _, f := range fs.Files[1:] {
		ds, err := open(f.Path)
		if err != nil {
			report = append(report, fmt.Sprintf("%s: cannot open: %v", f.Path, err))
			continue
		}

		seen := map[string]bool{}
		for _, name := range ds.Variables() {
			seen[name] = true
			info, ok := refVars[name]
			if !ok {
				report = append(report, fmt.Sprintf("%s: variable %q not in first file", f.Path, name))
				continue
			}
			v, err := ds.Variable(name)
			if err != nil {
				continue
			}
			if !reflect.DeepEqual(v.Shape(), info.shape) {
				report = append(report, fmt.Sprintf("%s: variable %q shape %v differs from first file %v", f.Path, name, v.Shape(), info.shape))
			}
			if v.DType() != info.dtype {
				report = append(report, fmt.Sprintf("%s: variable %q dtype %s differs from first file %s", f.Path, name, v.DType(), info.dtype))
			}
		}
		for name := range refVars {
			if !seen[name] {
				report = append(report, fmt.Sprintf("%s: missing variable %q", f.Path, name))
			}
		}
		ds.Close()
	}
	return report
}

// CommonVariables returns the variables present in every file of the set,
// in the order the first file lists them. Files that cannot be opened are
// skipped, matching the advisory stance of ValidateConsistency.
func CommonVariables(fs *FileSet, open dataset.Opener) ([]string, error) {
	if fs.Len() == 0 {
		return nil, nil
	}

	ref, err := open(fs.Files[0].Path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", fs.Files[0].Path, err)
	}
	order := ref.Variables()
	ref.Close()

	common := map[string]bool{}
	for _, name := range order {
		common[name] = true
	}

	for _, f := range fs.Files[1:] {
		ds, err := open(f.Path)
		if err != nil {
			continue
		}
		present := map[string]bool{}
		for _, name := range ds.Variables() {
			present[name] = true
		}
		ds.Close()
		for name := range common {
			if !present[name] {
				delete(common, name)
			}
		}
	}

	var out []string
	for _, name := range order {
		if common[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// EstimateMemoryMB estimates the uncompressed in-memory size of one
// variable across the whole set, in megabytes. The first file's shape and
// dtype stand in for every file.
func EstimateMemoryMB(fs *FileSet, open dataset.Opener, variable string) (float64, error) {
	if fs.Len() == 0 {
		return 0, nil
	}
	ds, err := open(fs.Files[0].Path)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", fs.Files[0].Path, err)
	}
	defer ds.Close()

	v, err := ds.Variable(variable)
	if err != nil {
		return 0, err
	}
	cells := 1
	for _, s := range v.Shape() {
		cells *= s
	}
	width, ok := dataset.DTypeSize(v.DType())
	if !ok {
		width = 8
	}
	bytes := float64(cells) * float64(width) * float64(fs.Len())
	return bytes / (1024 * 1024), nil
}
