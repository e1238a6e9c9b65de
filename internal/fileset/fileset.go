// Package fileset discovers NetCDF file batches and orders them into an
// animation timeline.
package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// File is one member of a batch, with the timestep key extracted from its
// name. Files whose names carry no recognizable timestep sort after all
// keyed files.
type File struct {
	Path        string
	Timestep    int
	HasTimestep bool
	Strategy    string
}

// FileSet is an ordered batch of NetCDF files. Order is ascending numeric
// timestep, lexical path as tie-break, keyless files last.
type FileSet struct {
	Files []File
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int { return len(fs.Files) }

// Paths returns the ordered file paths.
func (fs *FileSet) Paths() []string {
	out := make([]string, len(fs.Files))
	for i, f := range fs.Files {
		out[i] = f.Path
	}
	return out
}

// timestepStrategy is one filename pattern that may carry a timestep. The
// strategies are tried in order; the first match wins.
type timestepStrategy struct {
	name string
	re   *regexp.Regexp
}

var timestepStrategies = []timestepStrategy{
	{"dot-number", regexp.MustCompile(`\.(\d+)\.nc$`)},
	{"underscore-number", regexp.MustCompile(`_(\d+)\.nc$`)},
	{"dot-padded", regexp.MustCompile(`\.(\d{3})\.`)},
	{"underscore-padded", regexp.MustCompile(`_(\d{3})_`)},
	{"bare-number", regexp.MustCompile(`(\d+)\.nc$`)},
}

// ExtractTimestep pulls a numeric timestep out of a filename. It tries each
// naming convention in order and reports which one matched.
func ExtractTimestep(path string) (timestep int, strategy string, ok bool) {
	base := filepath.Base(path)
	for _, s := range timestepStrategies {
		m := s.re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, s.name, true
	}
	return 0, "", false
}

// Discover builds a FileSet from a glob pattern or a literal path. Only
// files with the .nc extension are kept. A pattern that matches nothing
// yields an empty set, not an error.
func Discover(pattern string) (*FileSet, error) {
	var paths []string
	if strings.ContainsAny(pattern, "*?[") {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		paths = matches
	} else {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("stat %q: %w", pattern, err)
		}
		paths = []string{pattern}
	}

	fs := &FileSet{}
	for _, p := range paths {
		if !strings.HasSuffix(p, ".nc") {
			continue
		}
		f := File{Path: p}
		f.Timestep, f.Strategy, f.HasTimestep = ExtractTimestep(p)
		fs.Files = append(fs.Files, f)
	}
	fs.sort()
	return fs, nil
}

// FromPaths builds a FileSet from explicit paths, applying the same
// extraction and ordering as Discover.
func FromPaths(paths []string) *FileSet {
	fs := &FileSet{}
	for _, p := range paths {
		f := File{Path: p}
		f.Timestep, f.Strategy, f.HasTimestep = ExtractTimestep(p)
		fs.Files = append(fs.Files, f)
	}
	fs.sort()
	return fs
}

func (fs *FileSet) sort() {
	sort.SliceStable(fs.Files, func(i, j int) bool {
		a, b := fs.Files[i], fs.Files[j]
		if a.HasTimestep != b.HasTimestep {
			return a.HasTimestep
		}
		if a.HasTimestep && a.Timestep != b.Timestep {
			return a.Timestep < b.Timestep
		}
		return a.Path < b.Path
	})
}
