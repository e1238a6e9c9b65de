package dataset

import (
	"errors"
	"testing"
)

func TestMemoryVariableLookup(t *testing.T) {
	ds := &Memory{
		Path: "m.nc",
		Vars: []*MemVariable{
			{VarName: "a", DimNames: []string{"x"}, Sizes: []int{2}, Data: []float64{1, 2}},
			{VarName: "b", DimNames: []string{"x"}, Sizes: []int{2}, Data: []float64{3, 4}},
		},
	}

	if got := ds.Variables(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Variables() = %v, want file order [a b]", got)
	}

	v, err := ds.Variable("b")
	if err != nil {
		t.Fatalf("Variable failed: %v", err)
	}
	data, err := v.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if data[0] != 3 {
		t.Errorf("read wrong variable: %v", data)
	}

	_, err = ds.Variable("c")
	var mve *MissingVariableError
	if !errors.As(err, &mve) {
		t.Fatalf("expected MissingVariableError, got %v", err)
	}
	if mve.Path != "m.nc" {
		t.Errorf("error must carry the file path, got %q", mve.Path)
	}
}

func TestMemVariableShapeMismatch(t *testing.T) {
	v := &MemVariable{VarName: "a", Sizes: []int{2, 3}, Data: []float64{1}}
	if _, err := v.Read(); err == nil {
		t.Errorf("expected an error for data not matching the shape")
	}
}

func TestReadCopies(t *testing.T) {
	v := &MemVariable{VarName: "a", Sizes: []int{2}, Data: []float64{1, 2}}
	data, err := v.Read()
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 99
	if v.Data[0] != 1 {
		t.Errorf("Read must hand out a copy, source was mutated")
	}
}

func TestMapOpener(t *testing.T) {
	open := MapOpener(map[string]*Memory{"x.nc": {Path: "x.nc"}})
	if _, err := open("x.nc"); err != nil {
		t.Errorf("known path failed: %v", err)
	}
	if _, err := open("y.nc"); err == nil {
		t.Errorf("unknown path must fail like a missing file")
	}
}

func TestDTypeSize(t *testing.T) {
	tests := []struct {
		dtype string
		want  int
		ok    bool
	}{
		{"float64", 8, true},
		{"float32", 4, true},
		{"int16", 2, true},
		{"char", 1, true},
		{"complex128", 0, false},
	}
	for _, tt := range tests {
		got, ok := DTypeSize(tt.dtype)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DTypeSize(%q) = (%d, %v), want (%d, %v)", tt.dtype, got, ok, tt.want, tt.ok)
		}
	}
}
