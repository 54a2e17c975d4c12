package filter

import (
	"testing"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

func mzs(spec core.Spectrum) []float64 {
	out := make([]float64, len(spec))
	for i, p := range spec {
		out[i] = p.MZ
	}
	return out
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply(t *testing.T) {
	base := core.Spectrum{
		{MZ: 50, Intensity: 100},
		{MZ: 100, Intensity: 1000, Annotation: "[Class] PC head"},
		{MZ: 101, Intensity: 80, IsotopeFrag: true},
		{MZ: 150, Intensity: 5, Annotation: "NL:H2O"},
		{MZ: 200, Intensity: 500, Annotation: "[Chain] FA 16:0"},
		{MZ: 900, Intensity: 300},
	}

	tests := []struct {
		name   string
		config Config
		want   []float64
	}{
		{"no filters", Config{}, []float64{50, 100, 101, 150, 200, 900}},
		{"mass range", Config{MassRangeBegin: 60, MassRangeEnd: 500}, []float64{100, 101, 150, 200}},
		{"open upper range", Config{MassRangeBegin: 60}, []float64{100, 101, 150, 200, 900}},
		{"isotope fragments", Config{DropIsotopeFragments: true}, []float64{50, 100, 150, 200, 900}},
		{"intensity cutoff", Config{IntensityCutoff: 10}, []float64{50, 100, 200, 900}},
		{"top n", Config{TopN: 2}, []float64{100, 200}},
		{"annotations", Config{Annotations: []string{"[Chain]", "NL:"}}, []float64{150, 200}},
		{"combined", Config{MassRangeEnd: 500, DropIsotopeFragments: true, TopN: 2}, []float64{100, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base.Clone()
			tt.config.Apply(&spec)
			if got := mzs(spec); !equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
			if !spec.IsSorted() {
				t.Error("Expected sorted spectrum after Apply()")
			}
		})
	}
}

func TestRemoveZeroIntensityPeaks(t *testing.T) {
	spec := core.Spectrum{
		{MZ: 100, Intensity: 0},
		{MZ: 200, Intensity: 10},
		{MZ: 300, Intensity: -1},
	}
	RemoveZeroIntensityPeaks(&spec)
	if got := mzs(spec); !equal(got, []float64{200}) {
		t.Errorf("RemoveZeroIntensityPeaks() = %v, want [200]", got)
	}
}
