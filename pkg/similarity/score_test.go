package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

func TestMs1TotalScore(t *testing.T) {
	tests := []struct {
		name          string
		mass, rt, iso float64
		want          float64
	}{
		{"mass only", 0.8, NotComputed, NotComputed, 0.8},
		{"mass and isotope", 1, NotComputed, 0.5, 1.25 / 1.5},
		{"mass and rt", 1, 0.5, NotComputed, 0.75},
		{"all", 1, 0.5, 0.5, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Ms1TotalScore(tt.mass, tt.rt, tt.iso), 1e-9)
		})
	}
}

func TestSpectralScore(t *testing.T) {
	tests := []struct {
		name               string
		dot, rev, presence float64
		sparse             bool
		omics              string
		want               float64
	}{
		{"perfect", 1, 1, 1, false, core.Metabolomics, 1},
		{"sparse metabolite", 1, 1, 1, true, core.Metabolomics, 0.5},
		{"sparse lipid", 1, 1, 1, true, core.Lipidomics, 1},
		{"metabolite weights", 0.6, 0.3, 0.9, false, core.Metabolomics, 0.55},
		{"lipid weights", 0.6, 0.3, 0.9, false, core.Lipidomics, 0.525},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpectralScore(tt.dot, tt.rev, tt.presence, tt.sparse, tt.omics)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestMs2TotalScore(t *testing.T) {
	require.InDelta(t, 1.0, Ms2TotalScore(1, NotComputed, NotComputed, 1, 1, 1, false, core.Metabolomics), 1e-9)
	require.InDelta(t, 1.0, Ms2TotalScore(1, 1, 1, 1, 1, 1, false, core.Metabolomics), 1e-9)
	require.InDelta(t, 0.75, Ms2TotalScore(0.5, NotComputed, NotComputed, 1, 1, 1, false, core.Metabolomics), 1e-9)
	// (1 + 1 + 0.5*0 + 0.5) / 3.5
	require.InDelta(t, 2.5/3.5, Ms2TotalScore(1, 1, 0, 1, 1, 1, true, core.Metabolomics), 1e-9)
}

func TestSimpleDotTotalScore(t *testing.T) {
	require.InDelta(t, 0.9, SimpleDotTotalScore(1, NotComputed, NotComputed, 0.8), 1e-9)
	require.InDelta(t, (1+0.5+0.8)/3.0, SimpleDotTotalScore(1, 0.5, NotComputed, 0.8), 1e-9)
}
