package isotope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/config"
)

func TestCCS(t *testing.T) {
	tests := []struct {
		name      string
		calib     config.Mobility
		driftTime float64
		mz        float64
		charge    int
		want      float64
	}{
		{"bruker singly charged", config.Mobility{Type: config.Bruker}, 1.0, 500, 1, 205.782},
		{"bruker doubly charged", config.Mobility{Type: config.Bruker}, 0.8, 500, 2, 324.855},
		{"agilent", config.Mobility{Type: config.Agilent, AgilentBeta: 0.1, AgilentTFix: 1}, 21, 500, 1, 205.526},
		{"agilent without beta", config.Mobility{Type: config.Agilent}, 21, 500, 1, 0},
		{"no drift time", config.Mobility{Type: config.Bruker}, 0, 500, 1, 0},
		{"no charge", config.Mobility{Type: config.Bruker}, 1, 500, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, CCS(tt.calib, tt.driftTime, tt.mz, tt.charge), 0.001)
		})
	}
}
