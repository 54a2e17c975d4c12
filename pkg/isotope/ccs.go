package isotope

import (
	"math"

	"github.com/ChrisMcGann/PeakID/pkg/config"
)

const (
	// Drift gas (N2) mass in Da
	driftGasMass = 28.0134
	// Mason-Schamp prefactor for 1/K0 in V·s/cm², masses in Da, CCS in Å²
	masonSchampConstant = 18509.8632163405
	// TIMS cell temperature in K
	timsTemperature = 305.0
)

// CCS converts a drift time to a collision cross section in Å² using the
// calibration of the instrument. For Bruker TIMS the drift time carries 1/K0.
// It returns 0 when the inputs cannot produce a cross section.
func CCS(calib config.Mobility, driftTime, mz float64, charge int) float64 {
	if driftTime <= 0 || mz <= 0 || charge < 1 {
		return 0
	}
	z := float64(charge)
	mass := mz * z

	switch calib.Type {
	case config.Bruker:
		k0 := 1 / driftTime
		reduced := mass * driftGasMass / (mass + driftGasMass)
		return masonSchampConstant * z / (k0 * math.Sqrt(reduced*timsTemperature))
	default:
		if calib.AgilentBeta == 0 {
			return 0
		}
		gamma := math.Sqrt(mass/(mass+driftGasMass)) / z
		return (driftTime - calib.AgilentTFix) / (calib.AgilentBeta * gamma)
	}
}
