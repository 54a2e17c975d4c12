package similarity

import "github.com/ChrisMcGann/PeakID/pkg/core"

// Weights of the optional sub-scores in the composite scores. The accurate
// mass and the MS/MS part always weigh 1.
const (
	rtWeight      = 1.0
	isotopeWeight = 0.5
)

// Ms1TotalScore combines accurate mass, retention time and isotope
// similarities. Negative rt or iso values are not computed and drop out of
// both numerator and denominator.
func Ms1TotalScore(mass, rt, iso float64) float64 {
	sum, weight := mass, 1.0
	if rt >= 0 {
		sum += rtWeight * rt
		weight += rtWeight
	}
	if iso >= 0 {
		sum += isotopeWeight * iso
		weight += isotopeWeight
	}
	return sum / weight
}

// SpectralScore combines the MS/MS metrics. Lipid spectra weigh the reverse
// search highest; other spectra weigh the forward dot product highest. A
// sparse reference (one peak or less) halves the score outside lipidomics.
func SpectralScore(dot, rev, presence float64, sparse bool, omics string) float64 {
	if omics == core.Lipidomics {
		return (dot + 2*rev + presence) / 4
	}
	score := (3*dot + 2*rev + presence) / 6
	if sparse {
		score *= 0.5
	}
	return score
}

// Ms2TotalScore is the composite score of a candidate with MS/MS evidence.
func Ms2TotalScore(mass, rt, iso, dot, rev, presence float64, sparse bool, omics string) float64 {
	return combine(mass, rt, iso, SpectralScore(dot, rev, presence, sparse, omics))
}

// SimpleDotTotalScore is the composite score using the un-penalised cosine as
// the MS/MS part.
func SimpleDotTotalScore(mass, rt, iso, simpleDot float64) float64 {
	return combine(mass, rt, iso, simpleDot)
}

func combine(mass, rt, iso, ms2 float64) float64 {
	sum, weight := mass+ms2, 2.0
	if rt >= 0 {
		sum += rtWeight * rt
		weight += rtWeight
	}
	if iso >= 0 {
		sum += isotopeWeight * iso
		weight += isotopeWeight
	}
	return sum / weight
}
