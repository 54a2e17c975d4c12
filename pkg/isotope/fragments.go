package isotope

import "github.com/ChrisMcGann/PeakID/pkg/core"

// FlagFragmentIsotopes marks the isotope peaks within one MS/MS spectrum so
// that spectral matching can discount them. Fragments carry no retention
// time, so grouping is position free and uses the fixed MS/MS tolerance.
// Monoisotopic fragments get their inferred charge; isotope fragments get
// IsotopeFrag set.
func (d *Detector) FlagFragmentIsotopes(peaks []core.Peak, tol float64) {
	if len(peaks) == 0 {
		return
	}
	infos := make([]core.IsotopeInfo, len(peaks))
	members := make([]member, len(peaks))
	for i := range peaks {
		infos[i] = core.IsotopeInfo{ChargeNumber: 1, IsotopeWeightNumber: -1, IsotopeParentPeakID: -1}
		members[i] = member{id: i, mz: peaks[i].MZ, intensity: peaks[i].Intensity, info: &infos[i]}
	}
	d.group(members, false, func(float64) float64 { return tol })

	for i := range peaks {
		peaks[i].Charge = infos[i].ChargeNumber
		peaks[i].IsotopeFrag = infos[i].IsotopeWeightNumber > 0
	}
}
