package mzml

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

type scanInfo struct {
	index       int
	rt          float64
	precursorMz float64
	energy      float64
}

// Source serves the spectra of an mzML run per peak. MS1 scans are matched
// by retention time, MS/MS scans by precursor m/z and the peak's retention
// time range. Collision energy channels are the distinct energies of the run
// in ascending order. Source is safe for concurrent use.
type Source struct {
	file         *File
	precursorTol float64
	ms1          []scanInfo // ascending rt
	ms2          []scanInfo // ascending precursor m/z
	energies     []float64
}

// NewSource indexes the scans of f. precursorTol is the absolute m/z
// tolerance used to assign MS/MS scans to peaks.
func NewSource(f *File, precursorTol float64) (*Source, error) {
	s := &Source{file: f, precursorTol: precursorTol}

	seen := map[float64]bool{}
	for i := 0; i < f.NumSpecs(); i++ {
		level, err := f.MSLevel(i)
		if err != nil {
			return nil, err
		}
		rt, err := f.RetentionTime(i)
		if err != nil {
			return nil, err
		}
		info := scanInfo{index: i, rt: rt}

		switch level {
		case 1:
			s.ms1 = append(s.ms1, info)
		case 2:
			mz, energy, ok, err := f.Precursor(i)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			info.precursorMz = mz
			info.energy = core.RoundFloat(energy, 2)
			s.ms2 = append(s.ms2, info)
			if !seen[info.energy] {
				seen[info.energy] = true
				s.energies = append(s.energies, info.energy)
			}
		}
	}

	sort.SliceStable(s.ms1, func(i, j int) bool { return s.ms1[i].rt < s.ms1[j].rt })
	sort.SliceStable(s.ms2, func(i, j int) bool { return s.ms2[i].precursorMz < s.ms2[j].precursorMz })
	sort.Float64s(s.energies)
	return s, nil
}

// Channels returns the collision energies of the run, one per channel
func (s *Source) Channels() []float64 {
	return s.energies
}

// CentroidSpectrum returns the MS1 scan closest to the peak apex
func (s *Source) CentroidSpectrum(peak *core.PeakFeature) ([]core.Peak, error) {
	if len(s.ms1) == 0 {
		return nil, nil
	}
	i := sort.Search(len(s.ms1), func(i int) bool { return s.ms1[i].rt >= peak.RtTop })
	best := i
	if i == len(s.ms1) || (i > 0 && peak.RtTop-s.ms1[i-1].rt <= s.ms1[i].rt-peak.RtTop) {
		best = i - 1
	}
	return s.read(s.ms1[best].index)
}

// Ms2Spectrum returns the MS/MS scan of the peak acquired at the channel's
// collision energy, nearest to the apex. No matching scan yields nil.
func (s *Source) Ms2Spectrum(peak *core.PeakFeature, channel int) ([]core.Peak, error) {
	if channel < 0 || channel >= len(s.energies) {
		return nil, nil
	}
	energy := s.energies[channel]

	lo := sort.Search(len(s.ms2), func(i int) bool {
		return s.ms2[i].precursorMz >= peak.Mz-s.precursorTol
	})
	best, bestDiff := -1, math.MaxFloat64
	for i := lo; i < len(s.ms2) && s.ms2[i].precursorMz <= peak.Mz+s.precursorTol; i++ {
		info := s.ms2[i]
		if info.energy != energy || info.rt < peak.RtLeft || info.rt > peak.RtRight {
			continue
		}
		if diff := math.Abs(info.rt - peak.RtTop); diff < bestDiff {
			best, bestDiff = info.index, diff
		}
	}
	if best < 0 {
		return nil, nil
	}
	return s.read(best)
}

func (s *Source) read(index int) ([]core.Peak, error) {
	peaks, err := s.file.ReadScan(index)
	if err != nil {
		return nil, err
	}
	core.Spectrum(peaks).Sort()
	return peaks, nil
}
