// Package filter provides peak filtering applied to MS/MS spectra before scoring
package filter

import (
	"sort"
	"strings"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	MassRangeBegin       float64  // Drop peaks below this m/z
	MassRangeEnd         float64  // Drop peaks above this m/z (0 = no limit)
	IntensityCutoff      float64  // Keep only peaks at or above this % of base peak (0 = no cutoff)
	TopN                 int      // Keep only top N most intense peaks (0 = no limit)
	DropIsotopeFragments bool     // Remove peaks flagged as isotopes of a lighter fragment
	Annotations          []string // Keep only peaks whose comment starts with one of these (nil = all)
}

// Apply applies all configured filters to a spectrum
func (c *Config) Apply(spec *core.Spectrum) {
	// Filter by annotation first
	if len(c.Annotations) > 0 {
		c.filterByAnnotation(spec)
	}

	if c.MassRangeBegin > 0 || c.MassRangeEnd > 0 {
		c.filterByMassRange(spec)
	}

	if c.DropIsotopeFragments {
		filterIsotopeFragments(spec)
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		c.filterByIntensity(spec)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		c.filterTopN(spec)
	}

	// Ensure peaks are sorted after all filtering
	spec.Sort()
}

// filterByAnnotation keeps only peaks whose comment matches an allowed prefix
func (c *Config) filterByAnnotation(spec *core.Spectrum) {
	var filtered core.Spectrum
	for _, peak := range *spec {
		if matchesAnnotation(peak.Annotation, c.Annotations) {
			filtered = append(filtered, peak)
		}
	}
	*spec = filtered
}

// matchesAnnotation checks if a comment starts with any of the allowed prefixes
func matchesAnnotation(annotation string, prefixes []string) bool {
	if annotation == "" {
		return false
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(annotation, prefix) {
			return true
		}
	}
	return false
}

// filterByMassRange removes peaks outside [MassRangeBegin, MassRangeEnd]
func (c *Config) filterByMassRange(spec *core.Spectrum) {
	var filtered core.Spectrum
	for _, peak := range *spec {
		if peak.MZ < c.MassRangeBegin {
			continue
		}
		if c.MassRangeEnd > 0 && peak.MZ > c.MassRangeEnd {
			continue
		}
		filtered = append(filtered, peak)
	}
	*spec = filtered
}

// filterIsotopeFragments removes peaks flagged as fragment isotopes
func filterIsotopeFragments(spec *core.Spectrum) {
	var filtered core.Spectrum
	for _, peak := range *spec {
		if !peak.IsotopeFrag {
			filtered = append(filtered, peak)
		}
	}
	*spec = filtered
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(spec *core.Spectrum) {
	if len(*spec) == 0 {
		return
	}

	// Calculate threshold
	threshold := (c.IntensityCutoff / 100.0) * spec.MaxIntensity()

	// Filter peaks
	var filtered core.Spectrum
	for _, peak := range *spec {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}

	*spec = filtered
}

// filterTopN keeps only the N most intense peaks
func (c *Config) filterTopN(spec *core.Spectrum) {
	if len(*spec) <= c.TopN {
		return
	}

	// Create a copy and sort by intensity descending
	peaks := spec.Clone()

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Intensity > peaks[j].Intensity
	})

	// Keep only top N
	*spec = peaks[:c.TopN]
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	var filtered core.Spectrum
	for _, peak := range *spec {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	*spec = filtered
}
