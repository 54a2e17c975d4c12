// Package core provides the data model shared by the isotope detector, the
// identification engine and the readers/writers of PeakID.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Peak represents a single m/z, intensity pair with optional metadata.
type Peak struct {
	MZ          float64
	Intensity   float64
	Annotation  string // Peak comment (e.g., "NL:H2O", "[Chain] FA 16:0")
	Charge      int    // Fragment charge (if available)
	IsotopeFrag bool   // Set when the peak was recognised as an isotope of a lighter fragment
}

// Spectrum is a list of peaks, normally ordered by ascending m/z.
type Spectrum []Peak

// ValidationError represents an error found during validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that all peaks carry finite, positive values and are sorted.
func (s Spectrum) Validate() error {
	var errs []string

	for i, peak := range s {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !s.IsSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// IsSorted checks if peaks are sorted by m/z in ascending order.
func (s Spectrum) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if s[i].MZ < s[i-1].MZ {
			return false
		}
	}
	return true
}

// Sort sorts peaks by m/z in ascending order.
func (s Spectrum) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].MZ < s[j].MZ
	})
}

// MaxIntensity returns the intensity of the base peak, or 0 for an empty spectrum.
func (s Spectrum) MaxIntensity() float64 {
	max := 0.0
	for _, p := range s {
		if p.Intensity > max {
			max = p.Intensity
		}
	}
	return max
}

// Clone returns a copy that can be modified without touching s.
func (s Spectrum) Clone() Spectrum {
	if s == nil {
		return nil
	}
	c := make(Spectrum, len(s))
	copy(c, s)
	return c
}
