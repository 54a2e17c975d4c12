package core

import (
	"fmt"
	"sort"
)

// IsotopeTable simulates isotope envelopes from elemental formulas.
type IsotopeTable interface {
	// NominalIsotopeProfile returns the relative abundances of the nominal
	// isotopologues M+0..M+(traceCount-1), normalised to the most abundant one.
	NominalIsotopeProfile(formula string, traceCount int) ([]float64, error)
}

// elementIsotope is one stable isotope, nominal offset from the lightest isotope.
type elementIsotope struct {
	Offset    int
	Abundance float64
}

// IUPAC holds natural isotope abundances per element.
type IUPAC struct {
	elements map[string][]elementIsotope
}

// DefaultIUPAC returns the table for the elements found in metabolite formulas.
func DefaultIUPAC() *IUPAC {
	return &IUPAC{elements: map[string][]elementIsotope{
		"H":  {{0, 0.999885}, {1, 0.000115}},
		"C":  {{0, 0.9893}, {1, 0.0107}},
		"N":  {{0, 0.99636}, {1, 0.00364}},
		"O":  {{0, 0.99757}, {1, 0.00038}, {2, 0.00205}},
		"S":  {{0, 0.9499}, {1, 0.0075}, {2, 0.0425}, {4, 0.0001}},
		"P":  {{0, 1.0}},
		"F":  {{0, 1.0}},
		"Cl": {{0, 0.7576}, {2, 0.2424}},
		"Br": {{0, 0.5069}, {2, 0.4931}},
		"I":  {{0, 1.0}},
		"Si": {{0, 0.92223}, {1, 0.04685}, {2, 0.03092}},
		"Na": {{0, 1.0}},
		"K":  {{0, 0.932581}, {1, 0.000117}, {2, 0.067302}},
	}}
}

// NominalIsotopeProfile implements IsotopeTable.
func (t *IUPAC) NominalIsotopeProfile(formula string, traceCount int) ([]float64, error) {
	if traceCount <= 0 {
		return nil, fmt.Errorf("trace count must be positive, got %d", traceCount)
	}
	f, err := ParseFormula(formula)
	if err != nil {
		return nil, err
	}

	// Deterministic element order keeps floating point results reproducible
	symbols := make([]string, 0, len(f))
	for el := range f {
		symbols = append(symbols, el)
	}
	sort.Strings(symbols)

	profile := make([]float64, traceCount)
	profile[0] = 1
	for _, el := range symbols {
		isotopes, ok := t.elements[el]
		if !ok {
			return nil, fmt.Errorf("no isotope data for element '%s'", el)
		}
		for n := 0; n < f[el]; n++ {
			profile = convolve(profile, isotopes)
		}
	}

	max := 0.0
	for _, v := range profile {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for i := range profile {
			profile[i] /= max
		}
	}
	return profile, nil
}

// convolve adds one atom to the distribution, truncated to len(dist) traces.
func convolve(dist []float64, isotopes []elementIsotope) []float64 {
	out := make([]float64, len(dist))
	for i, a := range dist {
		if a == 0 {
			continue
		}
		for _, iso := range isotopes {
			j := i + iso.Offset
			if j >= len(out) {
				continue
			}
			out[j] += a * iso.Abundance
		}
	}
	return out
}
