// Package core provides chemistry constants and elemental formula handling
package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Atomic masses (monoisotopic)
const (
	MassH  = 1.00782503207
	MassC  = 12.0000000000
	MassN  = 14.0030740048
	MassO  = 15.99491461956
	MassS  = 31.97207100
	MassP  = 30.97376163
	MassF  = 18.99840322
	MassCl = 34.96885268
	MassBr = 78.9183371
	MassI  = 126.904473
	MassSi = 27.9769265325
	MassNa = 22.9897692809
	MassK  = 38.96370668

	// Proton and electron mass for charge calculations
	ProtonMass   = 1.00727646688
	ElectronMass = 0.0005485799

	// Isotope spacing used by the isotope detector
	C13C12Diff = 1.003355
	// Br81-Br79; also stands in for Cl37-Cl35 and S34-S32
	Br81Br79Diff = 1.9979535
)

// monoisotopicMass maps element symbols to their monoisotopic mass.
var monoisotopicMass = map[string]float64{
	"H":  MassH,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"S":  MassS,
	"P":  MassP,
	"F":  MassF,
	"Cl": MassCl,
	"Br": MassBr,
	"I":  MassI,
	"Si": MassSi,
	"Na": MassNa,
	"K":  MassK,
}

// Formula is an elemental composition, element symbol -> atom count.
type Formula map[string]int

// ParseFormula parses a Hill-style formula such as "C6H12O6" or "C2H5NO".
// Unknown element symbols are an error.
func ParseFormula(s string) (Formula, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty formula")
	}

	f := Formula{}
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !unicode.IsUpper(runes[i]) {
			return nil, fmt.Errorf("invalid formula '%s' at position %d", s, i)
		}
		j := i + 1
		for j < len(runes) && unicode.IsLower(runes[j]) {
			j++
		}
		symbol := string(runes[i:j])
		if _, ok := monoisotopicMass[symbol]; !ok {
			return nil, fmt.Errorf("unknown element '%s' in formula '%s'", symbol, s)
		}
		k := j
		for k < len(runes) && unicode.IsDigit(runes[k]) {
			k++
		}
		count := 1
		if k > j {
			n, err := strconv.Atoi(string(runes[j:k]))
			if err != nil {
				return nil, fmt.Errorf("invalid count for '%s' in formula '%s': %w", symbol, s, err)
			}
			count = n
		}
		f[symbol] += count
		i = k
	}
	return f, nil
}

// Mass returns the monoisotopic mass of the formula.
func (f Formula) Mass() float64 {
	mass := 0.0
	for el, n := range f {
		mass += monoisotopicMass[el] * float64(n)
	}
	return mass
}

// String formats the formula with C and H first, then the remaining
// elements alphabetically.
func (f Formula) String() string {
	var b strings.Builder
	write := func(el string) {
		n := f[el]
		if n <= 0 {
			return
		}
		b.WriteString(el)
		if n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	write("C")
	write("H")
	var rest []string
	for el := range f {
		if el != "C" && el != "H" {
			rest = append(rest, el)
		}
	}
	sort.Strings(rest)
	for _, el := range rest {
		write(el)
	}
	return b.String()
}

// FormulaMass parses a formula and returns its monoisotopic mass.
func FormulaMass(s string) (float64, error) {
	f, err := ParseFormula(s)
	if err != nil {
		return 0, err
	}
	return f.Mass(), nil
}

// AlkaneFormula returns the saturated alkane formula C(n)H(2n) whose nominal
// mass is closest to mass. Used to simulate isotope envelopes of unknowns.
func AlkaneFormula(mass float64) string {
	carbons := int(mass / 14.0)
	if carbons <= 1 {
		return "CH2"
	}
	return fmt.Sprintf("C%dH%d", carbons, carbons*2)
}

// PPM converts an absolute mass difference at mz into parts per million.
func PPM(mz, delta float64) float64 {
	return delta / mz * 1e6
}

// PPMToDa converts a ppm tolerance at mz into an absolute mass tolerance.
func PPMToDa(mz, ppm float64) float64 {
	return mz * ppm * 1e-6
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
