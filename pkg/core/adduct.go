// Package core provides adduct descriptor parsing and management
package core

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// IonMode is the polarity of an ion.
type IonMode string

const (
	Positive IonMode = "Positive"
	Negative IonMode = "Negative"
)

// AdductIon describes a precursor ion type such as [M+H]+ or [2M-H]-.
type AdductIon struct {
	Name          string  // Descriptor as written, e.g. "[M+NH4]+"
	MoleculeCount int     // Number of molecules M
	ChargeNumber  int     // Absolute charge
	IonMode       IonMode // Polarity
	AdductMass    float64 // Signed sum of the added/removed groups (neutral)
	FormatCheck   bool    // True when the descriptor parsed successfully
}

// PrecursorMZ returns the m/z of this adduct for a neutral monoisotopic mass.
func (a AdductIon) PrecursorMZ(neutralMass float64) float64 {
	if a.ChargeNumber <= 0 {
		return 0
	}
	electrons := ElectronMass * float64(a.ChargeNumber)
	if a.IonMode == Negative {
		electrons = -electrons
	}
	return (float64(a.MoleculeCount)*neutralMass + a.AdductMass - electrons) / float64(a.ChargeNumber)
}

// NeutralMass is the inverse of PrecursorMZ.
func (a AdductIon) NeutralMass(mz float64) float64 {
	if a.MoleculeCount <= 0 {
		return 0
	}
	electrons := ElectronMass * float64(a.ChargeNumber)
	if a.IonMode == Negative {
		electrons = -electrons
	}
	return (mz*float64(a.ChargeNumber) + electrons - a.AdductMass) / float64(a.MoleculeCount)
}

// AdductDatabase stores the masses of adduct groups that are not plain formulas
type AdductDatabase struct {
	groups map[string]float64 // name -> neutral mass
}

// NewAdductDatabase creates an empty adduct database
func NewAdductDatabase() *AdductDatabase {
	return &AdductDatabase{
		groups: make(map[string]float64),
	}
}

// LoadFromCSV loads adduct groups from a CSV file (format: name,mass)
func (db *AdductDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.groups[name] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the neutral mass of a group. Named groups take precedence,
// otherwise the name is parsed as an elemental formula.
func (db *AdductDatabase) GetMass(name string) (float64, bool) {
	if mass, ok := db.groups[name]; ok {
		return mass, true
	}
	mass, err := FormulaMass(name)
	if err != nil {
		return 0, false
	}
	return mass, true
}

// Add adds or updates a named group
func (db *AdductDatabase) Add(name string, mass float64) {
	db.groups[name] = mass
}

var (
	adductPattern = regexp.MustCompile(`^\[(\d*)M([^\]]*)\](\d*)([+-])$`)
	groupPattern  = regexp.MustCompile(`([+-])(\d*)([A-Za-z][A-Za-z0-9]*)`)
)

// Parse parses an adduct descriptor like "[M+H]+", "[M+2H]2+" or "[M+FA-H]-".
// On failure the returned AdductIon carries the input name and FormatCheck == false.
func (db *AdductDatabase) Parse(descriptor string) (AdductIon, error) {
	name := strings.TrimSpace(descriptor)
	adduct := AdductIon{Name: name}

	m := adductPattern.FindStringSubmatch(name)
	if m == nil {
		return adduct, fmt.Errorf("invalid adduct format '%s', expected e.g. '[M+H]+'", name)
	}

	adduct.MoleculeCount = 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return adduct, fmt.Errorf("invalid molecule count in adduct '%s'", name)
		}
		adduct.MoleculeCount = n
	}

	adduct.ChargeNumber = 1
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil || n <= 0 {
			return adduct, fmt.Errorf("invalid charge in adduct '%s'", name)
		}
		adduct.ChargeNumber = n
	}

	adduct.IonMode = Positive
	if m[4] == "-" {
		adduct.IonMode = Negative
	}

	// Every character of the group section must be consumed by group tokens
	groups := m[2]
	consumed := 0
	for _, g := range groupPattern.FindAllStringSubmatchIndex(groups, -1) {
		if g[0] != consumed {
			return adduct, fmt.Errorf("invalid group section '%s' in adduct '%s'", groups, name)
		}
		consumed = g[1]

		sign := groups[g[2]:g[3]]
		countStr := groups[g[4]:g[5]]
		group := groups[g[6]:g[7]]

		count := 1
		if countStr != "" {
			n, err := strconv.Atoi(countStr)
			if err != nil {
				return adduct, fmt.Errorf("invalid group count in adduct '%s'", name)
			}
			count = n
		}
		mass, ok := db.GetMass(group)
		if !ok {
			return adduct, fmt.Errorf("unknown adduct group '%s' in '%s'", group, name)
		}
		if sign == "-" {
			mass = -mass
		}
		adduct.AdductMass += float64(count) * mass
	}
	if consumed != len(groups) {
		return adduct, fmt.Errorf("invalid group section '%s' in adduct '%s'", groups, name)
	}

	adduct.FormatCheck = true
	return adduct, nil
}

var defaultAdducts = DefaultAdductDatabase()

// ParseAdduct parses a descriptor using the default adduct database.
func ParseAdduct(descriptor string) (AdductIon, error) {
	return defaultAdducts.Parse(descriptor)
}

// DefaultAdductDatabase returns an AdductDatabase pre-loaded with the
// abbreviations commonly found in LC-MS libraries
func DefaultAdductDatabase() *AdductDatabase {
	db := NewAdductDatabase()

	db.Add("FA", 46.005479)      // HCOOH
	db.Add("Hac", 60.021129)     // CH3COOH
	db.Add("HAc", 60.021129)     // CH3COOH
	db.Add("ACN", 41.026549)     // CH3CN
	db.Add("MeOH", 32.026215)    // CH3OH
	db.Add("IsoProp", 60.057515) // C3H8O
	db.Add("DMSO", 78.013936)    // C2H6OS
	db.Add("TFA", 113.992862)    // C2HF3O2
	db.Add("Li", 7.016004)

	return db
}
