// Package msp provides streaming readers for MSP format reference libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner      *bufio.Scanner
	adducts      *core.AdductDatabase
	lineNum      int
	currentEntry *core.ReferenceCompound
	err          error
}

// NewReader creates a new MSP reader. The adduct database resolves precursor
// m/z values of entries that only carry an exact mass.
func NewReader(r io.Reader, adducts *core.AdductDatabase) *Reader {
	if adducts == nil {
		adducts = core.DefaultAdductDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	return &Reader{
		scanner: scanner,
		adducts: adducts,
	}
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	r.currentEntry = nil

	entry, err := r.readEntry()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentEntry = entry
	return true
}

// Entry returns the current entry
func (r *Reader) Entry() *core.ReferenceCompound {
	return r.currentEntry
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining entry
func (r *Reader) ReadAll() ([]core.ReferenceCompound, error) {
	var entries []core.ReferenceCompound
	for r.Next() {
		entries = append(entries, *r.Entry())
	}
	return entries, r.Err()
}

// readEntry reads a single entry from the MSP file
func (r *Reader) readEntry() (*core.ReferenceCompound, error) {
	entry := &core.ReferenceCompound{
		RetentionTime: -1,
		LibraryID:     -1,
	}

	var numPeaks int
	var exactMass float64
	inPeaks := false
	peaksRead := 0

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" {
			// Skip empty lines between entries
			if entry.Name == "" {
				continue
			}
			// A blank line ends an entry without peaks
			break
		}

		if inPeaks {
			peak, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			entry.Spectrum = append(entry.Spectrum, peak)
			peaksRead++

			// Check if we've read all peaks
			if peaksRead >= numPeaks {
				break
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "NAME":
			entry.Name = value
		case "PRECURSORMZ":
			mz, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid precursor m/z: %w", r.lineNum, err)
			}
			entry.PrecursorMz = mz
		case "EXACTMASS":
			mass, err := strconv.ParseFloat(value, 64)
			if err == nil {
				exactMass = mass
			}
		case "PRECURSORTYPE", "ADDUCT":
			entry.AdductType = value
		case "FORMULA":
			entry.Formula = value
		case "ONTOLOGY":
			entry.Ontology = value
		case "COMPOUNDCLASS":
			entry.CompoundClass = value
		case "INCHIKEY":
			entry.InChIKey = value
		case "RETENTIONTIME", "RT":
			rt, err := strconv.ParseFloat(value, 64)
			if err == nil {
				entry.RetentionTime = rt
			}
		case "CCS", "COLLISIONCROSSSECTION":
			ccs, err := strconv.ParseFloat(value, 64)
			if err == nil {
				entry.CollisionCrossSection = ccs
			}
		case "IONMODE":
			if strings.HasPrefix(strings.ToLower(value), "n") {
				entry.IonMode = core.Negative
			} else {
				entry.IonMode = core.Positive
			}
		case "COLLISIONENERGY":
			ce, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(value), "ev"), 64)
			if err == nil {
				entry.CollisionEnergy = &ce
			}
		case "TARGETOMICS":
			entry.TargetOmics = strings.ToLower(value)
		case "ISOTOPERATIOS":
			ratios, err := parseRatios(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			entry.IsotopeRatios = ratios
		case "COMMENT":
			entry.Comment = value
		case "NUM PEAKS":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
			}
			numPeaks = n
			inPeaks = n > 0
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if entry.Name == "" {
		return nil, io.EOF
	}
	if inPeaks && peaksRead < numPeaks {
		return nil, fmt.Errorf("entry '%s': expected %d peaks, found %d", entry.Name, numPeaks, peaksRead)
	}

	if entry.PrecursorMz == 0 && exactMass > 0 && entry.AdductType != "" {
		adduct, err := r.adducts.Parse(entry.AdductType)
		if err != nil {
			return nil, fmt.Errorf("entry '%s': %w", entry.Name, err)
		}
		entry.PrecursorMz = adduct.PrecursorMZ(exactMass)
	}

	entry.Spectrum.Sort()
	return entry, nil
}

// parseRatios parses a comma separated list of isotope abundances
func parseRatios(value string) ([]float64, error) {
	var ratios []float64
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid isotope ratio '%s': %w", field, err)
		}
		ratios = append(ratios, v)
	}
	return ratios, nil
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"comment\"")
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.Peak{
		MZ:        mz,
		Intensity: intensity,
	}

	// The comment is the rest of the line and may contain spaces
	if len(fields) >= 3 {
		rest := strings.TrimSpace(line[len(fields[0]):])
		rest = strings.TrimSpace(rest[len(fields[1]):])
		peak.Annotation = strings.Trim(rest, "\"")
	}

	return peak, nil
}
