// Package peaktable provides streaming access to tab-separated peak tables
package peaktable

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/zeebo/errs"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// Error is the error class of this package
var Error = errs.Class("peaktable")

// Column names understood by the reader. Only mz and rt are required.
const (
	ColID        = "id"
	ColMz        = "mz"
	ColRt        = "rt"
	ColRtLeft    = "rt_left"
	ColRtRight   = "rt_right"
	ColScanLeft  = "scan_left"
	ColScanTop   = "scan_top"
	ColScanRight = "scan_right"
	ColIntensity = "intensity"
	ColDriftTime = "drift_time"
)

// Reader provides streaming access to peak table files
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	columns     map[string]int
	currentPeak *core.PeakFeature
	nextID      int
	err         error
}

// NewReader creates a new peak table reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next advances to the next peak. Returns false when no more peaks or error.
func (r *Reader) Next() bool {
	r.currentPeak = nil

	peak, err := r.readPeak()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentPeak = peak
	return true
}

// Peak returns the current peak
func (r *Reader) Peak() *core.PeakFeature {
	return r.currentPeak
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining peak
func (r *Reader) ReadAll() ([]core.PeakFeature, error) {
	var peaks []core.PeakFeature
	for r.Next() {
		peaks = append(peaks, *r.Peak())
	}
	return peaks, r.Err()
}

// readPeak reads the next data row, consuming the header first
func (r *Reader) readPeak() (*core.PeakFeature, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r\n")

		// Skip comments and empty lines
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if r.columns == nil {
			if err := r.parseHeader(fields); err != nil {
				return nil, err
			}
			continue
		}
		return r.parseRow(fields)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, Error.Wrap(err)
	}
	return nil, io.EOF
}

// parseHeader maps column names to positions
func (r *Reader) parseHeader(fields []string) error {
	columns := make(map[string]int, len(fields))
	for i, name := range fields {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColMz, ColRt} {
		if _, ok := columns[required]; !ok {
			return Error.New("line %d: missing required column %q", r.lineNum, required)
		}
	}
	r.columns = columns
	return nil
}

// parseRow builds a peak from one data row
func (r *Reader) parseRow(fields []string) (*core.PeakFeature, error) {
	float := func(col string, def float64) (float64, error) {
		i, ok := r.columns[col]
		if !ok || i >= len(fields) || strings.TrimSpace(fields[i]) == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return 0, Error.New("line %d: invalid %s value %q", r.lineNum, col, fields[i])
		}
		return v, nil
	}
	integer := func(col string, def int) (int, error) {
		i, ok := r.columns[col]
		if !ok || i >= len(fields) || strings.TrimSpace(fields[i]) == "" {
			return def, nil
		}
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return 0, Error.New("line %d: invalid %s value %q", r.lineNum, col, fields[i])
		}
		return v, nil
	}

	id, err := integer(ColID, r.nextID)
	if err != nil {
		return nil, err
	}
	mz, err := float(ColMz, 0)
	if err != nil {
		return nil, err
	}
	rt, err := float(ColRt, 0)
	if err != nil {
		return nil, err
	}
	intensity, err := float(ColIntensity, 0)
	if err != nil {
		return nil, err
	}

	peak := core.NewPeakFeature(id, mz, rt, intensity)
	if peak.RtLeft, err = float(ColRtLeft, rt); err != nil {
		return nil, err
	}
	if peak.RtRight, err = float(ColRtRight, rt); err != nil {
		return nil, err
	}
	if peak.ScanLeft, err = integer(ColScanLeft, 0); err != nil {
		return nil, err
	}
	if peak.ScanTop, err = integer(ColScanTop, 0); err != nil {
		return nil, err
	}
	if peak.ScanRight, err = integer(ColScanRight, 0); err != nil {
		return nil, err
	}
	if peak.DriftTime, err = float(ColDriftTime, 0); err != nil {
		return nil, err
	}

	if err := peak.Validate(); err != nil {
		return nil, Error.New("line %d: %v", r.lineNum, err)
	}

	r.nextID = id + 1
	return &peak, nil
}
