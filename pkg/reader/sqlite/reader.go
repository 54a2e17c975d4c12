// Package sqlite reads reference libraries stored in mzVault-style SQLite
// databases
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// Error is the error class of this package
var Error = errs.Class("sqlite library")

const libraryQuery = `
	SELECT s.SpectrumId, c.Name, c.Formula, c.Tag, c.CompoundClass, c.InChiKey,
		s.RetentionTime, s.PrecursorMass, s.CollisionEnergy, s.Polarity,
		s.PrecursorIonType, s.blobMass, s.blobIntensity
	FROM SpectrumTable s JOIN CompoundTable c ON s.CompoundId = c.CompoundId
	ORDER BY s.SpectrumId
`

// LibraryReader provides streaming access to the entries of a library database
type LibraryReader struct {
	db           *sql.DB
	rows         *sql.Rows
	annotations  map[int64]map[int]string
	currentEntry *core.ReferenceCompound
	err          error
}

// NewLibraryReader opens a library database for reading
func NewLibraryReader(path string) (*LibraryReader, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, Error.New("failed to open database: %v", err)
	}

	r := &LibraryReader{db: db}
	if err := r.loadAnnotations(); err != nil {
		db.Close()
		return nil, err
	}

	r.rows, err = db.Query(libraryQuery)
	if err != nil {
		db.Close()
		return nil, Error.New("failed to query spectra: %v", err)
	}
	return r, nil
}

// loadAnnotations reads peak comments up front, when the table exists
func (r *LibraryReader) loadAnnotations() error {
	var n int
	err := r.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'PeakAnnotationTable'`).Scan(&n)
	if err != nil {
		return Error.New("failed to inspect schema: %v", err)
	}
	r.annotations = make(map[int64]map[int]string)
	if n == 0 {
		return nil
	}

	rows, err := r.db.Query(`SELECT SpectrumId, PeakIndex, Annotation FROM PeakAnnotationTable`)
	if err != nil {
		return Error.New("failed to query peak annotations: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var spectrumID int64
		var index int
		var annotation string
		if err := rows.Scan(&spectrumID, &index, &annotation); err != nil {
			return Error.Wrap(err)
		}
		if r.annotations[spectrumID] == nil {
			r.annotations[spectrumID] = make(map[int]string)
		}
		r.annotations[spectrumID][index] = annotation
	}
	return Error.Wrap(rows.Err())
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *LibraryReader) Next() bool {
	r.currentEntry = nil
	if r.err != nil || !r.rows.Next() {
		if r.err == nil {
			r.err = Error.Wrap(r.rows.Err())
		}
		return false
	}

	entry, err := r.scan()
	if err != nil {
		r.err = err
		return false
	}
	r.currentEntry = entry
	return true
}

// Entry returns the current entry
func (r *LibraryReader) Entry() *core.ReferenceCompound {
	return r.currentEntry
}

// Err returns any error encountered during reading
func (r *LibraryReader) Err() error {
	return r.err
}

// ReadAll reads every remaining entry
func (r *LibraryReader) ReadAll() ([]core.ReferenceCompound, error) {
	var entries []core.ReferenceCompound
	for r.Next() {
		entries = append(entries, *r.Entry())
	}
	return entries, r.Err()
}

// Close releases the database
func (r *LibraryReader) Close() error {
	r.rows.Close()
	if err := r.db.Close(); err != nil {
		return Error.New("failed to close database: %v", err)
	}
	return nil
}

func (r *LibraryReader) scan() (*core.ReferenceCompound, error) {
	var (
		spectrumID                          int64
		name, formula, tag, class, inchikey sql.NullString
		polarity, adduct                    sql.NullString
		rt, precursor, energy               sql.NullFloat64
		mzBlob, intensityBlob               []byte
	)
	err := r.rows.Scan(&spectrumID, &name, &formula, &tag, &class, &inchikey,
		&rt, &precursor, &energy, &polarity, &adduct, &mzBlob, &intensityBlob)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	entry := &core.ReferenceCompound{
		Name:          name.String,
		Formula:       formula.String,
		CompoundClass: class.String,
		InChIKey:      inchikey.String,
		PrecursorMz:   precursor.Float64,
		RetentionTime: -1,
		AdductType:    adduct.String,
		IonMode:       core.Positive,
	}
	if rt.Valid {
		entry.RetentionTime = rt.Float64
	}
	if energy.Valid {
		ce := energy.Float64
		entry.CollisionEnergy = &ce
	}
	if polarity.String == "-" {
		entry.IonMode = core.Negative
	}
	if err := DecodeTag(tag.String, entry); err != nil {
		return nil, Error.New("spectrum %d: %v", spectrumID, err)
	}

	mzs, err := decodeFloat64(mzBlob)
	if err != nil {
		return nil, Error.New("spectrum %d: %v", spectrumID, err)
	}
	intensities, err := decodeFloat64(intensityBlob)
	if err != nil {
		return nil, Error.New("spectrum %d: %v", spectrumID, err)
	}
	if len(mzs) != len(intensities) {
		return nil, Error.New("spectrum %d: %d masses but %d intensities", spectrumID, len(mzs), len(intensities))
	}

	entry.Spectrum = make(core.Spectrum, len(mzs))
	for i := range mzs {
		entry.Spectrum[i] = core.Peak{
			MZ:         mzs[i],
			Intensity:  intensities[i],
			Annotation: r.annotations[spectrumID][i],
		}
	}
	entry.Spectrum.Sort()

	if err := entry.Validate(); err != nil {
		return nil, Error.Wrap(err)
	}
	return entry, nil
}

// DecodeTag reads the "key:value;..." pairs written for fields without an
// mzVault column. Unknown keys are ignored.
func DecodeTag(tag string, entry *core.ReferenceCompound) error {
	for _, part := range strings.Split(tag, ";") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ontology":
			entry.Ontology = value
		case "omics":
			entry.TargetOmics = value
		case "ccs":
			ccs, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			entry.CollisionCrossSection = ccs
		case "isotopes":
			var ratios []float64
			for _, s := range strings.Split(value, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return err
				}
				ratios = append(ratios, v)
			}
			entry.IsotopeRatios = ratios
		}
	}
	return nil
}

// decodeFloat64 decodes a little-endian float64 blob
func decodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, errs.New("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}
