// Package sqlite provides SQLite database writing for reference libraries
// and identification results
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// Error is the error class of this package
var Error = errs.Class("sqlite")

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Date format for MaintenanceTable
	maintenanceDateFormat = "2006 01 02"
)

// Tag keys stored in CompoundTable.Tag for fields mzVault has no column for
const (
	TagOntology    = "ontology"
	TagTargetOmics = "omics"
	TagCCS         = "ccs"
	TagIsotopes    = "isotopes"
)

// LibraryWriter writes reference compounds to an mzVault-style database
type LibraryWriter struct {
	db             *sql.DB
	outputPath     string
	compoundStmt   *sql.Stmt
	spectrumStmt   *sql.Stmt
	annotationStmt *sql.Stmt
	compoundID     int
}

// NewLibraryWriter creates a new library writer
func NewLibraryWriter(outputPath string) (*LibraryWriter, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, Error.New("failed to open database: %v", err)
	}

	w := &LibraryWriter{
		db:         db,
		outputPath: outputPath,
		compoundID: 1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// LibrarySchema is the mzVault schema plus a table for peak comments
const LibrarySchema = `
	CREATE TABLE IF NOT EXISTS CompoundTable (
		CompoundId INTEGER PRIMARY KEY,
		Formula TEXT,
		Name TEXT,
		Synonyms BLOB_TEXT,
		Tag TEXT,
		Sequence TEXT,
		CASId TEXT,
		ChemSpiderId TEXT,
		HMDBId TEXT,
		KEGGId TEXT,
		PubChemId TEXT,
		Structure BLOB_TEXT,
		mzCloudId INTEGER,
		CompoundClass TEXT,
		SmilesDescription TEXT,
		InChiKey TEXT
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		CompoundId INTEGER REFERENCES CompoundTable(CompoundId),
		mzCloudURL TEXT,
		ScanFilter TEXT,
		RetentionTime DOUBLE,
		ScanNumber INTEGER,
		PrecursorMass DOUBLE,
		NeutralMass DOUBLE,
		CollisionEnergy DOUBLE,
		Polarity TEXT,
		FragmentationMode TEXT,
		IonizationMode TEXT,
		MassAnalyzer TEXT,
		InstrumentName TEXT,
		InstrumentOperator TEXT,
		RawFileURL TEXT,
		blobMass BLOB,
		blobIntensity BLOB,
		blobAccuracy BLOB,
		blobResolution BLOB,
		blobNoises BLOB,
		blobFlags BLOB,
		blobTopPeaks BLOB,
		Version INTEGER,
		CreationDate TEXT,
		Curator TEXT,
		CurationType TEXT,
		PrecursorIonType TEXT,
		Accession TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT,
		Company TEXT,
		ReadOnly BOOL,
		UserAccess TEXT,
		PartialEdits BOOL
	);

	CREATE TABLE IF NOT EXISTS MaintenanceTable (
		CreationDate TEXT,
		NoofCompoundsModified INTEGER,
		Description TEXT
	);

	CREATE TABLE IF NOT EXISTS PeakAnnotationTable (
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		PeakIndex INTEGER,
		Annotation TEXT
	);
	`

// createTables creates the required database schema
func (w *LibraryWriter) createTables() error {
	if _, err := w.db.Exec(LibrarySchema); err != nil {
		return Error.New("failed to create tables: %v", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *LibraryWriter) prepareStatements() error {
	var err error

	w.compoundStmt, err = w.db.Prepare(`
		INSERT INTO CompoundTable (
			CompoundId, Formula, Name, Tag, CompoundClass, InChiKey
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Error.New("failed to prepare compound statement: %v", err)
	}

	w.spectrumStmt, err = w.db.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, CompoundId, RetentionTime, ScanNumber, PrecursorMass,
			NeutralMass, CollisionEnergy, Polarity, IonizationMode,
			blobMass, blobIntensity, PrecursorIonType
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Error.New("failed to prepare spectrum statement: %v", err)
	}

	w.annotationStmt, err = w.db.Prepare(`
		INSERT INTO PeakAnnotationTable (SpectrumId, PeakIndex, Annotation) VALUES (?, ?, ?)
	`)
	if err != nil {
		return Error.New("failed to prepare annotation statement: %v", err)
	}

	return nil
}

// WriteCompound writes a single reference compound to the database
func (w *LibraryWriter) WriteCompound(c *core.ReferenceCompound) error {
	// Ensure peaks are sorted
	if !c.Spectrum.IsSorted() {
		c.Spectrum.Sort()
	}

	_, err := w.compoundStmt.Exec(
		w.compoundID,    // CompoundId
		c.Formula,       // Formula
		c.Name,          // Name
		EncodeTag(c),    // Tag
		c.CompoundClass, // CompoundClass
		c.InChIKey,      // InChiKey
	)
	if err != nil {
		return Error.New("failed to insert compound: %v", err)
	}

	// Handle optional retention time
	var rt interface{}
	if c.HasRetentionTime() {
		rt = c.RetentionTime
	}

	// Handle optional collision energy
	var ce interface{}
	if c.CollisionEnergy != nil {
		ce = *c.CollisionEnergy
	}

	// Neutral mass is only known when the adduct parses
	var neutralMass interface{}
	if adduct, err := core.ParseAdduct(c.AdductType); err == nil {
		neutralMass = adduct.NeutralMass(c.PrecursorMz)
	}

	polarity := "+"
	if c.IonMode == core.Negative {
		polarity = "-"
	}

	_, err = w.spectrumStmt.Exec(
		w.compoundID,                          // SpectrumId (same as CompoundId for 1:1 mapping)
		w.compoundID,                          // CompoundId
		rt,                                    // RetentionTime
		0,                                     // ScanNumber
		c.PrecursorMz,                         // PrecursorMass
		neutralMass,                           // NeutralMass
		ce,                                    // CollisionEnergy
		polarity,                              // Polarity
		"ESI",                                 // IonizationMode
		encodePeaksFloat64(c.Spectrum, true),  // blobMass
		encodePeaksFloat64(c.Spectrum, false), // blobIntensity
		c.AdductType,                          // PrecursorIonType
	)
	if err != nil {
		return Error.New("failed to insert spectrum: %v", err)
	}

	for i, peak := range c.Spectrum {
		if peak.Annotation == "" {
			continue
		}
		if _, err := w.annotationStmt.Exec(w.compoundID, i, peak.Annotation); err != nil {
			return Error.New("failed to insert peak annotation: %v", err)
		}
	}

	w.compoundID++
	return nil
}

// EncodeTag stores the fields without an mzVault column as
// "key:value" pairs separated by semicolons
func EncodeTag(c *core.ReferenceCompound) string {
	var parts []string
	if c.Ontology != "" {
		parts = append(parts, TagOntology+":"+c.Ontology)
	}
	if c.TargetOmics != "" {
		parts = append(parts, TagTargetOmics+":"+c.TargetOmics)
	}
	if c.CollisionCrossSection > 0 {
		parts = append(parts, TagCCS+":"+strconv.FormatFloat(c.CollisionCrossSection, 'g', -1, 64))
	}
	if len(c.IsotopeRatios) > 0 {
		ratios := make([]string, len(c.IsotopeRatios))
		for i, r := range c.IsotopeRatios {
			ratios[i] = strconv.FormatFloat(r, 'g', -1, 64)
		}
		parts = append(parts, TagIsotopes+":"+strings.Join(ratios, ","))
	}
	return strings.Join(parts, ";")
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// Finalize writes the header and maintenance tables and closes the database
func (w *LibraryWriter) Finalize() error {
	now := time.Now()
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description, Company, ReadOnly, UserAccess, PartialEdits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, 5, now.Format(headerDateFormat), now.Format(headerDateFormat), "", "", false, "", false)
	if err != nil {
		return Error.New("failed to insert header: %v", err)
	}

	_, err = w.db.Exec(`
		INSERT INTO MaintenanceTable (CreationDate, NoofCompoundsModified, Description)
		VALUES (?, ?, ?)
	`, now.Format(maintenanceDateFormat), w.compoundID-1, "")
	if err != nil {
		return Error.New("failed to insert maintenance: %v", err)
	}

	return w.close()
}

func (w *LibraryWriter) close() error {
	for _, stmt := range []*sql.Stmt{w.compoundStmt, w.spectrumStmt, w.annotationStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	if err := w.db.Close(); err != nil {
		return Error.New("failed to close database: %v", err)
	}
	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *LibraryWriter) Close() error {
	return w.Finalize()
}
