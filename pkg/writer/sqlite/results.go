package sqlite

import (
	"database/sql"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// ResultSchema holds one row per peak and one row per peak and
// collision energy channel
const ResultSchema = `
	CREATE TABLE IF NOT EXISTS PeakTable (
		PeakId INTEGER PRIMARY KEY,
		Mz DOUBLE,
		RtTop DOUBLE,
		RtLeft DOUBLE,
		RtRight DOUBLE,
		ScanTop INTEGER,
		Intensity DOUBLE,
		DriftTime DOUBLE,
		CCS DOUBLE,
		ChargeNumber INTEGER,
		IsotopeWeightNumber INTEGER,
		IsotopeParentPeakId INTEGER,
		MetaboliteName TEXT,
		LibraryId INTEGER,
		InChiKey TEXT,
		Adduct TEXT,
		TotalScore DOUBLE,
		AccurateMassSimilarity DOUBLE,
		RtSimilarity DOUBLE,
		IsotopeSimilarity DOUBLE,
		MassSpectraSimilarity DOUBLE,
		ReverseSearchSimilarity DOUBLE,
		PresenceSimilarity DOUBLE,
		IsRtMatch BOOL,
		IsMs1Match BOOL,
		IsMs2Match BOOL,
		IsCcsMatch BOOL,
		IsLipidClassMatch BOOL,
		IsLipidChainsMatch BOOL,
		IsLipidPositionMatch BOOL
	);

	CREATE TABLE IF NOT EXISTS ChannelTable (
		PeakId INTEGER REFERENCES PeakTable(PeakId),
		Channel INTEGER,
		LibraryId INTEGER,
		Score DOUBLE
	);
	`

// ResultWriter writes annotated peaks to a SQLite database
type ResultWriter struct {
	db *sql.DB
}

// NewResultWriter creates a new result writer
func NewResultWriter(outputPath string) (*ResultWriter, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, Error.New("failed to open database: %v", err)
	}
	if _, err := db.Exec(ResultSchema); err != nil {
		db.Close()
		return nil, Error.New("failed to create tables: %v", err)
	}
	return &ResultWriter{db: db}, nil
}

// WritePeaks writes all peaks in a single transaction
func (w *ResultWriter) WritePeaks(peaks []core.PeakFeature) (err error) {
	tx, err := w.db.Begin()
	if err != nil {
		return Error.New("failed to begin transaction: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	peakStmt, err := tx.Prepare(`
		INSERT INTO PeakTable VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`)
	if err != nil {
		return Error.New("failed to prepare peak statement: %v", err)
	}
	defer peakStmt.Close()

	channelStmt, err := tx.Prepare(`INSERT INTO ChannelTable (PeakId, Channel, LibraryId, Score) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Error.New("failed to prepare channel statement: %v", err)
	}
	defer channelStmt.Close()

	for i := range peaks {
		p := &peaks[i]
		_, err = peakStmt.Exec(
			p.PeakID, p.Mz, p.RtTop, p.RtLeft, p.RtRight, p.ScanTop, p.Intensity,
			p.DriftTime, p.CollisionCrossSection,
			p.ChargeNumber, p.IsotopeWeightNumber, p.IsotopeParentPeakID,
			p.MetaboliteName, p.LibraryID, p.InChIKey, p.Adduct.Name, p.TotalScore,
			p.AccurateMassSimilarity, p.RtSimilarity, p.IsotopeSimilarity,
			p.MassSpectraSimilarity, p.ReverseSearchSimilarity, p.PresenceSimilarity,
			p.IsRtMatch, p.IsMs1Match, p.IsMs2Match, p.IsCcsMatch,
			p.IsLipidClassMatch, p.IsLipidChainsMatch, p.IsLipidPositionMatch,
		)
		if err != nil {
			return Error.New("failed to insert peak %d: %v", p.PeakID, err)
		}

		for ch := range p.LibraryIDs {
			if _, err = channelStmt.Exec(p.PeakID, ch, p.LibraryIDs[ch], p.Scores[ch]); err != nil {
				return Error.New("failed to insert channel %d of peak %d: %v", ch, p.PeakID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return Error.New("failed to commit: %v", err)
	}
	return nil
}

// Close closes the database connection
func (w *ResultWriter) Close() error {
	if err := w.db.Close(); err != nil {
		return Error.New("failed to close database: %v", err)
	}
	return nil
}
