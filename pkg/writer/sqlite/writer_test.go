package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

func testCompound() core.ReferenceCompound {
	ce := 20.0
	return core.ReferenceCompound{
		Name:            "Glucose",
		PrecursorMz:     181.0706646,
		RetentionTime:   5.1,
		Formula:         "C6H12O6",
		InChIKey:        "WQZGKKKJIJFFOK-GASJEMHNSA-N",
		AdductType:      "[M+H]+",
		Ontology:        "Hexoses",
		CompoundClass:   "Sugar",
		TargetOmics:     core.Metabolomics,
		IonMode:         core.Positive,
		CollisionEnergy: &ce,
		IsotopeRatios:   []float64{1, 0.0686},
		Spectrum: core.Spectrum{
			{MZ: 163.06, Intensity: 100, Annotation: "NL:H2O"},
			{MZ: 85.03, Intensity: 40},
		},
	}
}

func TestLibraryWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")

	w, err := NewLibraryWriter(path)
	require.NoError(t, err)

	c := testCompound()
	require.NoError(t, w.WriteCompound(&c))
	noRT := testCompound()
	noRT.Name = "Unknown"
	noRT.RetentionTime = -1
	noRT.CollisionEnergy = nil
	noRT.AdductType = "not an adduct"
	require.NoError(t, w.WriteCompound(&noRT))
	require.NoError(t, w.Close())

	// writing sorts the peaks in place
	assert.True(t, c.Spectrum.IsSorted())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM CompoundTable`).Scan(&count))
	assert.Equal(t, 2, count)

	var (
		name, tag, adduct, polarity string
		precursor                   float64
		neutral, rt                 sql.NullFloat64
		mzBlob                      []byte
	)
	err = db.QueryRow(`
		SELECT c.Name, c.Tag, s.PrecursorIonType, s.Polarity, s.PrecursorMass, s.NeutralMass, s.RetentionTime, s.blobMass
		FROM SpectrumTable s JOIN CompoundTable c ON s.CompoundId = c.CompoundId
		WHERE s.SpectrumId = 1`).Scan(&name, &tag, &adduct, &polarity, &precursor, &neutral, &rt, &mzBlob)
	require.NoError(t, err)
	assert.Equal(t, "Glucose", name)
	assert.Equal(t, "ontology:Hexoses;omics:metabolomics;isotopes:1,0.0686", tag)
	assert.Equal(t, "[M+H]+", adduct)
	assert.Equal(t, "+", polarity)
	assert.InDelta(t, 181.0706646, precursor, 1e-9)
	require.True(t, neutral.Valid)
	assert.InDelta(t, 180.0633881, neutral.Float64, 1e-6)
	assert.InDelta(t, 5.1, rt.Float64, 1e-9)
	assert.Len(t, mzBlob, 16)

	err = db.QueryRow(`SELECT s.NeutralMass, s.RetentionTime FROM SpectrumTable s WHERE s.SpectrumId = 2`).Scan(&neutral, &rt)
	require.NoError(t, err)
	assert.False(t, neutral.Valid)
	assert.False(t, rt.Valid)

	var annotation string
	var index int
	require.NoError(t, db.QueryRow(`SELECT PeakIndex, Annotation FROM PeakAnnotationTable WHERE SpectrumId = 1`).Scan(&index, &annotation))
	assert.Equal(t, 1, index)
	assert.Equal(t, "NL:H2O", annotation)

	var modified int
	require.NoError(t, db.QueryRow(`SELECT NoofCompoundsModified FROM MaintenanceTable`).Scan(&modified))
	assert.Equal(t, 2, modified)
}

func TestEncodeTag(t *testing.T) {
	tests := []struct {
		name     string
		compound core.ReferenceCompound
		want     string
	}{
		{"empty", core.ReferenceCompound{}, ""},
		{"ccs only", core.ReferenceCompound{CollisionCrossSection: 140.5}, "ccs:140.5"},
		{"omics and ccs", core.ReferenceCompound{TargetOmics: core.Lipidomics, CollisionCrossSection: 280}, "omics:lipidomics;ccs:280"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeTag(&tt.compound); got != tt.want {
				t.Errorf("EncodeTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResultWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	matched := core.NewPeakFeature(1, 181.0707, 5.1, 10000)
	matched.ResetChannels(2)
	matched.LibraryIDs[1] = 4
	matched.Scores[1] = 91.2
	matched.MetaboliteName = "Glucose"
	matched.LibraryID = 4
	matched.TotalScore = 91.2
	matched.IsMs2Match = true

	unmatched := core.NewPeakFeature(2, 300.1, 6.0, 500)
	unmatched.ResetChannels(2)

	w, err := NewResultWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WritePeaks([]core.PeakFeature{matched, unmatched}))
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var name string
	var libraryID int
	var score float64
	var ms2 bool
	require.NoError(t, db.QueryRow(`SELECT MetaboliteName, LibraryId, TotalScore, IsMs2Match FROM PeakTable WHERE PeakId = 1`).
		Scan(&name, &libraryID, &score, &ms2))
	assert.Equal(t, "Glucose", name)
	assert.Equal(t, 4, libraryID)
	assert.InDelta(t, 91.2, score, 1e-9)
	assert.True(t, ms2)

	require.NoError(t, db.QueryRow(`SELECT LibraryId, TotalScore FROM PeakTable WHERE PeakId = 2`).Scan(&libraryID, &score))
	assert.Equal(t, -1, libraryID)
	assert.InDelta(t, -1, score, 1e-9)

	var channels int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM ChannelTable`).Scan(&channels))
	assert.Equal(t, 4, channels)

	require.NoError(t, db.QueryRow(`SELECT LibraryId FROM ChannelTable WHERE PeakId = 1 AND Channel = 1`).Scan(&libraryID))
	assert.Equal(t, 4, libraryID)
}

func TestResultWriterDuplicatePeak(t *testing.T) {
	w, err := NewResultWriter(filepath.Join(t.TempDir(), "dup.db"))
	require.NoError(t, err)
	defer w.Close()

	p := core.NewPeakFeature(1, 100, 1, 1)
	err = w.WritePeaks([]core.PeakFeature{p, p})
	require.Error(t, err)
	assert.True(t, Error.Has(err))
}
