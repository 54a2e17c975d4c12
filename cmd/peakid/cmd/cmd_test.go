package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/config"
	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/snapshot"
)

const testLibrary = `NAME: Glucose
PRECURSORMZ: 181.0707
PRECURSORTYPE: [M+H]+
FORMULA: C6H12O6
COMPOUNDCLASS: Sugar
RETENTIONTIME: 2.05
Num Peaks: 2
85.0284	100
163.0601	60	"NL:H2O"

NAME: Citric acid
PRECURSORMZ: 191.0197
PRECURSORTYPE: [M-H]-
COMPOUNDCLASS: Acid
IONMODE: Negative
Num Peaks: 1
111.0088	0
`

const testPeaks = `id	mz	rt	intensity
0	181.0707	2.05	10000
1	182.0740	2.05	650
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func float64Array(values ...float64) string {
	var raw []byte
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// a run with one MS1 scan at the apex of the test peaks and no MS/MS
func testRun() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
<run id="run1"><spectrumList count="1">
<spectrum index="0" id="scan=1" defaultArrayLength="2">
<cvParam accession="MS:1000511" value="1"/>
<scanList count="1"><scan><cvParam accession="MS:1000016" value="2.05" unitAccession="UO:0000031"/></scan></scanList>
<binaryDataArrayList count="2">
<binaryDataArray><cvParam accession="MS:1000523"/><cvParam accession="MS:1000514"/><binary>%s</binary></binaryDataArray>
<binaryDataArray><cvParam accession="MS:1000523"/><cvParam accession="MS:1000515"/><binary>%s</binary></binaryDataArray>
</binaryDataArrayList>
</spectrum>
</spectrumList></run></mzML>`, float64Array(181.0707, 182.0740), float64Array(10000, 650))
}

func TestFileKind(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"library.msp", "msp"},
		{"LIB.MSP", "msp"},
		{"library.db", "sqlite"},
		{"library.sqlite", "sqlite"},
		{"peaks.msgpack", "snapshot"},
		{"peaks.tsv", "table"},
		{"peaks", "table"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := fileKind(tt.path); got != tt.want {
				t.Errorf("fileKind(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCountClusters(t *testing.T) {
	peaks := []core.PeakFeature{
		{PeakID: 0, IsotopeInfo: core.IsotopeInfo{IsotopeWeightNumber: 0, IsotopeParentPeakID: 0}},
		{PeakID: 1, IsotopeInfo: core.IsotopeInfo{IsotopeWeightNumber: 1, IsotopeParentPeakID: 0}},
		{PeakID: 2, IsotopeInfo: core.IsotopeInfo{IsotopeWeightNumber: 2, IsotopeParentPeakID: 0}},
		{PeakID: 3, IsotopeInfo: core.IsotopeInfo{IsotopeWeightNumber: 0, IsotopeParentPeakID: 3}},
		{PeakID: 4, IsotopeInfo: core.IsotopeInfo{IsotopeWeightNumber: -1, IsotopeParentPeakID: -1}},
	}
	mono, clusters := countClusters(peaks)
	assert.Equal(t, 2, mono)
	assert.Equal(t, 1, clusters)
	assert.True(t, needsIsotopes(peaks))
	assert.False(t, needsIsotopes(peaks[:4]))
}

func TestLoadParameters(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "params.toml", "identification_score_cutoff = 50.0\nnum_threads = 3\n")

	c := &cobra.Command{Use: "test"}
	c.Flags().Float64Var(&scoreCutoff, "score-cutoff", 0, "")
	c.Flags().StringVar(&targetOmics, "omics", "", "")
	require.NoError(t, c.Flags().Parse([]string{"--omics", "lipidomics"}))

	configFile = cfg
	defer func() { configFile = "" }()

	params, err := loadParameters(c, applyIdentifyOverrides)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, params.IdentificationScoreCutOff, 1e-9)
	assert.Equal(t, 3, params.NumThreads)
	assert.Equal(t, core.Lipidomics, params.TargetOmics)

	// without overrides the file values are kept
	params, err = loadParameters(c, nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default().TargetOmics, params.TargetOmics)
}

func TestLoadParametersInvalid(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().Float64Var(&ms1Tolerance, "ms1-tolerance", 0, "")
	require.NoError(t, c.Flags().Parse([]string{"--ms1-tolerance=-1"}))

	_, err := loadParameters(c, applyIdentifyOverrides)
	require.Error(t, err)
}

func TestWritePeaksFormats(t *testing.T) {
	dir := t.TempDir()
	peaks := []core.PeakFeature{core.NewPeakFeature(0, 181.0707, 2.05, 10000)}

	for _, name := range []string{"out.tsv", "out.db", "out.msgpack"} {
		path := filepath.Join(dir, name)
		require.NoError(t, writePeaks(path, "test", peaks), name)
		_, err := os.Stat(path)
		require.NoError(t, err, name)
	}
	assert.Error(t, writePeaks(filepath.Join(dir, "out.msp"), "test", peaks))

	loaded, err := loadPeaks(filepath.Join(dir, "out.msgpack"))
	require.NoError(t, err)
	assert.Equal(t, peaks, loaded)

	loaded, err = loadPeaks(filepath.Join(dir, "out.tsv"))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.InDelta(t, 181.0707, loaded[0].Mz, 1e-6)
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "library.msp", testLibrary)

	lib, err := loadLibrary(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())

	_, err = loadLibrary(filepath.Join(dir, "library.txt"), nil)
	assert.Error(t, err)

	_, err = loadAdducts(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	mspPath := writeFile(t, dir, "library.msp", testLibrary)
	peaksPath := writeFile(t, dir, "peaks.tsv", testPeaks)
	runPath := writeFile(t, dir, "run.mzML", testRun())
	dbPath := filepath.Join(dir, "library.db")
	isotopesPath := filepath.Join(dir, "isotopes.msgpack")
	resultsPath := filepath.Join(dir, "results.tsv")

	rootCmd.SetArgs([]string{"convert", "--in", mspPath, "--out", dbPath})
	require.NoError(t, rootCmd.Execute())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"summarize", dbPath})
	require.NoError(t, rootCmd.Execute())
	rootCmd.SetOut(nil)
	summary := out.String()
	assert.Contains(t, summary, "Entries: 2")
	assert.Contains(t, summary, "With retention time: 1")
	assert.Contains(t, summary, "  Acid: 1")
	assert.Contains(t, summary, "  Sugar: 1")
	// zero intensity fragments are dropped on conversion
	assert.Contains(t, summary, "Total peaks: 2")

	rootCmd.SetArgs([]string{"isotopes", "--peaks", peaksPath, "--out", isotopesPath})
	require.NoError(t, rootCmd.Execute())

	s, err := snapshot.Load(isotopesPath)
	require.NoError(t, err)
	assert.Equal(t, "isotopes", s.Stage)
	require.Len(t, s.Peaks, 2)
	assert.Equal(t, 0, s.Peaks[0].IsotopeWeightNumber)
	assert.Equal(t, 1, s.Peaks[1].IsotopeWeightNumber)
	assert.Equal(t, 0, s.Peaks[1].IsotopeParentPeakID)

	rootCmd.SetArgs([]string{"identify",
		"--peaks", isotopesPath, "--mzml", runPath, "--library", dbPath,
		"--out", resultsPath, "--score-cutoff", "0", "--threads", "2"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(resultsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Glucose")
}
