package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

func encode(t *testing.T, values []float64, bits64, compress bool) string {
	t.Helper()
	var raw []byte
	for _, v := range values {
		if bits64 {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
		} else {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(float32(v)))
		}
	}
	if compress {
		var buf bytes.Buffer
		z := zlib.NewWriter(&buf)
		_, err := z.Write(raw)
		require.NoError(t, err)
		require.NoError(t, z.Close())
		raw = buf.Bytes()
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func arrays(t *testing.T, mz, intensity []float64) string {
	return fmt.Sprintf(`<binaryDataArrayList count="2">
<binaryDataArray><cvParam accession="MS:1000523"/><cvParam accession="MS:1000574"/><cvParam accession="MS:1000514"/><binary>%s</binary></binaryDataArray>
<binaryDataArray><cvParam accession="MS:1000521"/><cvParam accession="MS:1000576"/><cvParam accession="MS:1000515"/><binary>%s</binary></binaryDataArray>
</binaryDataArrayList>`, encode(t, mz, true, true), encode(t, intensity, false, false))
}

func ms2(t *testing.T, index int, rt, precursor, energy float64, mz, intensity []float64) string {
	return fmt.Sprintf(`<spectrum index="%d" id="scan=%d" defaultArrayLength="%d">
<cvParam accession="MS:1000511" value="2"/><cvParam accession="MS:1000127"/>
<scanList count="1"><scan><cvParam accession="MS:1000016" value="%g" unitAccession="UO:0000031"/></scan></scanList>
<precursorList count="1"><precursor>
<selectedIonList count="1"><selectedIon><cvParam accession="MS:1000744" value="%g"/></selectedIon></selectedIonList>
<activation><cvParam accession="MS:1000045" value="%g"/></activation>
</precursor></precursorList>
%s
</spectrum>`, index, index+1, len(mz), rt, precursor, energy, arrays(t, mz, intensity))
}

func testRun(t *testing.T) string {
	return `<?xml version="1.0" encoding="ISO-8859-1"?>
<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1.0">
<run id="run1"><spectrumList count="5">
<spectrum index="0" id="scan=1" defaultArrayLength="3">
<cvParam accession="MS:1000511" value="1"/><cvParam accession="MS:1000127"/>
<scanList count="1"><scan><cvParam accession="MS:1000016" value="300" unitAccession="UO:0000010"/></scan></scanList>
` + arrays(t, []float64{181.0707, 182.0740, 100.5}, []float64{10000, 650, 20}) + `
</spectrum>
<spectrum index="1" id="scan=2" defaultArrayLength="1">
<cvParam accession="MS:1000511" value="1"/>
<scanList count="1"><scan><cvParam accession="MS:1000016" value="5.2" unitAccession="UO:0000031"/></scan></scanList>
` + arrays(t, []float64{250.25}, []float64{5}) + `
</spectrum>
` + ms2(t, 2, 5.05, 181.0707, 40, []float64{163.06, 85.03}, []float64{100, 50}) +
		ms2(t, 3, 5.08, 181.0710, 20, []float64{145.05}, []float64{80}) +
		ms2(t, 4, 5.30, 181.0707, 20, []float64{127.04}, []float64{60}) + `
</spectrumList></run></mzML>
</indexedmzML>`
}

func TestRead(t *testing.T) {
	f, err := Read(strings.NewReader(testRun(t)))
	require.NoError(t, err)
	assert.Equal(t, 5, f.NumSpecs())

	level, err := f.MSLevel(0)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	level, err = f.MSLevel(3)
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	centroid, err := f.Centroid(0)
	require.NoError(t, err)
	assert.True(t, centroid)
	centroid, err = f.Centroid(1)
	require.NoError(t, err)
	assert.False(t, centroid)

	rt, err := f.RetentionTime(0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, rt, 1e-9, "seconds are converted to minutes")
	rt, err = f.RetentionTime(1)
	require.NoError(t, err)
	assert.InDelta(t, 5.2, rt, 1e-9)

	peaks, err := f.ReadScan(0)
	require.NoError(t, err)
	want := []core.Peak{
		{MZ: 181.0707, Intensity: 10000},
		{MZ: 182.0740, Intensity: 650},
		{MZ: 100.5, Intensity: 20},
	}
	if diff := cmp.Diff(want, peaks); diff != "" {
		t.Errorf("ReadScan() mismatch (-want +got):\n%s", diff)
	}

	mz, energy, ok, err := f.Precursor(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 181.0707, mz, 1e-9)
	assert.InDelta(t, 40, energy, 1e-9)

	_, _, ok, err = f.Precursor(0)
	require.NoError(t, err)
	assert.False(t, ok)

	index, err := f.ScanIndex("scan=4")
	require.NoError(t, err)
	assert.Equal(t, 3, index)
}

func TestReadErrors(t *testing.T) {
	f, err := Read(strings.NewReader(testRun(t)))
	require.NoError(t, err)

	_, err = f.ReadScan(5)
	assert.ErrorIs(t, err, ErrInvalidScanIndex)
	_, err = f.MSLevel(-1)
	assert.ErrorIs(t, err, ErrInvalidScanIndex)
	_, err = f.ScanIndex("scan=99")
	assert.ErrorIs(t, err, ErrInvalidScanID)

	_, err = Read(strings.NewReader(`<?xml version="1.0"?><other/>`))
	assert.True(t, Error.Has(err))

	_, err = Read(strings.NewReader(`<mzML><run><spectrumList><spectrum index="1" id="a"/></spectrumList></run></mzML>`))
	assert.True(t, Error.Has(err), "out of order spectrum index")
}

func TestFillScanErrors(t *testing.T) {
	numpress := &binaryDataArray{CvPar: []CVParam{{Accession: "MS:1002312"}, {Accession: cvMzArray}}}
	assert.ErrorIs(t, fillScan(make([]core.Peak, 1), numpress), ErrUnsupportedCompression)

	short := &binaryDataArray{
		CvPar:  []CVParam{{Accession: cvMzArray}, {Accession: cvFloat64}},
		Binary: encode(t, []float64{1}, true, false),
	}
	assert.True(t, Error.Has(fillScan(make([]core.Peak, 2), short)))

	// arrays other than m/z and intensity are ignored
	other := &binaryDataArray{Binary: "not base64"}
	assert.NoError(t, fillScan(make([]core.Peak, 2), other))
}

func TestSource(t *testing.T) {
	f, err := Read(strings.NewReader(testRun(t)))
	require.NoError(t, err)
	src, err := NewSource(f, 0.01)
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 40}, src.Channels())

	peak := core.NewPeakFeature(1, 181.0707, 5.07, 10000)
	peak.RtLeft, peak.RtRight = 5.0, 5.2

	ms1, err := src.CentroidSpectrum(&peak)
	require.NoError(t, err)
	require.Len(t, ms1, 3)
	assert.True(t, core.Spectrum(ms1).IsSorted())
	assert.InDelta(t, 100.5, ms1[0].MZ, 1e-9)

	late := core.NewPeakFeature(2, 250.25, 5.15, 5)
	ms1, err = src.CentroidSpectrum(&late)
	require.NoError(t, err)
	require.Len(t, ms1, 1)

	// channel 0 is 20 eV, the scan at 5.30 is outside the peak
	spec, err := src.Ms2Spectrum(&peak, 0)
	require.NoError(t, err)
	require.Len(t, spec, 1)
	assert.InDelta(t, 145.05, spec[0].MZ, 1e-4)

	spec, err = src.Ms2Spectrum(&peak, 1)
	require.NoError(t, err)
	require.Len(t, spec, 2)
	assert.InDelta(t, 85.03, spec[0].MZ, 1e-4)

	spec, err = src.Ms2Spectrum(&peak, 2)
	require.NoError(t, err)
	assert.Nil(t, spec)

	other := core.NewPeakFeature(3, 300.0, 5.07, 1)
	other.RtLeft, other.RtRight = 5.0, 5.2
	spec, err = src.Ms2Spectrum(&other, 0)
	require.NoError(t, err)
	assert.Nil(t, spec)
}
