package mzml

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"io"
	"math"
	"strconv"

	"golang.org/x/net/html/charset"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// File is a decoded mzML run
type File struct {
	content  mzMLContent
	id2Index map[string]int
}

// Read reads an mzML run, skipping over any indexedmzML wrapper
func Read(reader io.Reader) (*File, error) {
	f := &File{}

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	found := false
	for {
		t, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if start, ok := t.(xml.StartElement); ok && start.Name.Local == "mzML" {
			if err := d.DecodeElement(&f.content, &start); err != nil {
				return nil, Error.Wrap(err)
			}
			found = true
			break
		}
	}
	if !found {
		return nil, Error.New("no mzML element found")
	}

	if err := f.index(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) index() error {
	specs := f.content.Run.SpectrumList.Spectrum
	f.id2Index = make(map[string]int, len(specs))
	for i := range specs {
		if specs[i].Index != i {
			return Error.New("spectrum %q has index %d, expected %d", specs[i].ID, specs[i].Index, i)
		}
		f.id2Index[specs[i].ID] = i
	}
	return nil
}

// NumSpecs returns the number of spectra
func (f *File) NumSpecs() int {
	return len(f.content.Run.SpectrumList.Spectrum)
}

func (f *File) spectrum(scanIndex int) (*spectrum, error) {
	if scanIndex < 0 || scanIndex >= f.NumSpecs() {
		return nil, ErrInvalidScanIndex
	}
	return &f.content.Run.SpectrumList.Spectrum[scanIndex], nil
}

// ScanIndex converts a scan identifier into an index
func (f *File) ScanIndex(scanID string) (int, error) {
	if index, ok := f.id2Index[scanID]; ok {
		return index, nil
	}
	return 0, ErrInvalidScanID
}

// MSLevel returns the MS level of a scan, 1 when not annotated
func (f *File) MSLevel(scanIndex int) (int, error) {
	s, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, err
	}
	for _, cv := range s.CvPar {
		if cv.Accession == cvMsLevel {
			level, err := strconv.Atoi(cv.Value)
			return level, Error.Wrap(err)
		}
	}
	return 1, nil
}

// Centroid reports whether the spectrum contains centroid peaks
func (f *File) Centroid(scanIndex int) (bool, error) {
	s, err := f.spectrum(scanIndex)
	if err != nil {
		return false, err
	}
	for _, cv := range s.CvPar {
		if cv.Accession == cvCentroid {
			return true, nil
		}
	}
	return false, nil
}

// RetentionTime returns the scan start time in minutes, or -1 if absent
func (f *File) RetentionTime(scanIndex int) (float64, error) {
	s, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, err
	}
	for _, sc := range s.ScanList.Scan {
		for _, cv := range sc.CvPar {
			if cv.Accession != cvScanStartTime {
				continue
			}
			rt, err := strconv.ParseFloat(cv.Value, 64)
			if err != nil {
				return 0, Error.Wrap(err)
			}
			if cv.UnitAccession == unitSecond {
				rt /= 60
			}
			return rt, nil
		}
	}
	return -1, nil
}

// Precursor returns the selected ion m/z and collision energy of an MS/MS
// scan. ok is false for scans without a precursor.
func (f *File) Precursor(scanIndex int) (mz float64, energy float64, ok bool, err error) {
	s, err := f.spectrum(scanIndex)
	if err != nil {
		return 0, 0, false, err
	}
	if len(s.PrecursorList) == 0 || len(s.PrecursorList[0].Precursor) == 0 {
		return 0, 0, false, nil
	}
	p := s.PrecursorList[0].Precursor[0]
	for _, ion := range p.SelectedIonList.SelectedIon {
		for _, cv := range ion.CvPar {
			if cv.Accession == cvSelectedIonMz {
				if mz, err = strconv.ParseFloat(cv.Value, 64); err != nil {
					return 0, 0, false, Error.Wrap(err)
				}
				ok = true
			}
		}
	}
	for _, cv := range p.Activation.CvPar {
		if cv.Accession == cvCollisionEnergy {
			if energy, err = strconv.ParseFloat(cv.Value, 64); err != nil {
				return 0, 0, false, Error.Wrap(err)
			}
		}
	}
	return mz, energy, ok, nil
}

// ReadScan decodes the peaks of a single scan, indexed by position in the file
func (f *File) ReadScan(scanIndex int) ([]core.Peak, error) {
	s, err := f.spectrum(scanIndex)
	if err != nil {
		return nil, err
	}
	p := make([]core.Peak, s.DefaultArrayLength)
	for i := range s.BinaryDataArrayList.BinaryDataArray {
		if err := fillScan(p, &s.BinaryDataArrayList.BinaryDataArray[i]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type arrayFormat struct {
	zlib      bool
	bits64    bool
	mz        bool
	intensity bool
}

// binaryDataPars decodes the CV terms of a binaryDataArray
func binaryDataPars(b *binaryDataArray) (arrayFormat, error) {
	var format arrayFormat
	for _, cv := range b.CvPar {
		switch {
		case cv.Accession == cvZlib:
			format.zlib = true
		case cv.Accession == cvMzArray:
			format.mz = true
		case cv.Accession == cvIntensityArray:
			format.intensity = true
		case cv.Accession == cvFloat64:
			format.bits64 = true
		case numpressAccessions[cv.Accession]:
			return format, ErrUnsupportedCompression
		}
	}
	return format, nil
}

func fillScan(p []core.Peak, b *binaryDataArray) error {
	format, err := binaryDataPars(b)
	if err != nil {
		return err
	}
	if !format.mz && !format.intensity {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(b.Binary)
	if err != nil {
		return Error.Wrap(err)
	}
	if format.zlib {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return Error.Wrap(err)
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return Error.Wrap(err)
		}
	}

	size := 4
	if format.bits64 {
		size = 8
	}
	if len(data)/size != len(p) {
		return Error.New("binary array holds %d values, expected %d", len(data)/size, len(p))
	}
	for i := range p {
		var v float64
		if format.bits64 {
			v = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		} else {
			v = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
		if format.mz {
			p[i].MZ = v
		} else {
			p[i].Intensity = v
		}
	}
	return nil
}
