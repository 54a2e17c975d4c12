// Package mzml reads centroided mzML runs and serves them as spectra for
// isotope detection and identification.
package mzml

import (
	"encoding/xml"

	"github.com/zeebo/errs"
)

// Error is the error class of this package
var Error = errs.Class("mzml")

var (
	// ErrInvalidScanIndex means an invalid scan index is supplied
	ErrInvalidScanIndex = Error.New("invalid scan index")
	// ErrInvalidScanID means an invalid scan id is supplied
	ErrInvalidScanID = Error.New("invalid scan id")
	// ErrUnsupportedCompression means the binary arrays use a compression we cannot decode
	ErrUnsupportedCompression = Error.New("unsupported binary compression")
)

// Only the parts of the run needed to serve spectra are decoded
type mzMLContent struct {
	XMLName xml.Name `xml:"mzML"`
	Run     run      `xml:"run"`
}

type run struct {
	ID           string       `xml:"id,attr,omitempty"`
	SpectrumList spectrumList `xml:"spectrumList"`
}

type spectrumList struct {
	Count    int        `xml:"count,attr,omitempty"`
	Spectrum []spectrum `xml:"spectrum"`
}

type spectrum struct {
	Index               int                 `xml:"index,attr"`
	ID                  string              `xml:"id,attr"`
	DefaultArrayLength  int64               `xml:"defaultArrayLength,attr"`
	CvPar               []CVParam           `xml:"cvParam"`
	ScanList            scanList            `xml:"scanList"`
	PrecursorList       []precursorList     `xml:"precursorList"`
	BinaryDataArrayList binaryDataArrayList `xml:"binaryDataArrayList"`
}

type scanList struct {
	Scan []scan `xml:"scan"`
}

type scan struct {
	CvPar []CVParam `xml:"cvParam"`
}

type precursorList struct {
	Precursor []precursor `xml:"precursor"`
}

type precursor struct {
	SelectedIonList selectedIonList `xml:"selectedIonList"`
	Activation      activation      `xml:"activation"`
}

type selectedIonList struct {
	SelectedIon []selectedIon `xml:"selectedIon"`
}

type selectedIon struct {
	CvPar []CVParam `xml:"cvParam"`
}

type activation struct {
	CvPar []CVParam `xml:"cvParam"`
}

type binaryDataArrayList struct {
	BinaryDataArray []binaryDataArray `xml:"binaryDataArray"`
}

type binaryDataArray struct {
	EncodedLength int       `xml:"encodedLength,attr,omitempty"`
	CvPar         []CVParam `xml:"cvParam"`
	Binary        string    `xml:"binary"`
}

// CVParam contains values and attributes of a mzML Controlled Vocabulary term
type CVParam struct {
	Accession     string `xml:"accession,attr,omitempty"`
	Name          string `xml:"name,attr,omitempty"`
	Value         string `xml:"value,attr,omitempty"`
	UnitAccession string `xml:"unitAccession,attr,omitempty"`
}

// CV accessions used by the reader
const (
	cvMsLevel         = "MS:1000511"
	cvCentroid        = "MS:1000127"
	cvScanStartTime   = "MS:1000016"
	cvSelectedIonMz   = "MS:1000744"
	cvCollisionEnergy = "MS:1000045"
	cvZlib            = "MS:1000574"
	cvMzArray         = "MS:1000514"
	cvIntensityArray  = "MS:1000515"
	cvFloat64         = "MS:1000523"
	unitMinute        = "UO:0000031"
	unitSecond        = "UO:0000010"
)

// numpress variants, with and without zlib
var numpressAccessions = map[string]bool{
	"MS:1002312": true,
	"MS:1002313": true,
	"MS:1002314": true,
	"MS:1002746": true,
	"MS:1002747": true,
	"MS:1002748": true,
}
