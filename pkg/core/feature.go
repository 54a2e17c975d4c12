package core

import (
	"fmt"
	"math"
	"strings"
)

// Omics targets recognised in library entries and parameters.
const (
	Metabolomics = "metabolomics"
	Lipidomics   = "lipidomics"
)

// IsotopeInfo holds the isotope assignment of a feature.
type IsotopeInfo struct {
	ChargeNumber        int // Inferred charge, >= 1
	IsotopeWeightNumber int // 0 = monoisotopic, -1 = unassigned, 1..N isotopologue rank
	IsotopeParentPeakID int // Id of the monoisotopic peak of the cluster
}

// Unassigned reports whether the isotope detector has not visited the feature yet.
func (i IsotopeInfo) Unassigned() bool {
	return i.IsotopeWeightNumber < 0
}

// Annotation is the committed identification of a peak.
type Annotation struct {
	MetaboliteName string
	LibraryID      int
	InChIKey       string

	AccurateMassSimilarity  float64
	RtSimilarity            float64
	IsotopeSimilarity       float64
	MassSpectraSimilarity   float64
	ReverseSearchSimilarity float64
	PresenceSimilarity      float64
	TotalScore              float64 // 0-100, -1 when unmatched

	IsRtMatch  bool
	IsMs1Match bool
	IsMs2Match bool
	IsCcsMatch bool

	IsLipidClassMatch    bool
	IsLipidChainsMatch   bool
	IsLipidPositionMatch bool

	Adduct AdductIon
}

// Unmatched returns the default annotation of a peak without identification.
func Unmatched() Annotation {
	return Annotation{
		LibraryID:               -1,
		AccurateMassSimilarity:  -1,
		RtSimilarity:            -1,
		IsotopeSimilarity:       -1,
		MassSpectraSimilarity:   -1,
		ReverseSearchSimilarity: -1,
		PresenceSimilarity:      -1,
		TotalScore:              -1,
	}
}

// IsMatched reports whether a library entry was committed.
func (a Annotation) IsMatched() bool {
	return a.LibraryID >= 0
}

// PeakFeature is one detected chromatographic peak in one sample.
type PeakFeature struct {
	PeakID    int
	Mz        float64
	RtTop     float64
	RtLeft    float64
	RtRight   float64
	ScanLeft  int
	ScanTop   int
	ScanRight int
	Intensity float64

	// Ion mobility
	DriftTime             float64
	CollisionCrossSection float64

	IsotopeInfo

	// Per collision-energy channel results
	LibraryIDs []int
	Scores     []float64

	Annotation
}

// NewPeakFeature returns a peak with unset isotope fields and no annotation.
func NewPeakFeature(id int, mz, rt, intensity float64) PeakFeature {
	return PeakFeature{
		PeakID:    id,
		Mz:        mz,
		RtTop:     rt,
		RtLeft:    rt,
		RtRight:   rt,
		Intensity: intensity,
		IsotopeInfo: IsotopeInfo{
			ChargeNumber:        1,
			IsotopeWeightNumber: -1,
			IsotopeParentPeakID: -1,
		},
		Annotation: Unmatched(),
	}
}

// ResetChannels sizes the per-channel result vectors and fills them with the
// unmatched defaults.
func (p *PeakFeature) ResetChannels(n int) {
	p.LibraryIDs = make([]int, n)
	p.Scores = make([]float64, n)
	for i := 0; i < n; i++ {
		p.LibraryIDs[i] = -1
		p.Scores[i] = -1
	}
}

// Validate checks the invariants of a peak feature.
func (p *PeakFeature) Validate() error {
	var errs []string

	if math.IsNaN(p.Mz) || p.Mz <= 0 {
		errs = append(errs, "m/z must be positive")
	}
	if p.RtLeft > p.RtTop || p.RtTop > p.RtRight {
		errs = append(errs, "retention times must satisfy left <= top <= right")
	}
	if p.Intensity < 0 {
		errs = append(errs, "intensity must be non-negative")
	}
	if p.IsotopeWeightNumber == 0 && p.IsotopeParentPeakID != p.PeakID {
		errs = append(errs, "monoisotopic peak must be its own isotope parent")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   fmt.Sprintf("PeakFeature %d", p.PeakID),
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// AlignedSpot is a feature aligned across samples.
type AlignedSpot struct {
	SpotID           int
	CentralMz        float64
	CentralRt        float64
	AverageIntensity float64

	IsotopeInfo
}

// NewAlignedSpot returns a spot with unset isotope fields.
func NewAlignedSpot(id int, mz, rt, intensity float64) AlignedSpot {
	return AlignedSpot{
		SpotID:           id,
		CentralMz:        mz,
		CentralRt:        rt,
		AverageIntensity: intensity,
		IsotopeInfo: IsotopeInfo{
			ChargeNumber:        1,
			IsotopeWeightNumber: -1,
			IsotopeParentPeakID: -1,
		},
	}
}

// ReferenceCompound is one reference library entry.
type ReferenceCompound struct {
	LibraryID             int
	Name                  string
	PrecursorMz           float64
	RetentionTime         float64 // -1 if unknown
	Formula               string
	InChIKey              string
	Spectrum              Spectrum
	IsotopeRatios         []float64 // Relative abundances of isotopologues 0..k
	AdductType            string
	Ontology              string
	CompoundClass         string
	CollisionCrossSection float64 // 0 if unknown
	TargetOmics           string
	IonMode               IonMode
	CollisionEnergy       *float64
	Comment               string
}

// HasRetentionTime reports whether the entry carries a usable retention time.
func (c *ReferenceCompound) HasRetentionTime() bool {
	return c.RetentionTime >= 0
}

// Validate checks that a library entry meets all requirements for identification.
func (c *ReferenceCompound) Validate() error {
	var errs []string

	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if math.IsNaN(c.PrecursorMz) || c.PrecursorMz <= 0 {
		errs = append(errs, "precursor m/z must be positive")
	}
	if err := c.Spectrum.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	for i, r := range c.IsotopeRatios {
		if r < 0 || math.IsNaN(r) {
			errs = append(errs, fmt.Sprintf("isotope ratio %d must be non-negative", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   c.Name,
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}
