// Package identify scores peaks against a reference library and commits the
// best identification per peak.
package identify

import (
	"math"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/PeakID/pkg/config"
	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/filter"
	"github.com/ChrisMcGann/PeakID/pkg/isotope"
	"github.com/ChrisMcGann/PeakID/pkg/library"
	"github.com/ChrisMcGann/PeakID/pkg/similarity"
	"github.com/ChrisMcGann/PeakID/pkg/tolerance"
)

const (
	// NoMs2Prefix marks names accepted from MS1 evidence although an MS/MS
	// spectrum was available.
	NoMs2Prefix = "w/o MS2: "
	// NarrowWindowMargin bounds the narrow MS/MS window above the precursor.
	NarrowWindowMargin = 0.5
	// observedIsotopes is the number of isotopologues read from the MS1 spectrum.
	observedIsotopes = 3
)

// Engine identifies peaks. It holds no per-peak state and is safe for
// concurrent use.
type Engine struct {
	log      *zap.Logger
	params   config.Parameters
	filter   filter.Config
	detector *isotope.Detector
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(log *zap.Logger, params config.Parameters) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:    log,
		params: params,
		filter: filter.Config{
			MassRangeBegin:       params.Ms2MassRangeBegin,
			MassRangeEnd:         params.Ms2MassRangeEnd,
			IntensityCutoff:      params.RelativeAbundanceCutOff,
			DropIsotopeFragments: true,
		},
		detector: isotope.NewDetector(log, nil, params),
	}
}

// candidate is the scored comparison of a peak with one library entry.
// Scores are on the 0-1 scale.
type candidate struct {
	ref *core.ReferenceCompound

	mass      float64
	rt        float64
	iso       float64
	dot       float64
	rev       float64
	presence  float64
	simpleDot float64
	score     float64

	rtMatch bool
}

// Identify evaluates one peak for one collision-energy channel. The channel
// result is written to the peak's per-channel vectors and merged into the
// committed annotation. ms2 may be empty. A peak without any channel result
// starts from an unmatched annotation.
func (e *Engine) Identify(peak *core.PeakFeature, ms1, ms2 []core.Peak, lib *library.Library, channel int) {
	if len(peak.LibraryIDs) == 0 && len(peak.Scores) == 0 {
		peak.Annotation = core.Unmatched()
	}
	ensureChannel(peak, channel)

	result := core.Unmatched()
	if lib.Len() > 0 {
		result = e.evaluate(peak, ms1, ms2, lib)
	}

	peak.LibraryIDs[channel] = result.LibraryID
	peak.Scores[channel] = result.TotalScore
	peak.Annotation = Merge(peak.Annotation, result)
}

// ensureChannel grows the per-channel vectors to hold channel.
func ensureChannel(peak *core.PeakFeature, channel int) {
	for len(peak.LibraryIDs) <= channel {
		peak.LibraryIDs = append(peak.LibraryIDs, -1)
	}
	for len(peak.Scores) <= channel {
		peak.Scores = append(peak.Scores, -1)
	}
}

func (e *Engine) evaluate(peak *core.PeakFeature, ms1, ms2 []core.Peak, lib *library.Library) core.Annotation {
	observed := e.observedIsotopes(peak, ms1)

	if len(ms2) == 0 {
		ms1Best, hasMs1 := e.bestMs1(peak, observed, lib, false)
		if hasMs1 && passes(ms1Best.score, e.params.IdentificationScoreCutOff) {
			return e.annotate(peak, ms1Best, "")
		}
		return core.Unmatched()
	}

	ms1Best, hasMs1 := e.bestMs1(peak, observed, lib, true)
	query := e.prepareQuery(ms2)
	ms2Best, hasMs2 := e.bestMs2(peak, observed, query, lib)

	d := Decision{
		HasMs2Candidate: hasMs2,
		HasMs1Candidate: hasMs1,
		Ms1Score:        ms1Best.score,
		CutOff:          e.params.IdentificationScoreCutOff,
	}
	if hasMs2 {
		d.Ms2Score = ms2Best.score
		d.Dot = ms2Best.dot
		d.Reverse = ms2Best.rev
	}

	switch Decide(d) {
	case TierMs2:
		a := e.annotate(peak, ms2Best, "")
		a.IsMs2Match = true
		if e.omics(ms2Best.ref) == core.Lipidomics {
			name, m := RefineLipid(a.MetaboliteName, ms2Best.ref, query, e.params.Ms2LibrarySearchTolerance)
			a.MetaboliteName = name
			a.IsLipidClassMatch = m.Class
			a.IsLipidChainsMatch = m.Chains
			a.IsLipidPositionMatch = m.Position
		}
		return a
	case TierLooseMs2:
		a := e.annotate(peak, ms2Best, "")
		a.IsMs2Match = true
		return a
	case TierMs1Only:
		// The MS1 score only gates acceptance. The committed score is the
		// composite so that channels stay comparable in Merge.
		a := e.annotate(peak, ms1Best, NoMs2Prefix)
		a.TotalScore = 100 * e.scoreMs2(peak, observed, query, ms1Best.ref).score
		return a
	default:
		return core.Unmatched()
	}
}

// observedIsotopes reads the isotope envelope of the peak from its MS1
// spectrum, or returns nil when the monoisotopic peak is missing.
func (e *Engine) observedIsotopes(peak *core.PeakFeature, ms1 []core.Peak) []float64 {
	if len(ms1) == 0 {
		return nil
	}
	spectrum := core.Spectrum(ms1)
	if !spectrum.IsSorted() {
		spectrum = spectrum.Clone()
		spectrum.Sort()
	}

	charge := peak.ChargeNumber
	if charge < 1 {
		charge = 1
	}
	tol := e.params.CentroidMs1Tolerance
	envelope := make([]float64, observedIsotopes)
	for i := range envelope {
		mz := peak.Mz + float64(i)*core.C13C12Diff/float64(charge)
		if p, ok := tolerance.MaxPeakInWindow(spectrum, mz, tol); ok {
			envelope[i] = p.Intensity
		}
	}
	if envelope[0] <= 0 {
		return nil
	}
	return envelope
}

// prepareQuery sorts a copy of the MS/MS spectrum, flags fragment isotopes
// and applies the preprocessing filters.
func (e *Engine) prepareQuery(ms2 []core.Peak) []core.Peak {
	query := core.Spectrum(ms2).Clone()
	query.Sort()
	e.detector.FlagFragmentIsotopes(query, e.params.CentroidMs2Tolerance)
	e.filter.Apply(&query)
	return query
}

// scoreMs1 computes the accurate mass, retention time and isotope
// similarities of one entry.
func (e *Engine) scoreMs1(peak *core.PeakFeature, ref *core.ReferenceCompound, observed []float64) candidate {
	c := candidate{
		ref:       ref,
		mass:      similarity.Gaussian(peak.Mz, ref.PrecursorMz, e.params.Ms1LibrarySearchTolerance),
		rt:        similarity.NotComputed,
		iso:       similarity.NotComputed,
		dot:       similarity.NotComputed,
		rev:       similarity.NotComputed,
		presence:  similarity.NotComputed,
		simpleDot: similarity.NotComputed,
	}

	rtTol := e.params.RetentionTimeLibrarySearchTolerance
	if ref.HasRetentionTime() {
		c.rtMatch = math.Abs(peak.RtTop-ref.RetentionTime) <= rtTol
		if e.params.IsUseRetentionInfoForIdentificationScoring {
			c.rt = similarity.Gaussian(peak.RtTop, ref.RetentionTime, rtTol)
		}
	}
	if len(ref.IsotopeRatios) > 0 {
		c.iso = similarity.IsotopeRatio(observed, ref.IsotopeRatios)
	}
	c.score = similarity.Ms1TotalScore(c.mass, c.rt, c.iso)
	return c
}

// bestMs1 returns the best MS1-only candidate within the precursor window.
// With rtFilter set, entries rejected by retention time filtering are skipped.
func (e *Engine) bestMs1(peak *core.PeakFeature, observed []float64, lib *library.Library, rtFilter bool) (candidate, bool) {
	var best candidate
	found := false
	window := lib.Window(peak.Mz, e.params.Ms1LibrarySearchTolerance)
	for i := range window {
		if rtFilter && e.rtFiltered(peak, &window[i]) {
			continue
		}
		c := e.scoreMs1(peak, &window[i], observed)
		if !found || c.score > best.score {
			best, found = c, true
		}
	}
	return best, found
}

// rtFiltered reports whether retention time filtering rejects an entry.
func (e *Engine) rtFiltered(peak *core.PeakFeature, ref *core.ReferenceCompound) bool {
	if !e.params.IsUseRetentionInfoForIdentificationFiltering || !ref.HasRetentionTime() {
		return false
	}
	return math.Abs(peak.RtTop-ref.RetentionTime) > e.params.RetentionTimeLibrarySearchTolerance
}

// spectralMetrics holds the MS/MS scores of one mass window.
type spectralMetrics struct {
	dot, rev, presence, simpleDot float64
}

func (m spectralMetrics) sum() float64 {
	return m.dot + m.rev + m.presence
}

func (e *Engine) spectral(peak *core.PeakFeature, query []core.Peak, ref *core.ReferenceCompound, begin, end float64) spectralMetrics {
	tol := e.params.Ms2LibrarySearchTolerance
	m := spectralMetrics{
		dot:       similarity.DotProduct(query, ref.Spectrum, tol, begin, end),
		rev:       similarity.ReverseDotProduct(query, ref.Spectrum, tol, begin, end),
		simpleDot: similarity.SimpleDotProduct(query, ref.Spectrum, tol, begin, end),
	}
	presence, err := similarity.Presence(query, ref.Spectrum, ref.PrecursorMz, tol, begin, end)
	if err != nil {
		e.log.Debug("presence scoring failed",
			zap.Int("peak", peak.PeakID),
			zap.String("reference", ref.Name),
			zap.Error(err))
		presence = similarity.NotComputed
	}
	m.presence = presence
	return m
}

// scoreMs2 computes the composite candidate of one entry. The entry is scored
// over the full MS/MS range and over the narrow range below the precursor;
// the window with the larger dot+reverse+presence wins.
func (e *Engine) scoreMs2(peak *core.PeakFeature, observed []float64, query []core.Peak, ref *core.ReferenceCompound) candidate {
	begin, end := e.params.Ms2MassRangeBegin, e.params.Ms2MassRangeEnd
	narrowEnd := math.Min(end, peak.Mz+NarrowWindowMargin)

	c := e.scoreMs1(peak, ref, observed)
	full := e.spectral(peak, query, ref, begin, end)
	narrow := e.spectral(peak, query, ref, begin, narrowEnd)
	chosen := full
	if narrow.sum() > full.sum() {
		chosen = narrow
	}
	c.dot, c.rev, c.presence = chosen.dot, chosen.rev, chosen.presence
	c.simpleDot = math.Max(full.simpleDot, narrow.simpleDot)

	if e.params.IsUseSimpleDotScore || e.params.IsSimpleDotClass(ref.CompoundClass) {
		c.score = similarity.SimpleDotTotalScore(c.mass, c.rt, c.iso, c.simpleDot)
	} else {
		sparse := len(ref.Spectrum) <= 1
		c.score = similarity.Ms2TotalScore(c.mass, c.rt, c.iso, c.dot, c.rev, c.presence, sparse, e.omics(ref))
	}
	return c
}

// bestMs2 returns the best composite candidate within the precursor window
// that survives retention time filtering.
func (e *Engine) bestMs2(peak *core.PeakFeature, observed []float64, query []core.Peak, lib *library.Library) (candidate, bool) {
	var best candidate
	found := false
	window := lib.Window(peak.Mz, e.params.Ms1LibrarySearchTolerance)
	for i := range window {
		ref := &window[i]
		if e.rtFiltered(peak, ref) {
			continue
		}
		c := e.scoreMs2(peak, observed, query, ref)
		if !found || c.score > best.score {
			best, found = c, true
		}
	}
	return best, found
}

func (e *Engine) omics(ref *core.ReferenceCompound) string {
	if ref.TargetOmics != "" {
		return ref.TargetOmics
	}
	return e.params.TargetOmics
}

// ccsMatch reports whether the CCS of peak and entry agree within the
// percent tolerance. Both must carry a CCS.
func (e *Engine) ccsMatch(peak *core.PeakFeature, ref *core.ReferenceCompound) bool {
	if peak.CollisionCrossSection <= 0 || ref.CollisionCrossSection <= 0 {
		return false
	}
	diff := math.Abs(peak.CollisionCrossSection-ref.CollisionCrossSection) / ref.CollisionCrossSection * 100
	return diff <= e.params.CcsSearchTolerance
}

// annotate builds the committed annotation of an accepted candidate.
func (e *Engine) annotate(peak *core.PeakFeature, c candidate, prefix string) core.Annotation {
	a := core.Annotation{
		MetaboliteName:          prefix + c.ref.Name,
		LibraryID:               c.ref.LibraryID,
		InChIKey:                c.ref.InChIKey,
		AccurateMassSimilarity:  c.mass,
		RtSimilarity:            c.rt,
		IsotopeSimilarity:       c.iso,
		MassSpectraSimilarity:   c.dot,
		ReverseSearchSimilarity: c.rev,
		PresenceSimilarity:      c.presence,
		TotalScore:              100 * c.score,
		IsRtMatch:               c.rtMatch,
		IsMs1Match:              true,
		IsCcsMatch:              e.ccsMatch(peak, c.ref),
	}
	if adduct, err := core.ParseAdduct(c.ref.AdductType); err == nil && adduct.FormatCheck {
		a.Adduct = adduct
	}
	return a
}
