// Package isotope groups isotopologue peaks into clusters and infers their
// charge state.
package isotope

import (
	"math"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/PeakID/pkg/config"
	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/tolerance"
)

const (
	// MaxTrace is the highest isotopologue rank searched for.
	MaxTrace = 15
	// EnvelopeWidth bounds the m/z range above a base peak that can hold isotopologues.
	EnvelopeWidth = 8.1
	// CollectRtMargin is the retention time window for collecting candidates.
	CollectRtMargin = 0.25
	// TraceRtMargin is the retention time window for matching a trace to a candidate.
	TraceRtMargin = 0.06
	// LightMassLimit separates the decreasing-envelope rule from the
	// simulated-profile rule.
	LightMassLimit = 800.0
	// MaxRatioDeviation is the tolerated |observed - simulated| intensity ratio
	// for heavy compounds.
	MaxRatioDeviation = 5.0
)

// member is one peak seen by the grouping algorithm, independent of the
// collection it came from.
type member struct {
	id        int
	mz        float64
	rt        float64
	intensity float64
	info      *core.IsotopeInfo
}

// isotopeTemp is the working record of one trace of a base peak.
type isotopeTemp struct {
	WeightNumber int
	Mz           float64
	MzClBr       float64
	Intensity    float64
	Member       int // index into the member slice, -1 if unmatched
	MzDiff       float64
}

// Detector assigns charge and isotope fields to peaks.
type Detector struct {
	log          *zap.Logger
	table        core.IsotopeTable
	ms1Tolerance float64
	maxCharge    int
	halogen      bool
	ionMobility  bool
	mobility     config.Mobility
}

// NewDetector creates a detector. A nil logger disables logging and a nil
// table falls back to the default IUPAC table.
func NewDetector(log *zap.Logger, table core.IsotopeTable, params config.Parameters) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	if table == nil {
		table = core.DefaultIUPAC()
	}
	maxCharge := params.MaxChargeNumber
	if maxCharge < 1 {
		maxCharge = 1
	}
	return &Detector{
		log:          log,
		table:        table,
		ms1Tolerance: params.CentroidMs1Tolerance,
		maxCharge:    maxCharge,
		halogen:      params.IsBrClConsideredForIsotopes,
		ionMobility:  params.IsIonMobility,
		mobility:     params.Mobility,
	}
}

// accuracy is the mass tolerance for isotope spacing at mz.
func (d *Detector) accuracy(mz float64) float64 {
	return tolerance.MassAccuracy(mz, d.ms1Tolerance)
}

// Detect assigns isotope fields to the peaks of one sample in place. Peaks
// that already carry an isotope weight are left untouched, so calling Detect
// twice is a no-op the second time. The caller's order is kept.
func (d *Detector) Detect(peaks []core.PeakFeature) {
	if len(peaks) == 0 {
		return
	}
	members := make([]member, len(peaks))
	for i := range peaks {
		p := &peaks[i]
		members[i] = member{id: p.PeakID, mz: p.Mz, rt: p.RtTop, intensity: p.Intensity, info: &p.IsotopeInfo}
	}
	d.group(members, true, d.accuracy)

	if d.ionMobility {
		for i := range peaks {
			p := &peaks[i]
			if p.DriftTime > 0 {
				p.CollisionCrossSection = CCS(d.mobility, p.DriftTime, p.Mz, p.ChargeNumber)
			}
		}
	}
}

// DetectAligned assigns isotope fields to aligned spots. Spots are already
// retention-time aligned, so no retention time margin applies.
func (d *Detector) DetectAligned(spots []core.AlignedSpot) {
	if len(spots) == 0 {
		return
	}
	members := make([]member, len(spots))
	for i := range spots {
		s := &spots[i]
		members[i] = member{id: s.SpotID, mz: s.CentralMz, rt: s.CentralRt, intensity: s.AverageIntensity, info: &s.IsotopeInfo}
	}
	d.group(members, false, d.accuracy)
}

// group runs the cluster resolution over members in ascending m/z order.
func (d *Detector) group(members []member, useRt bool, accuracyForMz func(float64) float64) {
	order := tolerance.Order(len(members), func(i int) float64 { return members[i].mz })
	sorted := make([]member, len(members))
	for i, idx := range order {
		sorted[i] = members[idx]
	}

	for i := range sorted {
		base := &sorted[i]
		if !base.info.Unassigned() {
			continue
		}
		accuracy := accuracyForMz(base.mz)
		candidates := collect(sorted, i, useRt)
		charge := d.inferCharge(sorted, base, candidates, accuracy)
		temps := d.traces(sorted, base, candidates, charge, accuracy, useRt)
		accepted := d.accept(base, charge, temps)

		base.info.IsotopeWeightNumber = 0
		base.info.IsotopeParentPeakID = base.id
		base.info.ChargeNumber = charge
		for _, t := range temps[1 : accepted+1] {
			iso := sorted[t.Member].info
			iso.IsotopeWeightNumber = t.WeightNumber
			iso.IsotopeParentPeakID = base.id
			iso.ChargeNumber = charge
		}
	}
}

// collect returns the indices of unassigned members above the base peak that
// can hold one of its isotopologues.
func collect(sorted []member, base int, useRt bool) []int {
	p := sorted[base]
	var candidates []int
	for j := base + 1; j < len(sorted) && sorted[j].mz <= p.mz+EnvelopeWidth; j++ {
		q := sorted[j]
		if q.mz <= p.mz || !q.info.Unassigned() {
			continue
		}
		if useRt && math.Abs(q.rt-p.rt) > CollectRtMargin {
			continue
		}
		candidates = append(candidates, j)
	}
	return candidates
}

// inferCharge picks the charge explaining the spacing between the base peak
// and its nearest candidate. The largest fitting charge wins unless one of
// the two charges below it fits with a strictly smaller residual. Candidates
// that only fit a single charge pass the search on to the next candidate.
func (d *Detector) inferCharge(sorted []member, base *member, candidates []int, accuracy float64) int {
	for _, c := range candidates {
		diff := sorted[c].mz - base.mz

		best := 0
		for z := d.maxCharge; z >= 1; z-- {
			if math.Abs(diff-core.C13C12Diff/float64(z)) < accuracy {
				best = z
				break
			}
		}
		if best == 0 {
			continue
		}

		chosen := best
		residual := math.Abs(diff - core.C13C12Diff/float64(best))
		for z := best - 1; z >= 1 && z >= best-2; z-- {
			r := math.Abs(diff - core.C13C12Diff/float64(z))
			if r < accuracy && r < residual {
				chosen, residual = z, r
			}
		}
		if chosen > 1 {
			return chosen
		}
	}
	return 1
}

// traces matches each predicted isotopologue to the closest candidate.
// temps[0] describes the base peak.
func (d *Detector) traces(sorted []member, base *member, candidates []int, charge int, accuracy float64, useRt bool) []isotopeTemp {
	temps := make([]isotopeTemp, MaxTrace+1)
	z := float64(charge)
	for i := range temps {
		temps[i] = isotopeTemp{
			WeightNumber: i,
			Mz:           base.mz + float64(i)*core.C13C12Diff/z,
			MzClBr:       base.mz + float64(i)*core.Br81Br79Diff/(2*z),
			Member:       -1,
			MzDiff:       math.MaxFloat64,
		}
	}
	temps[0].Intensity = base.intensity
	temps[0].MzDiff = 0

	used := make(map[int]bool)
	for i := 1; i <= MaxTrace; i++ {
		t := &temps[i]
		for _, c := range candidates {
			if used[c] {
				continue
			}
			q := sorted[c]
			if !q.info.Unassigned() {
				continue
			}
			if useRt && math.Abs(q.rt-base.rt) > TraceRtMargin {
				continue
			}
			diff := math.Abs(q.mz - t.Mz)
			if d.halogen && i%2 == 0 {
				diff = math.Min(diff, math.Abs(q.mz-t.MzClBr))
			}
			if diff < accuracy && diff < t.MzDiff {
				t.Member = c
				t.MzDiff = diff
				t.Intensity = q.intensity
			}
		}
		if t.Member < 0 {
			break
		}
		used[t.Member] = true
	}
	return temps
}

// accept returns the number of consecutive traces starting at 1 that pass
// the acceptance rule of the base peak's mass regime.
func (d *Detector) accept(base *member, charge int, temps []isotopeTemp) int {
	monoMass := base.mz * float64(charge)

	if monoMass <= LightMassLimit {
		n := 0
		for i := 1; i <= MaxTrace; i++ {
			if temps[i].Member < 0 {
				break
			}
			if !d.halogen && temps[i].Intensity >= temps[i-1].Intensity {
				break
			}
			n = i
		}
		return n
	}

	formula := core.AlkaneFormula(monoMass)
	sim, err := d.table.NominalIsotopeProfile(formula, MaxTrace+1)
	if err != nil {
		d.log.Debug("isotope simulation failed",
			zap.Int("peak", base.id),
			zap.String("formula", formula),
			zap.Error(err))
		return 0
	}

	n := 0
	for i := 1; i <= MaxTrace && i < len(sim); i++ {
		if temps[i].Member < 0 {
			break
		}
		if temps[i-1].Intensity <= 0 || sim[i-1] <= 0 {
			break
		}
		observed := temps[i].Intensity / temps[i-1].Intensity
		expected := sim[i] / sim[i-1]
		if math.Abs(observed-expected) >= MaxRatioDeviation {
			break
		}
		n = i
	}
	return n
}
