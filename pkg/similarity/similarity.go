// Package similarity scores observed values against reference values.
//
// Every score is bounded in [0, 1]. NotComputed (-1) marks a score that
// could not be evaluated, e.g. because the reference carries no data.
package similarity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// NotComputed is the sentinel for a score that was not evaluated.
const NotComputed = -1.0

// Gaussian returns exp(-0.5*((actual-reference)/tol)^2). The tolerance acts
// as one standard deviation.
func Gaussian(actual, reference, tol float64) float64 {
	if tol <= 0 {
		if actual == reference {
			return 1
		}
		return 0
	}
	d := (actual - reference) / tol
	return math.Exp(-0.5 * d * d)
}

// IsotopeRatio compares two isotope envelopes after normalising both to
// isotopologue 0. It returns max(0, 1 - sum|obs_i - ref_i|) over the shared
// isotopologues 1..k, or NotComputed when either side is empty.
func IsotopeRatio(observed, reference []float64) float64 {
	if len(observed) == 0 || len(reference) == 0 {
		return NotComputed
	}
	if observed[0] <= 0 || reference[0] <= 0 {
		return NotComputed
	}

	n := len(observed)
	if len(reference) < n {
		n = len(reference)
	}
	if n < 2 {
		return 1
	}

	obs := make([]float64, n-1)
	ref := make([]float64, n-1)
	copy(obs, observed[1:n])
	copy(ref, reference[1:n])
	floats.Scale(1/observed[0], obs)
	floats.Scale(1/reference[0], ref)

	return math.Max(0, 1-floats.Distance(obs, ref, 1))
}

// bin is one aligned m/z position of a query/reference spectrum pair.
type bin struct {
	mz        float64
	query     float64
	reference float64
}

// align merges two spectra into tolerance-wide bins covering [begin, end].
// A bin opens at the lowest unassigned m/z and collects every peak within
// tol above it.
func align(query, reference []core.Peak, tol, begin, end float64) []bin {
	type tagged struct {
		mz, intensity float64
		ref           bool
	}
	var all []tagged
	for _, p := range query {
		if p.MZ >= begin && p.MZ <= end {
			all = append(all, tagged{p.MZ, p.Intensity, false})
		}
	}
	for _, p := range reference {
		if p.MZ >= begin && p.MZ <= end {
			all = append(all, tagged{p.MZ, p.Intensity, true})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].mz < all[j].mz })

	var bins []bin
	for i := 0; i < len(all); {
		b := bin{mz: all[i].mz}
		j := i
		for ; j < len(all) && all[j].mz-b.mz <= tol; j++ {
			if all[j].ref {
				b.reference += all[j].intensity
			} else {
				b.query += all[j].intensity
			}
		}
		bins = append(bins, b)
		i = j
	}
	return bins
}

// vectors splits bins into query and reference intensity vectors. With
// refOnly set, bins without reference signal are dropped.
func vectors(bins []bin, refOnly bool, scale func(float64) float64) (q, r []float64) {
	for _, b := range bins {
		if refOnly && b.reference <= 0 {
			continue
		}
		q = append(q, scale(b.query))
		r = append(r, scale(b.reference))
	}
	return q, r
}

// squaredCosine returns (q.r)^2 / (|q|^2 |r|^2), or 0 for an empty vector.
func squaredCosine(q, r []float64) float64 {
	if len(q) == 0 {
		return 0
	}
	qq := floats.Dot(q, q)
	rr := floats.Dot(r, r)
	if qq == 0 || rr == 0 {
		return 0
	}
	qr := floats.Dot(q, r)
	return qr * qr / (qq * rr)
}

// countInRange returns the number of peaks within [begin, end].
func countInRange(peaks []core.Peak, begin, end float64) int {
	n := 0
	for _, p := range peaks {
		if p.MZ >= begin && p.MZ <= end {
			n++
		}
	}
	return n
}

// peakCountPenalty down-weights matches against sparse reference spectra.
func peakCountPenalty(n int) float64 {
	switch n {
	case 1:
		return 0.75
	case 2:
		return 0.88
	case 3:
		return 0.94
	case 4:
		return 0.97
	default:
		return 1
	}
}

// DotProduct is the squared cosine between square-root scaled spectra,
// penalised by the number of reference peaks in [begin, end].
func DotProduct(query, reference []core.Peak, tol, begin, end float64) float64 {
	bins := align(query, reference, tol, begin, end)
	q, r := vectors(bins, false, math.Sqrt)
	return squaredCosine(q, r) * peakCountPenalty(countInRange(reference, begin, end))
}

// ReverseDotProduct is DotProduct restricted to the bins where the reference
// has signal, so unexplained query peaks do not lower the score.
func ReverseDotProduct(query, reference []core.Peak, tol, begin, end float64) float64 {
	bins := align(query, reference, tol, begin, end)
	q, r := vectors(bins, true, math.Sqrt)
	return squaredCosine(q, r) * peakCountPenalty(countInRange(reference, begin, end))
}

// SimpleDotProduct is the plain cosine between the binned spectra.
func SimpleDotProduct(query, reference []core.Peak, tol, begin, end float64) float64 {
	bins := align(query, reference, tol, begin, end)
	q, r := vectors(bins, false, func(v float64) float64 { return v })
	return math.Sqrt(squaredCosine(q, r))
}
