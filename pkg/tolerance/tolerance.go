// Package tolerance locates entries of m/z-sorted arrays within a mass window.
//
// Every function here assumes its input is sorted ascending by the searched key.
// Sortedness is asserted once by the owner of the array (see package library);
// these helpers never re-sort.
package tolerance

import (
	"sort"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// ReferenceMz is the m/z at which the centroid tolerance is defined before it
// is converted to ppm.
const ReferenceMz = 200.0

// StartIndex returns the first index in [0, n) whose key is >= target-tol,
// or n when there is none.
func StartIndex(n int, key func(i int) float64, target, tol float64) int {
	lower := target - tol
	return sort.Search(n, func(i int) bool { return key(i) >= lower })
}

// Window returns the half-open index range [lo, hi) whose keys lie within
// [target-tol, target+tol].
func Window(n int, key func(i int) float64, target, tol float64) (lo, hi int) {
	upper := target + tol
	lo = StartIndex(n, key, target, tol)
	hi = lo + sort.Search(n-lo, func(i int) bool { return key(lo+i) > upper })
	return lo, hi
}

// LibraryStart returns the first library entry whose precursor m/z is >= mz-tol.
func LibraryStart(lib []core.ReferenceCompound, mz, tol float64) int {
	return StartIndex(len(lib), func(i int) float64 { return lib[i].PrecursorMz }, mz, tol)
}

// LibraryWindow returns the library entries whose precursor lies within mz±tol.
func LibraryWindow(lib []core.ReferenceCompound, mz, tol float64) (lo, hi int) {
	return Window(len(lib), func(i int) float64 { return lib[i].PrecursorMz }, mz, tol)
}

// PeakStart returns the first peak whose m/z is >= mz-tol.
func PeakStart(peaks []core.Peak, mz, tol float64) int {
	return StartIndex(len(peaks), func(i int) float64 { return peaks[i].MZ }, mz, tol)
}

// PeakWindow returns the peaks whose m/z lies within mz±tol.
func PeakWindow(peaks []core.Peak, mz, tol float64) (lo, hi int) {
	return Window(len(peaks), func(i int) float64 { return peaks[i].MZ }, mz, tol)
}

// MaxPeakInWindow returns the most intense peak within mz±tol and whether
// one was found.
func MaxPeakInWindow(peaks []core.Peak, mz, tol float64) (core.Peak, bool) {
	lo, hi := PeakWindow(peaks, mz, tol)
	var peak core.Peak
	found := false
	for i := lo; i < hi; i++ {
		if !found || peaks[i].Intensity > peak.Intensity {
			peak = peaks[i]
			found = true
		}
	}
	return peak, found
}

// MassAccuracy converts the centroid tolerance to ppm at ReferenceMz and back
// to Da at mz. The result is never below the centroid tolerance itself.
func MassAccuracy(mz, centroidTol float64) float64 {
	ppm := core.PPM(ReferenceMz, centroidTol)
	accuracy := core.PPMToDa(mz, ppm)
	if accuracy < centroidTol {
		return centroidTol
	}
	return accuracy
}

// DaToPPM converts an absolute tolerance at mz into ppm.
func DaToPPM(mz, da float64) float64 {
	return core.PPM(mz, da)
}

// PPMToDa converts a ppm tolerance at mz into Da.
func PPMToDa(mz, ppm float64) float64 {
	return core.PPMToDa(mz, ppm)
}

// Order returns the indices 0..n-1 ordered by ascending key. Equal keys keep
// their original order.
func Order(n int, key func(i int) float64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return key(order[a]) < key(order[b])
	})
	return order
}

// IsSorted reports whether the keys are ascending.
func IsSorted(n int, key func(i int) float64) bool {
	for i := 1; i < n; i++ {
		if key(i) < key(i-1) {
			return false
		}
	}
	return true
}
