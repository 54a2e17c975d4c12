// Package library holds the reference compounds used for identification as
// an immutable, precursor-sorted view.
package library

import (
	"fmt"
	"sort"

	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/tolerance"
)

// Library is a reference library sorted ascending by precursor m/z. Library
// ids equal the position of the entry, so ByID is a direct lookup.
type Library struct {
	entries []core.ReferenceCompound
}

// New sorts a copy of entries by precursor m/z and assigns library ids.
func New(entries []core.ReferenceCompound) *Library {
	sorted := make([]core.ReferenceCompound, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PrecursorMz < sorted[j].PrecursorMz
	})
	for i := range sorted {
		sorted[i].LibraryID = i
	}
	return &Library{entries: sorted}
}

// FromSorted wraps entries that are already sorted by precursor m/z. It
// fails instead of re-sorting.
func FromSorted(entries []core.ReferenceCompound) (*Library, error) {
	n := len(entries)
	if !tolerance.IsSorted(n, func(i int) float64 { return entries[i].PrecursorMz }) {
		return nil, fmt.Errorf("library entries are not sorted by precursor m/z")
	}
	lib := &Library{entries: make([]core.ReferenceCompound, n)}
	copy(lib.entries, entries)
	for i := range lib.entries {
		lib.entries[i].LibraryID = i
	}
	return lib, nil
}

// Len returns the number of entries.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns the sorted entries. Callers must not modify them.
func (l *Library) Entries() []core.ReferenceCompound {
	if l == nil {
		return nil
	}
	return l.entries
}

// ByID returns the entry with the given library id.
func (l *Library) ByID(id int) (*core.ReferenceCompound, bool) {
	if l == nil || id < 0 || id >= len(l.entries) {
		return nil, false
	}
	return &l.entries[id], true
}

// Window returns the entries whose precursor lies within mz±tol.
func (l *Library) Window(mz, tol float64) []core.ReferenceCompound {
	if l.Len() == 0 {
		return nil
	}
	lo, hi := tolerance.LibraryWindow(l.entries, mz, tol)
	return l.entries[lo:hi]
}

// Stats summarizes a library.
type Stats struct {
	Entries         int
	WithSpectrum    int
	WithRt          int
	WithIsotopes    int
	WithCCS         int
	Lipids          int
	MinPrecursorMz  float64
	MaxPrecursorMz  float64
	TotalPeaks      int
	ByCompoundClass map[string]int
}

// Summarize computes library statistics.
func (l *Library) Summarize() Stats {
	s := Stats{ByCompoundClass: make(map[string]int)}
	for i, e := range l.Entries() {
		s.Entries++
		if len(e.Spectrum) > 0 {
			s.WithSpectrum++
		}
		if e.HasRetentionTime() {
			s.WithRt++
		}
		if len(e.IsotopeRatios) > 0 {
			s.WithIsotopes++
		}
		if e.CollisionCrossSection > 0 {
			s.WithCCS++
		}
		if e.TargetOmics == core.Lipidomics {
			s.Lipids++
		}
		if i == 0 {
			s.MinPrecursorMz = e.PrecursorMz
		}
		s.MaxPrecursorMz = e.PrecursorMz
		s.TotalPeaks += len(e.Spectrum)
		if e.CompoundClass != "" {
			s.ByCompoundClass[e.CompoundClass]++
		}
	}
	return s
}
