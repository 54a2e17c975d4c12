package library

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

func entries() []core.ReferenceCompound {
	return []core.ReferenceCompound{
		{Name: "Citrate", PrecursorMz: 193.0343, RetentionTime: -1, CompoundClass: "Organic acid"},
		{Name: "Glucose", PrecursorMz: 181.0707, RetentionTime: 2.1, Spectrum: core.Spectrum{{MZ: 85.03, Intensity: 100}}},
		{Name: "PC 34:1", PrecursorMz: 760.5851, RetentionTime: 12.3, TargetOmics: core.Lipidomics, CompoundClass: "PC",
			Spectrum: core.Spectrum{{MZ: 184.07, Intensity: 100}, {MZ: 577.52, Intensity: 10}}},
		{Name: "Fructose", PrecursorMz: 181.0707, RetentionTime: 1.8},
	}
}

func TestNewSortsAndAssignsIDs(t *testing.T) {
	input := entries()
	lib := New(input)

	require.Equal(t, 4, lib.Len())
	names := []string{}
	for i, e := range lib.Entries() {
		require.Equal(t, i, e.LibraryID)
		names = append(names, e.Name)
	}
	// Equal precursors keep their input order
	require.Equal(t, []string{"Glucose", "Fructose", "Citrate", "PC 34:1"}, names)

	// The input is untouched
	require.Equal(t, "Citrate", input[0].Name)
	require.Equal(t, 0, input[1].LibraryID)
}

func TestFromSorted(t *testing.T) {
	_, err := FromSorted(entries())
	require.Error(t, err)

	sorted := New(entries()).Entries()
	lib, err := FromSorted(sorted)
	require.NoError(t, err)
	require.Equal(t, len(sorted), lib.Len())
}

func TestWindowAndByID(t *testing.T) {
	lib := New(entries())

	window := lib.Window(181.0710, 0.001)
	require.Len(t, window, 2)
	require.Equal(t, "Glucose", window[0].Name)

	require.Empty(t, lib.Window(500, 0.01))

	e, ok := lib.ByID(3)
	require.True(t, ok)
	require.Equal(t, "PC 34:1", e.Name)

	_, ok = lib.ByID(4)
	require.False(t, ok)

	var empty *Library
	require.Equal(t, 0, empty.Len())
	require.Empty(t, empty.Window(181, 1))
}

func TestSummarize(t *testing.T) {
	s := New(entries()).Summarize()

	require.Equal(t, 4, s.Entries)
	require.Equal(t, 2, s.WithSpectrum)
	require.Equal(t, 3, s.WithRt)
	require.Equal(t, 1, s.Lipids)
	require.Equal(t, 3, s.TotalPeaks)
	require.Equal(t, 181.0707, s.MinPrecursorMz)
	require.Equal(t, 760.5851, s.MaxPrecursorMz)
	require.Equal(t, map[string]int{"Organic acid": 1, "PC": 1}, s.ByCompoundClass)
}
