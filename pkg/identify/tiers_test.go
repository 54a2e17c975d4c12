package identify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		d    Decision
		want Tier
	}{
		{
			name: "full ms2 match",
			d:    Decision{HasMs2Candidate: true, Ms2Score: 0.85, Dot: 0.6, Reverse: 0.7, CutOff: 80},
			want: TierMs2,
		},
		{
			name: "reverse alone opens tier one",
			d:    Decision{HasMs2Candidate: true, Ms2Score: 0.85, Dot: 0.1, Reverse: 0.51, CutOff: 80},
			want: TierMs2,
		},
		{
			name: "weak spectra fall to loose tier",
			d:    Decision{HasMs2Candidate: true, Ms2Score: 0.85, Dot: 0.15, Reverse: 0.5, CutOff: 80},
			want: TierLooseMs2,
		},
		{
			name: "below cutoff above loose constant",
			d:    Decision{HasMs2Candidate: true, Ms2Score: 0.7, Dot: 0.9, Reverse: 0.9, CutOff: 80},
			want: TierLooseMs2,
		},
		{
			name: "loose constant is exclusive",
			d:    Decision{HasMs2Candidate: true, Ms2Score: 0.6, Dot: 0.9, Reverse: 0.9, CutOff: 80, HasMs1Candidate: true, Ms1Score: 0.9},
			want: TierMs1Only,
		},
		{
			name: "ms1 only",
			d:    Decision{HasMs1Candidate: true, Ms1Score: 0.81, CutOff: 80},
			want: TierMs1Only,
		},
		{
			name: "cutoff is exclusive",
			d:    Decision{HasMs1Candidate: true, Ms1Score: 0.8, CutOff: 80},
			want: TierUnmatched,
		},
		{
			// Entries failing retention time filtering never become
			// candidates, so a filtered window arrives here empty.
			name: "rt filtered window",
			d:    Decision{HasMs2Candidate: false, HasMs1Candidate: false, CutOff: 0},
			want: TierUnmatched,
		},
		{
			name: "no candidates",
			d:    Decision{CutOff: 0},
			want: TierUnmatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Decide(tt.d), "got tier %s", Decide(tt.d))
		})
	}
}

func TestMerge(t *testing.T) {
	low := core.Unmatched()
	low.MetaboliteName, low.LibraryID, low.TotalScore = "first", 1, 70
	high := core.Unmatched()
	high.MetaboliteName, high.LibraryID, high.TotalScore = "second", 2, 90
	tie := core.Unmatched()
	tie.MetaboliteName, tie.LibraryID, tie.TotalScore = "tie", 3, 70

	tests := []struct {
		name      string
		current   core.Annotation
		candidate core.Annotation
		want      string
	}{
		{"unmatched takes any match", core.Unmatched(), low, "first"},
		{"higher replaces", low, high, "second"},
		{"lower keeps current", high, low, "second"},
		{"tie keeps current", low, tie, "first"},
		{"unmatched candidate keeps current", low, core.Unmatched(), "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Merge(tt.current, tt.candidate).MetaboliteName)
		})
	}
}
