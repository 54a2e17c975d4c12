package similarity

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/tolerance"
)

// NeutralLossPrefix marks a reference peak comment describing a neutral loss
// from the precursor, e.g. "NL:H2O".
const NeutralLossPrefix = "NL:"

// NeutralLoss returns the formula of a neutral-loss comment.
func NeutralLoss(comment string) (string, bool) {
	c := strings.TrimSpace(comment)
	if !strings.HasPrefix(c, NeutralLossPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(c, NeutralLossPrefix)), true
}

// Presence returns the fraction of reference peaks within [begin, end] found
// in the query. A neutral-loss reference peak is looked up at
// precursorMz - mass(formula). An unparsable neutral-loss formula is an error.
// The query must be sorted by m/z.
func Presence(query, reference []core.Peak, precursorMz, tol, begin, end float64) (float64, error) {
	total, found := 0, 0
	for _, p := range reference {
		expected := p.MZ
		if formula, ok := NeutralLoss(p.Annotation); ok {
			mass, err := core.FormulaMass(formula)
			if err != nil {
				return NotComputed, fmt.Errorf("invalid neutral loss '%s': %w", p.Annotation, err)
			}
			expected = precursorMz - mass
		}
		if expected < begin || expected > end {
			continue
		}
		total++
		if peak, ok := tolerance.MaxPeakInWindow(query, expected, tol); ok && peak.Intensity > 0 {
			found++
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(found) / float64(total), nil
}
