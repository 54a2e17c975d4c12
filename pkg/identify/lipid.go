package identify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/tolerance"
)

// LipidMatch is the structural level supported by the MS/MS evidence.
type LipidMatch struct {
	Class    bool
	Chains   bool
	Position bool
}

type lipidEvidence int

const (
	classEvidence lipidEvidence = iota
	chainEvidence
	positionEvidence
)

// snPosition matches a chain position marker such as "sn1" or "sn-2".
var snPosition = regexp.MustCompile(`\bsn-?[123]\b`)

// evidenceOf classifies a reference peak by its comment.
func evidenceOf(comment string) lipidEvidence {
	lower := strings.ToLower(comment)
	switch {
	case snPosition.MatchString(lower):
		return positionEvidence
	case strings.Contains(comment, "FA"), strings.Contains(lower, "acyl"), strings.Contains(lower, "chain"):
		return chainEvidence
	default:
		return classEvidence
	}
}

// RefineLipid reports which structural level of a lipid name the query
// spectrum supports and returns the name written at that level: the full
// name when chain positions are confirmed, chains joined by "_" when only
// the chains are, and the sum composition otherwise.
func RefineLipid(name string, ref *core.ReferenceCompound, query []core.Peak, tol float64) (string, LipidMatch) {
	var total, found [3]int
	for _, p := range ref.Spectrum {
		e := evidenceOf(p.Annotation)
		total[e]++
		if _, ok := tolerance.MaxPeakInWindow(query, p.MZ, tol); ok {
			found[e]++
		}
	}

	var m LipidMatch
	m.Class = found[classEvidence]+found[chainEvidence]+found[positionEvidence] > 0
	m.Chains = total[chainEvidence] > 0 && found[chainEvidence] == total[chainEvidence]
	m.Position = m.Chains && total[positionEvidence] > 0 && found[positionEvidence] == total[positionEvidence]

	switch {
	case m.Position:
		return name, m
	case m.Chains:
		return strings.ReplaceAll(name, "/", "_"), m
	default:
		if sum, ok := SumComposition(name); ok {
			return sum, m
		}
		return name, m
	}
}

// SumComposition collapses the acyl chains of a lipid name into total carbons
// and double bonds, e.g. "PC 16:0/18:1" -> "PC 34:1". Ether and plasmalogen
// prefixes are kept. It reports false when the name has no parsable chains.
func SumComposition(name string) (string, bool) {
	class, rest, ok := strings.Cut(strings.TrimSpace(name), " ")
	if !ok || rest == "" {
		return name, false
	}

	chains := strings.FieldsFunc(rest, func(r rune) bool { return r == '/' || r == '_' })
	carbons, bonds := 0, 0
	prefix := ""
	for _, chain := range chains {
		chain = strings.TrimSpace(chain)
		if strings.HasPrefix(chain, "O-") || strings.HasPrefix(chain, "P-") {
			prefix = chain[:2]
			chain = chain[2:]
		}
		if i := strings.IndexAny(chain, ";("); i >= 0 {
			chain = chain[:i]
		}
		c, d, ok := strings.Cut(chain, ":")
		if !ok {
			return name, false
		}
		nc, err := strconv.Atoi(c)
		if err != nil {
			return name, false
		}
		nd, err := strconv.Atoi(d)
		if err != nil {
			return name, false
		}
		carbons += nc
		bonds += nd
	}
	return fmt.Sprintf("%s %s%d:%d", class, prefix, carbons, bonds), true
}
