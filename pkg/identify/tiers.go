package identify

// Tier is the acceptance level of an identification.
type Tier int

const (
	// TierUnmatched means no candidate was accepted.
	TierUnmatched Tier = iota
	// TierMs2 is a full MS1+MS/MS identification.
	TierMs2
	// TierLooseMs2 is a best-effort MS/MS match above LooseMs2CutOff.
	TierLooseMs2
	// TierMs1Only is an identification from accurate mass, retention time
	// and isotopes alone.
	TierMs1Only
)

func (t Tier) String() string {
	switch t {
	case TierMs2:
		return "ms2"
	case TierLooseMs2:
		return "loose-ms2"
	case TierMs1Only:
		return "ms1-only"
	default:
		return "unmatched"
	}
}

const (
	// LooseMs2CutOff is the fixed score (0-100) above which an MS/MS match is
	// accepted without the configurable cutoff. It is not a parameter.
	LooseMs2CutOff = 60.0
	// DotThreshold and ReverseThreshold gate full MS/MS identifications.
	DotThreshold     = 0.15
	ReverseThreshold = 0.5
)

// Decision holds the inputs of the tier table for one peak and channel.
// Scores are on the 0-1 scale, CutOff on the 0-100 scale.
type Decision struct {
	HasMs2Candidate bool
	Ms2Score        float64
	Dot             float64
	Reverse         float64

	HasMs1Candidate bool
	Ms1Score        float64

	CutOff float64
}

// passes reports whether a 0-1 score passes a 0-100 cutoff.
func passes(score, cutoff float64) bool {
	return 100*score > cutoff
}

type tierRule struct {
	tier  Tier
	match func(d Decision) bool
}

// tierRules is evaluated in order; the first matching rule wins.
var tierRules = []tierRule{
	{TierMs2, func(d Decision) bool {
		return d.HasMs2Candidate && passes(d.Ms2Score, d.CutOff) &&
			(d.Dot > DotThreshold || d.Reverse > ReverseThreshold)
	}},
	{TierLooseMs2, func(d Decision) bool {
		return d.HasMs2Candidate && 100*d.Ms2Score > LooseMs2CutOff
	}},
	{TierMs1Only, func(d Decision) bool {
		return d.HasMs1Candidate && passes(d.Ms1Score, d.CutOff)
	}},
}

// Decide returns the acceptance tier for a decision.
func Decide(d Decision) Tier {
	for _, rule := range tierRules {
		if rule.match(d) {
			return rule.tier
		}
	}
	return TierUnmatched
}
