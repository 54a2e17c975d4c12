package identify

import "github.com/ChrisMcGann/PeakID/pkg/core"

// Merge returns the annotation to keep when a channel produces candidate
// while current is committed. Only a strictly higher score replaces current,
// so ties keep the channel evaluated first.
func Merge(current, candidate core.Annotation) core.Annotation {
	if candidate.TotalScore > current.TotalScore {
		return candidate
	}
	return current
}
