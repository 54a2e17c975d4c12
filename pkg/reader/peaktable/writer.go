package peaktable

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// OutputColumns is the header written by Writer
var OutputColumns = []string{
	ColID, ColMz, ColRt, ColRtLeft, ColRtRight,
	ColScanLeft, ColScanTop, ColScanRight, ColIntensity, ColDriftTime,
	"ccs", "charge", "isotope_weight", "isotope_parent",
	"name", "library_id", "inchikey", "adduct", "total_score",
	"mass_similarity", "rt_similarity", "isotope_similarity",
	"dot", "reverse", "presence",
	"rt_match", "ms1_match", "ms2_match", "ccs_match",
}

// Writer writes annotated peaks as a tab-separated table
type Writer struct {
	w             *bufio.Writer
	headerWritten bool
}

// NewWriter creates a new peak table writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one peak, preceded by the header on first use
func (w *Writer) Write(p *core.PeakFeature) error {
	if !w.headerWritten {
		if _, err := w.w.WriteString(strings.Join(OutputColumns, "\t") + "\n"); err != nil {
			return Error.Wrap(err)
		}
		w.headerWritten = true
	}

	_, err := fmt.Fprintf(w.w,
		"%d\t%.6f\t%.4f\t%.4f\t%.4f\t%d\t%d\t%d\t%g\t%g\t%g\t%d\t%d\t%d\t%s\t%d\t%s\t%s\t%.2f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%t\t%t\t%t\t%t\n",
		p.PeakID, p.Mz, p.RtTop, p.RtLeft, p.RtRight,
		p.ScanLeft, p.ScanTop, p.ScanRight, p.Intensity, p.DriftTime,
		p.CollisionCrossSection, p.ChargeNumber, p.IsotopeWeightNumber, p.IsotopeParentPeakID,
		p.MetaboliteName, p.LibraryID, p.InChIKey, p.Adduct.Name, p.TotalScore,
		p.AccurateMassSimilarity, p.RtSimilarity, p.IsotopeSimilarity,
		p.MassSpectraSimilarity, p.ReverseSearchSimilarity, p.PresenceSimilarity,
		p.IsRtMatch, p.IsMs1Match, p.IsMs2Match, p.IsCcsMatch,
	)
	return Error.Wrap(err)
}

// Flush flushes buffered output
func (w *Writer) Flush() error {
	return Error.Wrap(w.w.Flush())
}
