package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/PeakID/pkg/config"
	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/identify"
	"github.com/ChrisMcGann/PeakID/pkg/isotope"
	"github.com/ChrisMcGann/PeakID/pkg/reader/mzml"
)

var (
	// Flags for identify command
	identifyPeaksFile   string
	identifyMzMLFile    string
	identifyLibraryFile string
	identifyOutputFile  string
	identifyAdductsCSV  string
	scoreCutoff         float64
	ms1Tolerance        float64
	ms2Tolerance        float64
	rtTolerance         float64
	topHitOnly          bool
	targetOmics         string
)

func init() {
	identifyCmd.Flags().StringVarP(&identifyPeaksFile, "peaks", "p", "", "Peak table (TSV) or snapshot (required)")
	identifyCmd.Flags().StringVarP(&identifyMzMLFile, "mzml", "m", "", "Centroided mzML run (required)")
	identifyCmd.Flags().StringVarP(&identifyLibraryFile, "library", "l", "", "Reference library, MSP or mzVault SQLite (required)")
	identifyCmd.Flags().StringVarP(&identifyOutputFile, "out", "o", "", "Output peak table, SQLite database or snapshot (required)")
	identifyCmd.Flags().StringVar(&identifyAdductsCSV, "adducts", "", "CSV file with additional adduct groups (name,mass)")
	identifyCmd.Flags().Float64Var(&scoreCutoff, "score-cutoff", 0, "Identification score cutoff, 0-100")
	identifyCmd.Flags().Float64Var(&ms1Tolerance, "ms1-tolerance", 0, "MS1 library search tolerance in Da")
	identifyCmd.Flags().Float64Var(&ms2Tolerance, "ms2-tolerance", 0, "MS/MS library search tolerance in Da")
	identifyCmd.Flags().Float64Var(&rtTolerance, "rt-tolerance", 0, "Retention time tolerance in minutes")
	identifyCmd.Flags().BoolVar(&topHitOnly, "top-hit", false, "Only keep the best peak per library entry")
	identifyCmd.Flags().StringVar(&targetOmics, "omics", "", "Target omics: metabolomics or lipidomics")

	identifyCmd.MarkFlagRequired("peaks")
	identifyCmd.MarkFlagRequired("mzml")
	identifyCmd.MarkFlagRequired("library")
	identifyCmd.MarkFlagRequired("out")
}

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify peaks against a reference library",
	Long: `Annotate the peaks of a peak table with the best matching library entry,
using accurate mass, retention time, isotope pattern and MS/MS similarity.
Peaks without isotope assignment are grouped into clusters first.

Collision energy channels follow the distinct energies found in the mzML run.

Examples:
  # Identify with default parameters
  peakid identify --peaks peaks.tsv --mzml run.mzML --library library.msp --out results.tsv

  # Lipidomics with a SQLite library and results written to SQLite
  peakid identify -p isotopes.msgpack -m run.mzML -l lipids.db -o results.db --omics lipidomics --top-hit`,
	RunE: runIdentify,
}

func applyIdentifyOverrides(cmd *cobra.Command, params *config.Parameters) {
	flags := cmd.Flags()
	if flags.Changed("score-cutoff") {
		params.IdentificationScoreCutOff = scoreCutoff
	}
	if flags.Changed("ms1-tolerance") {
		params.Ms1LibrarySearchTolerance = ms1Tolerance
	}
	if flags.Changed("ms2-tolerance") {
		params.Ms2LibrarySearchTolerance = ms2Tolerance
	}
	if flags.Changed("rt-tolerance") {
		params.RetentionTimeLibrarySearchTolerance = rtTolerance
	}
	if flags.Changed("top-hit") {
		params.OnlyReportTopHit = topHitOnly
	}
	if flags.Changed("omics") {
		params.TargetOmics = targetOmics
	}
}

func runIdentify(cmd *cobra.Command, args []string) error {
	params, err := loadParameters(cmd, applyIdentifyOverrides)
	if err != nil {
		return err
	}

	peaks, err := loadPeaks(identifyPeaksFile)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d peaks from %s\n", len(peaks), identifyPeaksFile)

	if needsIsotopes(peaks) {
		isotope.NewDetector(logger, core.DefaultIUPAC(), params).Detect(peaks)
	}

	adducts, err := loadAdducts(identifyAdductsCSV)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(identifyLibraryFile, adducts)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d library entries from %s\n", lib.Len(), identifyLibraryFile)

	source, err := openRun(identifyMzMLFile, params.Ms1LibrarySearchTolerance)
	if err != nil {
		return err
	}
	if energies := source.Channels(); len(energies) > 0 {
		params.CollisionEnergyChannels = len(energies)
		logger.Debug("collision energy channels", zap.Float64s("energies", energies))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := identify.NewEngine(logger, params)
	if err := engine.IdentifyAll(ctx, peaks, source, lib, progressPrinter()); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("identification interrupted")
		}
		return fmt.Errorf("identification failed: %w", err)
	}

	if err := writePeaks(identifyOutputFile, "identify", peaks); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	matched := 0
	for i := range peaks {
		if peaks[i].IsMatched() {
			matched++
		}
	}
	fmt.Printf("\nIdentification complete!\n")
	fmt.Printf("Processed: %d peaks\n", len(peaks))
	fmt.Printf("Identified: %d peaks\n", matched)
	fmt.Printf("Output: %s\n", identifyOutputFile)
	return nil
}

// needsIsotopes reports whether any peak was never visited by the detector
func needsIsotopes(peaks []core.PeakFeature) bool {
	for i := range peaks {
		if peaks[i].Unassigned() {
			return true
		}
	}
	return false
}

func openRun(path string, precursorTol float64) (*mzml.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mzML file: %w", err)
	}
	defer f.Close()

	run, err := mzml.Read(f)
	if err != nil {
		return nil, fmt.Errorf("error reading mzML file: %w", err)
	}
	return mzml.NewSource(run, precursorTol)
}

// progressPrinter prints progress in steps of ten percent
func progressPrinter() identify.Reporter {
	last := -1
	return identify.ReporterFunc(func(percent int) {
		if step := percent / 10; step > last {
			last = step
			fmt.Printf("Processed %d%% of peaks...\n", percent)
		}
	})
}
