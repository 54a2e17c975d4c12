package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/PeakID/pkg/filter"
	"github.com/ChrisMcGann/PeakID/pkg/reader/msp"
	sqlitewriter "github.com/ChrisMcGann/PeakID/pkg/writer/sqlite"
)

var (
	// Flags for convert command
	inputFile      string
	outputFile     string
	adductsCSV     string
	topN           int
	cutoffPercent  float64
	massRangeBegin float64
	massRangeEnd   float64
	annotations    string
)

func init() {
	convertCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input MSP library (required)")
	convertCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	convertCmd.Flags().StringVar(&adductsCSV, "adducts", "", "CSV file with additional adduct groups (name,mass)")
	convertCmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks (0 = no limit)")
	convertCmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	convertCmd.Flags().Float64Var(&massRangeBegin, "mass-range-begin", 0, "Drop fragments below this m/z")
	convertCmd.Flags().Float64Var(&massRangeEnd, "mass-range-end", 0, "Drop fragments above this m/z (0 = no limit)")
	convertCmd.Flags().StringVar(&annotations, "annotations", "", "Comma-separated peak comment prefixes to keep (e.g., 'NL:,FA')")

	convertCmd.MarkFlagRequired("in")
	convertCmd.MarkFlagRequired("out")
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an MSP library to an mzVault SQLite database",
	Long: `Convert a reference library in MSP format to an mzVault-style SQLite
database that identify and summarize can read back.

Examples:
  # Convert with default settings
  peakid convert --in library.msp --out library.db

  # Keep the 20 most intense fragments above 1% of the base peak
  peakid convert --in library.msp --out library.db --top-n 20 --cutoff 1`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}
	if fileKind(inputFile) != "msp" {
		return fmt.Errorf("input must be an MSP file: %s", inputFile)
	}

	adducts, err := loadAdducts(adductsCSV)
	if err != nil {
		return err
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	reader := msp.NewReader(inFile, adducts)

	writer, err := sqlitewriter.NewLibraryWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	filterConfig := &filter.Config{
		MassRangeBegin:  massRangeBegin,
		MassRangeEnd:    massRangeEnd,
		IntensityCutoff: cutoffPercent,
		TopN:            topN,
	}
	if annotations != "" {
		for _, a := range strings.Split(annotations, ",") {
			filterConfig.Annotations = append(filterConfig.Annotations, strings.TrimSpace(a))
		}
	}

	fmt.Printf("Converting %s to %s...\n", inputFile, outputFile)
	if topN > 0 {
		fmt.Printf("Top N filter: %d\n", topN)
	}
	if cutoffPercent > 0 {
		fmt.Printf("Intensity cutoff: %.1f%%\n", cutoffPercent)
	}

	count := 0
	skipped := 0
	for reader.Next() {
		entry := reader.Entry()

		filter.RemoveZeroIntensityPeaks(&entry.Spectrum)
		filterConfig.Apply(&entry.Spectrum)

		if err := entry.Validate(); err != nil {
			logger.Warn("skipping invalid entry", zap.String("name", entry.Name), zap.Error(err))
			skipped++
			continue
		}

		if err := writer.WriteCompound(entry); err != nil {
			writer.Close()
			return fmt.Errorf("failed to write entry %s: %w", entry.Name, err)
		}

		count++
		if count%1000 == 0 {
			fmt.Printf("Processed %d entries...\n", count)
		}
	}

	if err := reader.Err(); err != nil {
		writer.Close()
		return fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nConversion complete!\n")
	fmt.Printf("Processed: %d entries\n", count)
	if skipped > 0 {
		fmt.Printf("Skipped: %d entries (validation errors)\n", skipped)
	}
	fmt.Printf("Output: %s\n", outputFile)
	return nil
}
