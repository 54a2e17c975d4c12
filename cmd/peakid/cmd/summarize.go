package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var summarizeAdductsCSV string

func init() {
	summarizeCmd.Flags().StringVar(&summarizeAdductsCSV, "adducts", "", "CSV file with additional adduct groups (name,mass)")
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [library]",
	Short: "Summarize reference library contents",
	Long:  `Print summary statistics about an MSP or SQLite library including entry count, m/z range, and metadata coverage.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	adducts, err := loadAdducts(summarizeAdductsCSV)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(args[0], adducts)
	if err != nil {
		return err
	}

	s := lib.Summarize()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Library: %s\n", args[0])
	fmt.Fprintf(out, "Entries: %d\n", s.Entries)
	if s.Entries == 0 {
		return nil
	}
	fmt.Fprintf(out, "Precursor m/z: %.4f - %.4f\n", s.MinPrecursorMz, s.MaxPrecursorMz)
	fmt.Fprintf(out, "With MS/MS spectrum: %d\n", s.WithSpectrum)
	fmt.Fprintf(out, "With retention time: %d\n", s.WithRt)
	fmt.Fprintf(out, "With isotope ratios: %d\n", s.WithIsotopes)
	fmt.Fprintf(out, "With CCS: %d\n", s.WithCCS)
	fmt.Fprintf(out, "Lipids: %d\n", s.Lipids)
	fmt.Fprintf(out, "Total peaks: %d\n", s.TotalPeaks)

	if len(s.ByCompoundClass) > 0 {
		classes := make([]string, 0, len(s.ByCompoundClass))
		for class := range s.ByCompoundClass {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		fmt.Fprintf(out, "Compound classes:\n")
		for _, class := range classes {
			fmt.Fprintf(out, "  %s: %d\n", class, s.ByCompoundClass[class])
		}
	}
	return nil
}
