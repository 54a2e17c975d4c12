// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/PeakID/pkg/config"
)

var (
	// Persistent flags
	configFile string
	verbose    bool
	threads    int

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "peakid",
	Short: "PeakID - isotope cluster detection and compound identification",
	Long: `PeakID groups LC-MS peaks into isotope clusters and annotates them
against reference libraries in MSP or mzVault SQLite format.

Commands:
- isotopes:  assign charge and isotope rank to every peak of a peak table
- identify:  score peaks against a library using MS1 and MS/MS evidence
- convert:   convert an MSP library to an mzVault SQLite database
- summarize: print statistics about a library`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML parameter file (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable development logging")
	rootCmd.PersistentFlags().IntVar(&threads, "threads", 0, "Number of worker threads (0 = parameter file or CPU count)")

	rootCmd.AddCommand(isotopesCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func setupLogger(cmd *cobra.Command, args []string) error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

// loadParameters reads the parameter file and applies command line overrides.
// overrides may be nil.
func loadParameters(cmd *cobra.Command, overrides func(*cobra.Command, *config.Parameters)) (config.Parameters, error) {
	params := config.Default()
	if configFile != "" {
		var err error
		params, err = config.Load(configFile)
		if err != nil {
			return params, err
		}
	}

	if cmd.Flags().Changed("threads") && threads > 0 {
		params.NumThreads = threads
	}
	if overrides != nil {
		overrides(cmd, &params)
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}
