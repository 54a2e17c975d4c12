// PeakID - isotope cluster detection and compound identification for LC-MS
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/PeakID/cmd/peakid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
