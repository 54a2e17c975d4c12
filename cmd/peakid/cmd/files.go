package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/library"
	"github.com/ChrisMcGann/PeakID/pkg/reader/msp"
	"github.com/ChrisMcGann/PeakID/pkg/reader/peaktable"
	sqlitereader "github.com/ChrisMcGann/PeakID/pkg/reader/sqlite"
	"github.com/ChrisMcGann/PeakID/pkg/snapshot"
	sqlitewriter "github.com/ChrisMcGann/PeakID/pkg/writer/sqlite"
)

// fileKind classifies a path by extension
func fileKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msp":
		return "msp"
	case ".db", ".sqlite", ".db3":
		return "sqlite"
	case ".msgpack", ".snapshot":
		return "snapshot"
	default:
		return "table"
	}
}

// loadAdducts returns the default adduct database extended with a CSV file
func loadAdducts(path string) (*core.AdductDatabase, error) {
	db := core.DefaultAdductDatabase()
	if path == "" {
		return db, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open adduct file: %w", err)
	}
	defer f.Close()
	if err := db.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load adduct file: %w", err)
	}
	return db, nil
}

// loadLibrary reads an MSP or mzVault SQLite library
func loadLibrary(path string, adducts *core.AdductDatabase) (*library.Library, error) {
	var entries []core.ReferenceCompound
	switch fileKind(path) {
	case "msp":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open library: %w", err)
		}
		defer f.Close()
		entries, err = msp.NewReader(f, adducts).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("error reading library: %w", err)
		}
	case "sqlite":
		r, err := sqlitereader.NewLibraryReader(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		entries, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("error reading library: %w", err)
		}
	default:
		return nil, fmt.Errorf("cannot detect library format from extension '%s'", filepath.Ext(path))
	}
	return library.New(entries), nil
}

// loadPeaks reads a peak table or a snapshot
func loadPeaks(path string) ([]core.PeakFeature, error) {
	if fileKind(path) == "snapshot" {
		s, err := snapshot.Load(path)
		if err != nil {
			return nil, err
		}
		return s.Peaks, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open peak table: %w", err)
	}
	defer f.Close()
	return peaktable.NewReader(f).ReadAll()
}

// writePeaks writes peaks as a table, a SQLite database or a snapshot
func writePeaks(path, stage string, peaks []core.PeakFeature) error {
	switch fileKind(path) {
	case "snapshot":
		return snapshot.New(stage, peaks).Save(path)
	case "sqlite":
		w, err := sqlitewriter.NewResultWriter(path)
		if err != nil {
			return err
		}
		if err := w.WritePeaks(peaks); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	case "msp":
		return fmt.Errorf("cannot write peaks as MSP: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := peaktable.NewWriter(f)
	for i := range peaks {
		if err := w.Write(&peaks[i]); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
