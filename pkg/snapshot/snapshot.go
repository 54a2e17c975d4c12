// Package snapshot persists peak tables between pipeline stages as
// MessagePack files.
package snapshot

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/errs"

	"github.com/ChrisMcGann/PeakID/pkg/core"
)

// FormatVersion is bumped whenever the layout of PeakFeature changes
const FormatVersion = 1

// Error is the error class of this package
var Error = errs.Class("snapshot")

// ErrVersion is returned for snapshots written by an incompatible version
var ErrVersion = Error.New("incompatible snapshot version")

// Snapshot is a peak table together with the stage that produced it
type Snapshot struct {
	FormatVersion     int                `msgpack:"format_version"`
	Stage             string             `msgpack:"stage"`
	CreatedAtUnixNano int64              `msgpack:"created_at_unix_nano"`
	Peaks             []core.PeakFeature `msgpack:"peaks"`
}

// New creates a snapshot of peaks for the given stage
func New(stage string, peaks []core.PeakFeature) *Snapshot {
	return &Snapshot{
		FormatVersion:     FormatVersion,
		Stage:             stage,
		CreatedAtUnixNano: time.Now().UnixNano(),
		Peaks:             peaks,
	}
}

// Encode writes the snapshot to w
func (s *Snapshot) Encode(w io.Writer) error {
	return Error.Wrap(msgpack.NewEncoder(w).Encode(s))
}

// Decode reads a snapshot from r
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, Error.Wrap(err)
	}
	if s.FormatVersion != FormatVersion {
		return nil, ErrVersion
	}
	return &s, nil
}

// Save writes the snapshot to path atomically, creating parent directories
func (s *Snapshot) Save(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Error.Wrap(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = s.Encode(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(os.Rename(tmp.Name(), path))
}

// Load reads a snapshot from path
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer f.Close()
	return Decode(f)
}
