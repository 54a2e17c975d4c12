package identify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/PeakID/pkg/core"
	"github.com/ChrisMcGann/PeakID/pkg/library"
)

// Reporter receives coarse progress updates. It may be called from several
// goroutines, one call at a time.
type Reporter interface {
	Report(percent int)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(percent int)

// Report implements Reporter.
func (f ReporterFunc) Report(percent int) {
	f(percent)
}

// progress forwards chunk completion to a Reporter. A nil reporter is ignored.
type progress struct {
	mu       sync.Mutex
	reporter Reporter
	total    int
	done     int
	last     int
}

func (p *progress) step() {
	if p.reporter == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	percent := p.done * 100 / p.total
	if percent != p.last {
		p.last = percent
		p.reporter.Report(percent)
	}
}

// chunksPerWorker keeps progress granular without per-peak overhead.
const chunksPerWorker = 4

type chunk struct {
	lo, hi int
}

// split partitions n items into contiguous chunks.
func split(n, workers int) []chunk {
	size := n / (workers * chunksPerWorker)
	if size < 1 {
		size = 1
	}
	var chunks []chunk
	for lo := 0; lo < n; lo += size {
		chunks = append(chunks, chunk{lo: lo, hi: min(lo+size, n)})
	}
	return chunks
}

// IdentifyAll identifies every peak across all collision-energy channels.
// Peaks are processed in disjoint chunks by a worker pool; the library and
// the provider are only read. Cancellation is checked between chunks. When
// OnlyReportTopHit is set, only the best peak per library id keeps its
// annotation.
func (e *Engine) IdentifyAll(ctx context.Context, peaks []core.PeakFeature, provider SpectrumProvider, lib *library.Library, reporter Reporter) error {
	if len(peaks) == 0 {
		return nil
	}
	channels := max(1, e.params.CollisionEnergyChannels)
	for i := range peaks {
		peaks[i].ResetChannels(channels)
		peaks[i].Annotation = core.Unmatched()
	}
	if lib.Len() == 0 {
		if reporter != nil {
			reporter.Report(100)
		}
		return nil
	}

	workers := max(1, e.params.NumThreads)
	chunks := split(len(peaks), workers)
	prog := &progress{reporter: reporter, total: len(chunks)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range chunks {
		if gctx.Err() != nil {
			break
		}
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := c.lo; i < c.hi; i++ {
				if err := e.identifyPeak(&peaks[i], provider, lib, channels); err != nil {
					return err
				}
			}
			prog.step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.params.OnlyReportTopHit {
		CollapseTopHits(peaks)
	}

	matched := 0
	for i := range peaks {
		if peaks[i].IsMatched() {
			matched++
		}
	}
	e.log.Info("identification finished",
		zap.Int("peaks", len(peaks)),
		zap.Int("matched", matched),
		zap.Int("channels", channels))
	return nil
}

func (e *Engine) identifyPeak(peak *core.PeakFeature, provider SpectrumProvider, lib *library.Library, channels int) error {
	ms1, err := provider.CentroidSpectrum(peak)
	if err != nil {
		return fmt.Errorf("peak %d: failed to read centroid spectrum: %w", peak.PeakID, err)
	}
	for ch := 0; ch < channels; ch++ {
		ms2, err := provider.Ms2Spectrum(peak, ch)
		if err != nil {
			return fmt.Errorf("peak %d: failed to read MS/MS spectrum of channel %d: %w", peak.PeakID, ch, err)
		}
		e.Identify(peak, ms1, ms2, lib, ch)
	}
	return nil
}

// CollapseTopHits keeps the committed annotation only on the highest-scoring
// peak of each library id; the others are reset to unmatched. Ties keep the
// first peak.
func CollapseTopHits(peaks []core.PeakFeature) {
	best := make(map[int]int)
	for i := range peaks {
		p := &peaks[i]
		if !p.IsMatched() {
			continue
		}
		j, ok := best[p.LibraryID]
		if !ok || p.TotalScore > peaks[j].TotalScore {
			best[p.LibraryID] = i
		}
	}
	for i := range peaks {
		p := &peaks[i]
		if p.IsMatched() && best[p.LibraryID] != i {
			p.Annotation = core.Unmatched()
		}
	}
}
