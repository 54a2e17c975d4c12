package identify

import "github.com/ChrisMcGann/PeakID/pkg/core"

// SpectrumProvider supplies the spectra of a peak. Implementations must be
// safe for concurrent use. An empty MS/MS spectrum means none was acquired.
type SpectrumProvider interface {
	CentroidSpectrum(peak *core.PeakFeature) ([]core.Peak, error)
	Ms2Spectrum(peak *core.PeakFeature, channel int) ([]core.Peak, error)
}

// MemoryProvider serves spectra held in memory, keyed by peak id.
type MemoryProvider struct {
	Centroid map[int][]core.Peak
	Ms2      map[int][][]core.Peak // peak id -> channel -> spectrum
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		Centroid: make(map[int][]core.Peak),
		Ms2:      make(map[int][][]core.Peak),
	}
}

// SetMs2 stores the MS/MS spectrum of a peak for one channel.
func (m *MemoryProvider) SetMs2(peakID, channel int, spectrum []core.Peak) {
	channels := m.Ms2[peakID]
	for len(channels) <= channel {
		channels = append(channels, nil)
	}
	channels[channel] = spectrum
	m.Ms2[peakID] = channels
}

// CentroidSpectrum implements SpectrumProvider.
func (m *MemoryProvider) CentroidSpectrum(peak *core.PeakFeature) ([]core.Peak, error) {
	return m.Centroid[peak.PeakID], nil
}

// Ms2Spectrum implements SpectrumProvider.
func (m *MemoryProvider) Ms2Spectrum(peak *core.PeakFeature, channel int) ([]core.Peak, error) {
	channels := m.Ms2[peak.PeakID]
	if channel < 0 || channel >= len(channels) {
		return nil, nil
	}
	return channels[channel], nil
}
