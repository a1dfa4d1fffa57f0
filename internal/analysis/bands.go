package analysis

import "github.com/TofaJede/songscope/internal/types"

// Band boundaries in Hz. Bands are contiguous and non-overlapping and
// together cover [20, Nyquist).
const (
	bandFloorHz  = 20.0
	lowBandMaxHz = 250.0
	midBandMaxHz = 4000.0
)

// bandEnergies sums squared magnitude over every frame for each named
// band. A bin belongs to the band whose range contains its center
// frequency; bins below 20 Hz or at and above Nyquist are outside every
// band. Values are cumulative power, not averages; callers wanting a
// relative balance normalize downstream.
func bandEnergies(spec *Spectrogram, nyquist float64) map[string]float64 {
	energies := map[string]float64{
		types.BandLow:  0,
		types.BandMid:  0,
		types.BandHigh: 0,
	}

	for bin, freq := range spec.Freqs {
		if freq < bandFloorHz || freq >= nyquist {
			continue
		}
		var name string
		switch {
		case freq < lowBandMaxHz:
			name = types.BandLow
		case freq < midBandMaxHz:
			name = types.BandMid
		default:
			name = types.BandHigh
		}

		var power float64
		for _, frame := range spec.Magnitudes {
			power += frame[bin] * frame[bin]
		}
		energies[name] += power
	}

	return energies
}
