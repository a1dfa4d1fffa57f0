package analysis

import (
	"math"

	"github.com/TofaJede/songscope/internal/types"
)

// Equal-tempered reference: A4 = 440 Hz = MIDI note 69.
const (
	referenceFreqHz  = 440.0
	referenceMidiNum = 69
)

// midiNumber returns the nearest equal-tempered MIDI note number for a
// frequency. Only meaningful for positive frequencies.
func midiNumber(freq float64) int {
	return int(math.Round(float64(referenceMidiNum) + 12*math.Log2(freq/referenceFreqHz)))
}

// pitchClassIndex folds a frequency onto its pitch class modulo one
// octave: 0 is C, 9 is A. A bin at 440 Hz and one at 880 Hz both land on
// pitch class A.
func pitchClassIndex(freq float64) int {
	return ((midiNumber(freq) % 12) + 12) % 12
}

// chromaDistribution projects the spectrogram's energy onto the 12 pitch
// classes, averages across time frames and normalizes the result to sum
// to 1. When the total energy is zero (silence) all 12 weights are zero;
// this is the only case where the unit-sum invariant is relaxed.
func chromaDistribution(spec *Spectrogram) types.PitchClassDistribution {
	var dist types.PitchClassDistribution
	if spec.NumFrames() == 0 {
		return dist
	}

	for bin, freq := range spec.Freqs {
		// Sub-audible bins carry no pitch information and would fold
		// onto arbitrary classes.
		if freq < bandFloorHz {
			continue
		}
		class := pitchClassIndex(freq)
		for _, frame := range spec.Magnitudes {
			dist[class] += frame[bin] * frame[bin]
		}
	}

	n := float64(spec.NumFrames())
	for i := range dist {
		dist[i] /= n
	}

	total := dist.Sum()
	if total == 0 {
		return dist
	}
	for i := range dist {
		dist[i] /= total
	}
	return dist
}
