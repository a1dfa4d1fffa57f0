// Package types provides shared type definitions used across songscope.
package types

// PitchClassNames lists the 12 pitch-class labels in equal-tempered
// semitone order starting at C. Index i is the pitch class i semitones
// above C.
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Frequency band names used in BandEnergy maps.
const (
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
)

// PitchClassDistribution holds one weight per pitch class, indexed by
// semitone from C. Weights sum to 1 unless the source signal carried no
// chroma energy at all, in which case every weight is zero.
type PitchClassDistribution [12]float64

// Sum returns the total weight of the distribution.
func (d PitchClassDistribution) Sum() float64 {
	var sum float64
	for _, w := range d {
		sum += w
	}
	return sum
}

// Peak returns the index of the strongest pitch class, 0 for an all-zero
// distribution.
func (d PitchClassDistribution) Peak() int {
	best := 0
	for i, w := range d {
		if w > d[best] {
			best = i
		}
	}
	return best
}

// NoteCount is one entry of the dominant-note histogram: an
// octave-qualified note label (e.g. "A4") and the number of analysis
// frames on which it was detected.
type NoteCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AnalysisResult is the immutable record produced by one analysis run.
// It is created once per run and never mutated afterwards.
type AnalysisResult struct {
	// Duration of the analyzed signal in seconds.
	Duration float64 `json:"duration"`

	// Tempo estimate in beats per minute. 0 when the signal carried no
	// onset energy (silence, constant tone).
	Tempo float64 `json:"tempo"`

	// KeyDistribution is the normalized chroma histogram.
	KeyDistribution PitchClassDistribution `json:"keyDistribution"`

	// TopNotes holds at most 10 entries sorted by descending frame count,
	// ties broken by first-detected order. Empty when no voiced frames
	// were found.
	TopNotes []NoteCount `json:"topNotes"`

	// BandEnergy maps "low"/"mid"/"high" to cumulative spectral power.
	BandEnergy map[string]float64 `json:"bandEnergy"`

	// DynamicRange in decibels: 20*log10 of the ratio between the loudest
	// and quietest non-silent frame RMS.
	DynamicRange float64 `json:"dynamicRange"`

	// LoudnessEnvelope holds one value per analysis frame in decibels
	// relative to the peak frame RMS (the loudest frame sits at 0 dB).
	LoudnessEnvelope []float64 `json:"loudnessEnvelope"`
}
