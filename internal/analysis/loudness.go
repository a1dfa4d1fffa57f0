package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// rmsFloor substitutes for a zero RMS before taking a logarithm.
const rmsFloor = 1e-10

// rmsEnvelope computes the frame-wise root-mean-square energy on the same
// window/hop grid as the spectrogram: frames start every hopSize samples
// and the tail is zero-padded, so the envelope length is ceil(n/hop).
func rmsEnvelope(samples []float64, windowSize, hopSize int) []float64 {
	numFrames := frameCount(len(samples), hopSize)
	rms := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * hopSize
		var sum float64
		for i := 0; i < windowSize && start+i < len(samples); i++ {
			s := samples[start+i]
			sum += s * s
		}
		rms[f] = math.Sqrt(sum / float64(windowSize))
	}
	return rms
}

// loudness converts the RMS envelope to decibels and derives the scalar
// dynamic-range metric. Both outputs use the decibel-referenced
// definition so their units agree:
//
//	envelope[i]  = 20*log10(rms[i] / peak)   (loudest frame = 0 dB)
//	dynamicRange = 20*log10(max(rms) / min(rms > 0))
//
// A floor of 1e-10 stands in for zero-valued terms so no logarithm of
// zero occurs. For an all-silent signal the envelope is flat at 0 dB
// relative to its own (zero) peak and the dynamic range is 0.
func loudness(samples []float64, windowSize, hopSize int) (envelope []float64, dynamicRange float64) {
	rms := rmsEnvelope(samples, windowSize, hopSize)
	if len(rms) == 0 {
		return []float64{}, 0
	}

	peak := floats.Max(rms)

	envelope = make([]float64, len(rms))
	for i, v := range rms {
		envelope[i] = 20 * math.Log10(math.Max(v, rmsFloor)/math.Max(peak, rmsFloor))
	}

	minNonZero := 0.0
	for _, v := range rms {
		if v > 0 && (minNonZero == 0 || v < minNonZero) {
			minNonZero = v
		}
	}
	if peak <= 0 {
		return envelope, 0
	}
	dynamicRange = 20 * math.Log10(peak/math.Max(minNonZero, rmsFloor))
	return envelope, dynamicRange
}
