package analysis

import (
	"math"
	"math/rand"
)

// makeSine generates a sine tone at the given frequency and amplitude.
func makeSine(freq float64, sampleRate int, seconds, amplitude float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

// makeSilence generates a buffer of exact zeros.
func makeSilence(sampleRate int, seconds float64) []float64 {
	return make([]float64, int(float64(sampleRate)*seconds))
}

// makeClickTrain generates short full-scale clicks at the given tempo.
func makeClickTrain(bpm float64, sampleRate int, seconds float64) []float64 {
	samples := make([]float64, int(float64(sampleRate)*seconds))
	period := int(60.0 / bpm * float64(sampleRate))
	for start := 0; start < len(samples); start += period {
		// A few samples wide so the click survives windowing.
		for i := 0; i < 8 && start+i < len(samples); i++ {
			samples[start+i] = 1.0
		}
	}
	return samples
}

// makeNoiseBursts alternates silence and full-scale noise in equal
// segments of the given length.
func makeNoiseBursts(sampleRate int, seconds, segmentSeconds float64) []float64 {
	rng := rand.New(rand.NewSource(42))
	samples := make([]float64, int(float64(sampleRate)*seconds))
	segment := int(segmentSeconds * float64(sampleRate))
	for i := range samples {
		if (i/segment)%2 == 1 {
			samples[i] = rng.Float64()*2 - 1
		}
	}
	return samples
}
