// Package analysis implements the offline feature-extraction pipeline:
// it turns a decoded mono sample buffer into tempo, key distribution,
// dominant notes, band energies and loudness dynamics.
package analysis

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrogram is a magnitude spectrogram on a fixed frame grid.
// Magnitudes are indexed [frame][bin]; Freqs holds the ascending bin-center
// frequencies and HopSeconds the time between adjacent frames. It is
// derived once per analysis and shared read-only between stages.
type Spectrogram struct {
	Magnitudes [][]float64
	Freqs      []float64
	HopSeconds float64
}

// NumFrames returns the number of time frames.
func (s *Spectrogram) NumFrames() int {
	return len(s.Magnitudes)
}

// NumBins returns the number of frequency bins per frame.
func (s *Spectrogram) NumBins() int {
	return len(s.Freqs)
}

// frameCount returns the number of analysis frames for a buffer of n
// samples: ceil(n/hop). Tail frames are zero-padded, never dropped, so
// every sample is covered.
func frameCount(n, hopSize int) int {
	return (n + hopSize - 1) / hopSize
}

// computeSpectrogram slices samples into hop-spaced frames, applies a Hann
// window to each frame and transforms it to a magnitude spectrum.
// Identical input always yields an identical spectrogram; an all-silent
// buffer yields all-zero magnitudes rather than an error.
func computeSpectrogram(samples []float64, sampleRate, windowSize, hopSize int) (*Spectrogram, error) {
	if windowSize <= 0 || windowSize&(windowSize-1) != 0 {
		return nil, fmt.Errorf("window size must be a positive power of two, got %d", windowSize)
	}
	if hopSize <= 0 || hopSize > windowSize {
		return nil, fmt.Errorf("hop size must be between 1 and the window size, got %d", hopSize)
	}

	numFrames := frameCount(len(samples), hopSize)
	numBins := windowSize/2 + 1

	fft := fourier.NewFFT(windowSize)
	hann := window.Hann(windowSize)

	frame := make([]float64, windowSize)
	mags := make([][]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * hopSize
		for i := range frame {
			if start+i < len(samples) {
				frame[i] = samples[start+i] * hann[i]
			} else {
				frame[i] = 0
			}
		}

		coeffs := fft.Coefficients(nil, frame)

		mag := make([]float64, numBins)
		for i, c := range coeffs {
			re := real(c)
			im := imag(c)
			mag[i] = math.Sqrt(re*re + im*im)
		}
		mags[f] = mag
	}

	freqs := make([]float64, numBins)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sampleRate) / float64(windowSize)
	}

	return &Spectrogram{
		Magnitudes: mags,
		Freqs:      freqs,
		HopSeconds: float64(hopSize) / float64(sampleRate),
	}, nil
}
