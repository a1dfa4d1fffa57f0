package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/TofaJede/songscope/internal/types"
)

// maxTopNotes bounds the dominant-note histogram.
const maxTopNotes = 10

// Frames whose cumulative mean normalized difference never falls under the
// YIN threshold are retried against this absolute ceiling before being
// declared unvoiced.
const voicingCeiling = 0.25

// Frames quieter than this RMS are unvoiced outright; YIN's normalized
// difference is meaningless on silence.
const voicedRMSFloor = 1e-4

// pitchTrack holds the per-frame fundamental-frequency estimates of one
// signal. Unvoiced frames have Voiced=false and a zero frequency.
type pitchTrack struct {
	Freqs  []float64
	Voiced []bool
}

// trackPitch estimates a monophonic fundamental frequency for every
// analysis frame using a YIN-style estimator restricted to
// [minHz, maxHz], then smooths the track to suppress octave errors and
// spurious voiced/unvoiced flips.
func trackPitch(samples []float64, sampleRate, windowSize, hopSize int, minHz, maxHz, yinThreshold float64) (*pitchTrack, error) {
	if minHz <= 0 || maxHz <= minHz {
		return nil, fmt.Errorf("pitch range must satisfy 0 < min < max, got [%g, %g]", minHz, maxHz)
	}
	if float64(sampleRate)/minHz >= float64(windowSize)/2 {
		return nil, fmt.Errorf("window of %d samples too short to resolve %g Hz at %d Hz", windowSize, minHz, sampleRate)
	}

	numFrames := frameCount(len(samples), hopSize)
	track := &pitchTrack{
		Freqs:  make([]float64, numFrames),
		Voiced: make([]bool, numFrames),
	}

	frame := make([]float64, windowSize)
	for f := 0; f < numFrames; f++ {
		start := f * hopSize
		for i := range frame {
			if start+i < len(samples) {
				frame[i] = samples[start+i]
			} else {
				frame[i] = 0
			}
		}

		freq, voiced := yinPitch(frame, sampleRate, minHz, maxHz, yinThreshold)
		track.Freqs[f] = freq
		track.Voiced[f] = voiced
	}

	smoothTrack(track)
	return track, nil
}

// yinPitch estimates the fundamental frequency of a single frame with the
// YIN algorithm: difference function over the half-window, cumulative mean
// normalized difference (CMNDF), first local minimum below the threshold,
// parabolic refinement of the chosen lag. The voicing decision follows the
// CMNDF depth: a clearly periodic frame dips close to zero, noise stays
// near one.
func yinPitch(frame []float64, sampleRate int, minHz, maxHz, threshold float64) (float64, bool) {
	half := len(frame) / 2

	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if math.Sqrt(energy/float64(len(frame))) < voicedRMSFloor {
		return 0, false
	}

	minLag := int(float64(sampleRate) / maxHz)
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(float64(sampleRate) / minHz)
	if maxLag >= half {
		maxLag = half - 1
	}
	if maxLag <= minLag {
		return 0, false
	}

	diff := make([]float64, maxLag+1)
	for tau := 1; tau <= maxLag; tau++ {
		var sum float64
		for j := 0; j < half; j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	cmndf := make([]float64, maxLag+1)
	cmndf[0] = 1
	var runningSum float64
	for tau := 1; tau <= maxLag; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / runningSum
	}

	// First local minimum under the threshold wins; otherwise fall back
	// to the global minimum if it is still confidently periodic.
	bestTau := -1
	for tau := minLag; tau <= maxLag; tau++ {
		if cmndf[tau] < threshold {
			for tau+1 <= maxLag && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			bestTau = tau
			break
		}
	}
	if bestTau < 0 {
		globalTau := minLag
		for tau := minLag; tau <= maxLag; tau++ {
			if cmndf[tau] < cmndf[globalTau] {
				globalTau = tau
			}
		}
		if cmndf[globalTau] >= voicingCeiling {
			return 0, false
		}
		bestTau = globalTau
	}

	period := refineTau(cmndf, bestTau)
	freq := float64(sampleRate) / period
	if freq < minHz || freq > maxHz {
		return 0, false
	}
	return freq, true
}

// refineTau applies parabolic interpolation to the CMNDF minimum for
// sub-sample period accuracy.
func refineTau(cmndf []float64, tau int) float64 {
	if tau <= 0 || tau >= len(cmndf)-1 {
		return float64(tau)
	}
	left := cmndf[tau-1]
	mid := cmndf[tau]
	right := cmndf[tau+1]
	denom := left - 2*mid + right
	if denom == 0 {
		return float64(tau)
	}
	offset := 0.5 * (left - right) / denom
	if offset < -0.5 || offset > 0.5 {
		return float64(tau)
	}
	return float64(tau) + offset
}

// smoothTrack cleans the raw per-frame estimates in place:
// isolated voiced frames are dropped, single-frame unvoiced gaps inside a
// voiced run are bridged, and each voiced frequency is replaced by the
// median of the voiced frames in a 5-frame neighborhood. The median pass
// removes octave spikes without distorting sustained notes.
func smoothTrack(t *pitchTrack) {
	n := len(t.Freqs)

	for i := 0; i < n; i++ {
		if !t.Voiced[i] {
			continue
		}
		prevVoiced := i > 0 && t.Voiced[i-1]
		nextVoiced := i < n-1 && t.Voiced[i+1]
		if !prevVoiced && !nextVoiced {
			t.Voiced[i] = false
			t.Freqs[i] = 0
		}
	}

	for i := 1; i < n-1; i++ {
		if !t.Voiced[i] && t.Voiced[i-1] && t.Voiced[i+1] {
			t.Voiced[i] = true
			t.Freqs[i] = (t.Freqs[i-1] + t.Freqs[i+1]) / 2
		}
	}

	smoothed := make([]float64, n)
	copy(smoothed, t.Freqs)
	var window []float64
	for i := 0; i < n; i++ {
		if !t.Voiced[i] {
			continue
		}
		window = window[:0]
		for j := i - 2; j <= i+2; j++ {
			if j >= 0 && j < n && t.Voiced[j] {
				window = append(window, t.Freqs[j])
			}
		}
		smoothed[i] = median(window)
	}
	copy(t.Freqs, smoothed)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// noteLabel converts a frequency to its nearest equal-tempered note name
// with octave, e.g. 440 Hz -> "A4".
func noteLabel(freq float64) string {
	midi := midiNumber(freq)
	class := ((midi % 12) + 12) % 12
	octave := midi/12 - 1
	return fmt.Sprintf("%s%d", types.PitchClassNames[class], octave)
}

// noteHistogram counts one vote per voiced frame (sustained notes
// accumulate a vote for every frame they span) and returns the
// highest-count labels, at most maxTopNotes of them, sorted by descending
// count with ties broken by first-detected order. A track with no voiced
// frames yields an empty histogram.
func noteHistogram(track *pitchTrack) []types.NoteCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, voiced := range track.Voiced {
		if !voiced {
			continue
		}
		label := noteLabel(track.Freqs[i])
		if _, ok := counts[label]; !ok {
			firstSeen[label] = i
		}
		counts[label]++
	}

	notes := make([]types.NoteCount, 0, len(counts))
	for label, count := range counts {
		notes = append(notes, types.NoteCount{Label: label, Count: count})
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Count != notes[j].Count {
			return notes[i].Count > notes[j].Count
		}
		return firstSeen[notes[i].Label] < firstSeen[notes[j].Label]
	})

	if len(notes) > maxTopNotes {
		notes = notes[:maxTopNotes]
	}
	return notes
}
