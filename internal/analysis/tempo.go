package analysis

import "math"

// Tempo prior: candidate lags are weighted by a log-Gaussian centered on
// 120 BPM so that octave-ambiguous periodicities (60 vs 120 vs 240)
// resolve toward common tempos.
const (
	tempoPriorBPM    = 120.0
	tempoPriorStdDev = 1.0 // octaves
)

// onsetStrength computes a novelty curve from the spectrogram: the
// half-wave rectified frame-to-frame increase in magnitude, summed over
// bins. One value per frame; the first frame is 0.
func onsetStrength(spec *Spectrogram) []float64 {
	novelty := make([]float64, spec.NumFrames())
	for f := 1; f < spec.NumFrames(); f++ {
		prev := spec.Magnitudes[f-1]
		cur := spec.Magnitudes[f]
		var sum float64
		for i := range cur {
			if diff := cur[i] - prev[i]; diff > 0 {
				sum += diff
			}
		}
		novelty[f] = sum
	}
	return novelty
}

// estimateTempo derives a single BPM value from the dominant periodicity
// of the onset curve. It autocorrelates the novelty curve over lags
// inside [minBPM, maxBPM], weights each lag by the tempo prior, picks the
// best lag and refines it by parabolic interpolation before converting to
// BPM. A signal with no onset energy yields the documented fallback of 0;
// the result is always finite.
func estimateTempo(spec *Spectrogram, minBPM, maxBPM float64) float64 {
	novelty := onsetStrength(spec)
	hop := spec.HopSeconds
	if hop <= 0 || len(novelty) < 2 {
		return 0
	}

	minLag := int(math.Floor(60.0 / (maxBPM * hop)))
	maxLag := int(math.Ceil(60.0 / (minBPM * hop)))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > len(novelty)-1 {
		maxLag = len(novelty) - 1
	}
	if maxLag < minLag {
		return 0
	}

	scores := make([]float64, maxLag+1)
	bestLag := -1
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i < len(novelty)-lag; i++ {
			corr += novelty[i] * novelty[i+lag]
		}
		scores[lag] = corr * tempoPrior(60.0/(float64(lag)*hop))
		if bestLag < 0 || scores[lag] > scores[bestLag] {
			bestLag = lag
		}
	}

	if bestLag < 0 || scores[bestLag] <= 0 {
		return 0
	}

	lag := refineLag(scores, bestLag, minLag, maxLag)
	bpm := 60.0 / (lag * hop)
	if bpm < minBPM {
		bpm = minBPM
	}
	if bpm > maxBPM {
		bpm = maxBPM
	}
	return bpm
}

// tempoPrior is a log-Gaussian weight over BPM.
func tempoPrior(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	x := math.Log2(bpm/tempoPriorBPM) / tempoPriorStdDev
	return math.Exp(-0.5 * x * x)
}

// refineLag interpolates the true periodicity peak between integer lags
// by fitting a parabola through the score at the best lag and its
// neighbors. Onset peaks rarely land on exact frame boundaries, so the
// integer argmax alone can be off by several BPM.
func refineLag(scores []float64, peak, minLag, maxLag int) float64 {
	if peak <= minLag || peak >= maxLag {
		return float64(peak)
	}
	left := scores[peak-1]
	mid := scores[peak]
	right := scores[peak+1]
	denom := left - 2*mid + right
	if denom == 0 {
		return float64(peak)
	}
	offset := 0.5 * (left - right) / denom
	if offset < -0.5 || offset > 0.5 {
		return float64(peak)
	}
	return float64(peak) + offset
}
