package audio

import "math"

// Downmix averages interleaved channels into a single mono channel.
func Downmix(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[f*channels+c]
		}
		mono[f] = sum / float64(channels)
	}
	return mono
}

// PeakNormalize scales samples so the loudest one sits headroomDB below full scale.
// Silent input is returned unchanged.
func PeakNormalize(samples []float64, headroomDB float64) []float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}

	gain := dbToGain(-headroomDB) / peak
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// CompressorSettings describes a downward compressor.
type CompressorSettings struct {
	ThresholdDB float64
	Ratio       float64
	AttackMS    float64
	ReleaseMS   float64
}

// Compress applies downward dynamic-range compression to mono samples.
// The signal level is tracked with an attack/release envelope follower and
// everything above the threshold is reduced by (level-threshold)*(1-1/ratio) dB.
func Compress(samples []float64, sampleRate int, s CompressorSettings) []float64 {
	if s.Ratio <= 1 || sampleRate <= 0 {
		return samples
	}

	attack := smoothing(s.AttackMS, sampleRate)
	release := smoothing(s.ReleaseMS, sampleRate)
	slope := 1 - 1/s.Ratio

	out := make([]float64, len(samples))
	var env float64
	for i, x := range samples {
		level := math.Abs(x)
		if level > env {
			env = attack*env + (1-attack)*level
		} else {
			env = release*env + (1-release)*level
		}

		out[i] = x
		if env <= 0 {
			continue
		}
		levelDB := 20 * math.Log10(env)
		if levelDB > s.ThresholdDB {
			out[i] = x * dbToGain(-(levelDB-s.ThresholdDB)*slope)
		}
	}
	return out
}

// Resample converts mono samples between rates using linear interpolation.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	step := float64(from) / float64(to)
	n := int(math.Round(float64(len(samples)) / step))
	out := make([]float64, n)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}

func smoothing(ms float64, sampleRate int) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1 / (ms / 1000 * float64(sampleRate)))
}

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}
