package audio

import "math"

// FrequencyKind selects the band of the spectrum reported by Frequencies.
type FrequencyKind string

const (
	// FrequencyKindFull covers the full analyzable band up to Nyquist.
	FrequencyKindFull FrequencyKind = "frequency"
	// FrequencyKindMusic covers the musically relevant band.
	FrequencyKindMusic FrequencyKind = "music"
	// FrequencyKindVoice covers the human speech band.
	FrequencyKindVoice FrequencyKind = "voice"
)

// Frequencies is a normalized magnitude spectrum snapshot used by the
// visualization loop.
type Frequencies struct {
	Values []float64
}

// Peak returns the largest magnitude in the snapshot.
func (f Frequencies) Peak() float64 {
	peak := 0.0
	for _, v := range f.Values {
		if v > peak {
			peak = v
		}
	}
	return peak
}

func (k FrequencyKind) band(sampleRate int) (low, high float64) {
	switch k {
	case FrequencyKindVoice:
		return 80, 3400
	case FrequencyKindMusic:
		return 20, 10000
	default:
		return 0, float64(sampleRate) / 2
	}
}

const analysisBins = 32

// AnalyzeFrequencies computes a coarse magnitude spectrum of the given mono
// samples restricted to the band selected by kind. Magnitudes are normalized
// to [0, 1]. An empty input yields a zeroed spectrum so observers always
// receive a fixed-size snapshot.
func AnalyzeFrequencies(samples []int16, sampleRate int, kind FrequencyKind) Frequencies {
	values := make([]float64, analysisBins)
	if len(samples) == 0 || sampleRate <= 0 {
		return Frequencies{Values: values}
	}

	low, high := kind.band(sampleRate)
	nyquist := float64(sampleRate) / 2
	if high > nyquist {
		high = nyquist
	}

	for bin := range values {
		freq := low + (high-low)*float64(bin)/float64(analysisBins)
		values[bin] = goertzel(samples, sampleRate, freq)
	}

	// Normalize so the loudest bin is 1.
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak > 0 {
		for i := range values {
			values[i] /= peak
		}
	}

	return Frequencies{Values: values}
}

// goertzel measures the magnitude of a single frequency component.
func goertzel(samples []int16, sampleRate int, freq float64) float64 {
	if freq <= 0 {
		freq = 1
	}

	omega := 2 * math.Pi * freq / float64(sampleRate)
	coeff := 2 * math.Cos(omega)

	var sPrev, sPrev2 float64
	for _, sample := range samples {
		s := float64(sample)/32768.0 + coeff*sPrev - sPrev2
		sPrev2 = sPrev
		sPrev = s
	}

	power := sPrev2*sPrev2 + sPrev*sPrev - coeff*sPrev*sPrev2
	if power < 0 {
		return 0
	}
	return math.Sqrt(power) / float64(len(samples))
}
