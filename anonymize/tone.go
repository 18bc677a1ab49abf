package anonymize

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TimeToSample converts seconds to a frame index, rounding down. Negative
// times resolve to the first frame. Times too large for an int, and NaN,
// saturate to math.MaxInt, past the end of any recording.
func TimeToSample(seconds float64, sampleRate int) int {
	v := math.Floor(seconds * float64(sampleRate))
	switch {
	case math.IsNaN(v), v >= math.MaxInt:
		return math.MaxInt
	case v < 0:
		return 0
	}
	return int(v)
}

// EquivSinePeak returns the peak amplitude of a sine carrying the same
// energy as samples: RMS * sqrt(2). Squares are taken on 64-bit integers.
func EquivSinePeak(samples []int) float64 {
	if len(samples) == 0 {
		return 0
	}
	squares := make([]float64, len(samples))
	for i, s := range samples {
		v := int64(s)
		squares[i] = float64(v * v)
	}
	rms := math.Sqrt(stat.Mean(squares, nil))
	return rms * math.Sqrt2
}

// GenSine returns length samples of a unit sine at freq Hz, starting at
// phase zero.
func GenSine(length int, freq float64, sampleRate int) []float64 {
	if length <= 0 {
		return nil
	}
	step := freq / float64(sampleRate) * 2 * math.Pi
	result := make([]float64, length)
	for n := range result {
		result[n] = math.Sin(float64(n) * step)
	}
	return result
}
