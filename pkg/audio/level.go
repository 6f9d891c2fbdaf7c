package audio

import "math"

// RMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM. Returns a value between 0.0 and 1.0.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// levelGain amplifies RMS readings so typical speech fills the meter.
const levelGain = 5.0

// SignalLevel maps frame energy onto a [0, 1] meter value. Display only;
// nothing downstream keys off it.
func SignalLevel(pcm []byte) float64 {
	return math.Min(RMSEnergy(pcm)*levelGain, 1.0)
}
