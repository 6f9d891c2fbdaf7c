// Package audio provides the capture and playback halves of the realtime
// voice pipeline: PCM format math, microphone capture, signal level
// measurement, and the gap-free playback scheduler.
package audio

import "time"

// Config specifies a PCM audio format.
type Config struct {
	// SampleRate in Hz. Capture runs at 16000, playback at 24000.
	SampleRate int
	// Channels: 1 for mono, 2 for stereo.
	Channels int
	// BitsPerSample: 16 for the PCM this client speaks.
	BitsPerSample int
}

// CaptureConfig is the microphone format the service expects.
func CaptureConfig() Config {
	return Config{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// PlaybackConfig is the synthesis format the service produces.
func PlaybackConfig() Config {
	return Config{SampleRate: 24000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the byte rate of the format.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// Duration returns the playback time of the given byte count.
func (c Config) Duration(bytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps <= 0 || bytes <= 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(bps)
}

// BytesForDuration returns the byte count covering d of audio.
func (c Config) BytesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(int64(c.BytesPerSecond()) * int64(d) / int64(time.Second))
}
