package audio

import (
	"testing"
	"time"
)

func TestConfigDurationRoundTrip(t *testing.T) {
	t.Parallel()

	capture := CaptureConfig()
	if got := capture.BytesPerSecond(); got != 32000 {
		t.Fatalf("capture BytesPerSecond=%d, want 32000", got)
	}

	playback := PlaybackConfig()
	if got := playback.BytesPerSecond(); got != 48000 {
		t.Fatalf("playback BytesPerSecond=%d, want 48000", got)
	}

	oneSecond := playback.BytesForDuration(time.Second)
	if oneSecond != 48000 {
		t.Fatalf("BytesForDuration(1s)=%d, want 48000", oneSecond)
	}
	if got := playback.Duration(oneSecond); got != time.Second {
		t.Fatalf("Duration(48000)=%v, want 1s", got)
	}

	// A 4096-sample capture frame is 256ms at 16kHz.
	frame := FrameSamples * 2
	if got := capture.Duration(frame); got != 256*time.Millisecond {
		t.Fatalf("Duration(frame)=%v, want 256ms", got)
	}
}
