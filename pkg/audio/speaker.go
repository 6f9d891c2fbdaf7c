package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker is an oto-backed Sink. Buffers handed to PlayAt are written into
// the output stream at their scheduled start times; the player pulls bytes
// from an internal FIFO so consecutive buffers play back to back.
type Speaker struct {
	cfg    Config
	otoCtx *oto.Context

	mu      sync.Mutex
	player  *oto.Player
	buf     []byte
	playing bool
	closed  bool

	timers map[*time.Timer]struct{}
}

// OpenSpeaker initializes the audio output device at the playback format.
func OpenSpeaker(cfg Config) (*Speaker, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		// Small output buffer keeps speech latency low at the cost of a
		// little glitch headroom.
		BufferSize: 100 * time.Millisecond,
	}
	otoCtx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("audio: open speaker: %w", err)
	}
	<-ready

	return &Speaker{
		cfg:    cfg,
		otoCtx: otoCtx,
		buf:    make([]byte, 0, cfg.BytesPerSecond()*2),
		timers: make(map[*time.Timer]struct{}),
	}, nil
}

// PlayAt arms a timer for the scheduled start and feeds the buffer to the
// output stream when it fires. done fires after the buffer's duration.
func (s *Speaker) PlayAt(pcm []byte, start time.Time, done func()) {
	if s == nil || len(pcm) == 0 {
		return
	}
	duration := s.cfg.Duration(len(pcm))

	delay := time.Until(start)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var startTimer *time.Timer
	startTimer = time.AfterFunc(delay, func() {
		s.write(pcm)

		s.mu.Lock()
		delete(s.timers, startTimer)
		if s.closed {
			s.mu.Unlock()
			return
		}
		var endTimer *time.Timer
		endTimer = time.AfterFunc(duration, func() {
			s.mu.Lock()
			delete(s.timers, endTimer)
			s.mu.Unlock()
			if done != nil {
				done()
			}
		})
		s.timers[endTimer] = struct{}{}
		s.mu.Unlock()
	})
	s.timers[startTimer] = struct{}{}
	s.mu.Unlock()
}

func (s *Speaker) write(pcm []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.buf = append(s.buf, pcm...)
	// The player is created lazily on first audio so a silent session never
	// opens the output stream.
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
}

// Read implements io.Reader for the oto player. It must never block the
// audio pull goroutine, so an empty FIFO yields silence.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	// Pad the tail with silence so a short FIFO never starves the device.
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// Stop cancels every armed timer, drops buffered audio, and resets the
// player so stale speech never bleeds into the next turn.
func (s *Speaker) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
	s.buf = s.buf[:0]
	player := s.player
	s.player = nil
	s.playing = false
	s.mu.Unlock()

	if player != nil {
		player.Pause()
		_ = player.Close()
	}
}

// Close stops playback and releases the player. The oto context itself has
// no teardown; it lives for the process.
func (s *Speaker) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Stop()
}
