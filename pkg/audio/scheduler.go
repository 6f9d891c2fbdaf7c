package audio

import (
	"sync"
	"time"
)

// Clock abstracts the playback clock domain so scheduling is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock used in production.
var SystemClock Clock = systemClock{}

// Sink plays scheduled PCM buffers. PlayAt must not block; done fires once
// the buffer's playback naturally completes.
type Sink interface {
	PlayAt(pcm []byte, start time.Time, done func())
	Stop()
}

// Scheduler serializes irregularly arriving audio chunks into gap-free,
// non-overlapping playback. It keeps a single monotonic cursor: each chunk
// starts no earlier than the previous chunk's end, and never in the past
// relative to the clock.
type Scheduler struct {
	cfg   Config
	clock Clock
	sink  Sink

	mu     sync.Mutex
	cursor time.Time
	active map[int64]struct{}
	nextID int64
}

// NewScheduler builds a scheduler over the given sink. A nil clock selects
// the system clock.
func NewScheduler(cfg Config, sink Sink, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{
		cfg:    cfg,
		clock:  clock,
		sink:   sink,
		active: make(map[int64]struct{}),
	}
}

// Schedule queues one chunk for playback and advances the cursor by its
// duration. Empty chunks are dropped. Returns the chosen start time.
func (s *Scheduler) Schedule(pcm []byte) (time.Time, bool) {
	if s == nil || len(pcm) == 0 {
		return time.Time{}, false
	}
	duration := s.cfg.Duration(len(pcm))
	if duration <= 0 {
		return time.Time{}, false
	}

	s.mu.Lock()
	start := s.cursor
	if now := s.clock.Now(); now.After(start) {
		start = now
	}
	s.cursor = start.Add(duration)

	s.nextID++
	id := s.nextID
	s.active[id] = struct{}{}
	s.mu.Unlock()

	s.sink.PlayAt(pcm, start, func() {
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	})
	return start, true
}

// ActiveCount reports how many scheduled buffers have not finished playing.
func (s *Scheduler) ActiveCount() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Flush cancels all pending playback and resets the cursor. Used on
// disconnect and when the service reports a barge-in interruption.
func (s *Scheduler) Flush() {
	if s == nil {
		return
	}
	s.sink.Stop()
	s.mu.Lock()
	s.cursor = time.Time{}
	s.active = make(map[int64]struct{})
	s.mu.Unlock()
}
