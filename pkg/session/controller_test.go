package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/atlasvoice/atlas/pkg/audio"
	"github.com/atlasvoice/atlas/pkg/live"
)

type fakeTransport struct {
	events chan live.Event

	mu            sync.Mutex
	audioFrames   int
	texts         []string
	toolResponses []toolResponse
	sendTextErr   error
	terminalErr   error
	closes        int

	closeOnce sync.Once
}

type toolResponse struct {
	ID       string
	Name     string
	Response map[string]any
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan live.Event, 64)}
}

func (f *fakeTransport) Events() <-chan live.Event { return f.events }

func (f *fakeTransport) SendAudioFrame(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioFrames++
	return nil
}

func (f *fakeTransport) SendText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.sendTextErr
}

func (f *fakeTransport) SendToolResponse(id, name string, response map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toolResponses = append(f.toolResponses, toolResponse{ID: id, Name: name, Response: response})
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

func (f *fakeTransport) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminalErr
}

// fail ends the event stream as an abnormal disconnect would.
func (f *fakeTransport) fail(err error) {
	f.mu.Lock()
	f.terminalErr = err
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.events) })
}

type fakeCapture struct {
	mu     sync.Mutex
	closes int
}

func (f *fakeCapture) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeCapture) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

type fakePlayer struct {
	mu        sync.Mutex
	scheduled [][]byte
	flushes   int
	closes    int
}

func (f *fakePlayer) Schedule(pcm []byte) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, append([]byte(nil), pcm...))
	return time.Now(), true
}

func (f *fakePlayer) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakePlayer) flushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

func (f *fakePlayer) scheduledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

type harness struct {
	ctrl      *Controller
	transport *fakeTransport
	capture   *fakeCapture
	player    *fakePlayer
	frameFn   audio.FrameFunc
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	h := &harness{
		transport: newFakeTransport(),
		capture:   &fakeCapture{},
		player:    &fakePlayer{},
	}
	h.ctrl = NewController(cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithDialer(func(ctx context.Context, liveCfg live.Config) (Transport, error) {
			return h.transport, nil
		}),
		WithCaptureOpener(func(audioCfg audio.Config, onFrame audio.FrameFunc) (Capture, error) {
			h.frameFn = onFrame
			return h.capture, nil
		}),
		WithPlayerFactory(func() (Player, func(), error) {
			return h.player, func() {
				h.player.mu.Lock()
				h.player.closes++
				h.player.mu.Unlock()
			}, nil
		}),
	)
	return h
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	if err := h.ctrl.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestConnectRejectsMissingKey(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{})
	err := h.ctrl.Connect(context.Background())
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if !IsType(err, ErrConfiguration) {
		t.Fatalf("error=%v, want configuration error", err)
	}
	if got := h.ctrl.State(); got != StateDisconnected {
		t.Fatalf("state=%v, want DISCONNECTED", got)
	}
}

func TestConnectWhileActiveIsRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	err := h.ctrl.Connect(context.Background())
	if err == nil {
		t.Fatalf("expected already connected error")
	}
	if !IsType(err, ErrAlreadyConnected) {
		t.Fatalf("error=%v, want already connected error", err)
	}
	if got := h.ctrl.State(); got != StateConnected {
		t.Fatalf("state=%v, live session must survive the rejected attempt", got)
	}
}

func TestConnectCaptureFailureMapsToPermissionError(t *testing.T) {
	t.Parallel()

	ctrl := NewController(Config{APIKey: "test-key"},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCaptureOpener(func(cfg audio.Config, onFrame audio.FrameFunc) (Capture, error) {
			return nil, errors.New("device busy")
		}),
	)

	err := ctrl.Connect(context.Background())
	if err == nil {
		t.Fatalf("expected permission error")
	}
	if !IsType(err, ErrPermission) {
		t.Fatalf("error=%v, want permission error", err)
	}
	if got := ctrl.State(); got != StateDisconnected {
		t.Fatalf("state=%v, want DISCONNECTED", got)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)

	h.ctrl.Disconnect()
	h.ctrl.Disconnect()

	if got := h.capture.closeCount(); got != 1 {
		t.Fatalf("capture closed %d times, want 1", got)
	}
	if got := h.player.flushCount(); got != 1 {
		t.Fatalf("player flushed %d times, want 1", got)
	}
	h.transport.mu.Lock()
	closes := h.transport.closes
	h.transport.mu.Unlock()
	if closes != 1 {
		t.Fatalf("transport closed %d times, want 1", closes)
	}
	if got := h.ctrl.State(); got != StateDisconnected {
		t.Fatalf("state=%v, want DISCONNECTED", got)
	}
	if got := h.ctrl.Level(); got != 0 {
		t.Fatalf("level=%v after disconnect, want 0", got)
	}
}

func TestTurnCompleteFlushesUserThenModel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	h.transport.events <- live.InputTranscriptionEvent{Text: "每周"}
	h.transport.events <- live.InputTranscriptionEvent{Text: "都要整理报表"}
	h.transport.events <- live.OutputTranscriptionEvent{Text: "听起来"}
	h.transport.events <- live.OutputTranscriptionEvent{Text: "很繁琐"}
	h.transport.events <- live.TurnCompleteEvent{}

	waitFor(t, "turn flush", func() bool { return len(h.ctrl.Messages()) == 2 })

	messages := h.ctrl.Messages()
	if messages[0].Role != RoleUser || messages[0].Text != "每周都要整理报表" {
		t.Fatalf("messages[0]=%+v", messages[0])
	}
	if messages[1].Role != RoleModel || messages[1].Text != "听起来很繁琐" {
		t.Fatalf("messages[1]=%+v", messages[1])
	}
	if messages[0].ID == messages[1].ID || messages[0].ID == "" {
		t.Fatalf("message ids not unique: %q %q", messages[0].ID, messages[1].ID)
	}

	// Accumulators were reset; an empty turn adds nothing.
	h.transport.events <- live.TurnCompleteEvent{}
	time.Sleep(50 * time.Millisecond)
	if got := len(h.ctrl.Messages()); got != 2 {
		t.Fatalf("messages=%d after empty turn, want 2", got)
	}
}

func TestWhitespaceOnlyTurnIsDropped(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	h.transport.events <- live.InputTranscriptionEvent{Text: "  \n"}
	h.transport.events <- live.OutputTranscriptionEvent{Text: "有内容"}
	h.transport.events <- live.TurnCompleteEvent{}

	waitFor(t, "model message", func() bool { return len(h.ctrl.Messages()) == 1 })
	if got := h.ctrl.Messages()[0]; got.Role != RoleModel {
		t.Fatalf("messages[0]=%+v, want model only", got)
	}
}

func TestToolCallRecordsCandidateAndAcknowledges(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	args := json.RawMessage(`{"title": "自动生成周报", "description": "手动汇总数据", "frequency": "每周"}`)
	h.transport.events <- live.ToolCallEvent{ID: "call-42", Name: ToolReportCandidate, Args: args}

	waitFor(t, "candidate", func() bool { return len(h.ctrl.Candidates()) == 1 })

	candidate := h.ctrl.Candidates()[0]
	if candidate.Title != "自动生成周报" {
		t.Fatalf("candidate=%+v", candidate)
	}
	if candidate.EstimatedTimeSaved != TimeSavedUnknown {
		t.Fatalf("EstimatedTimeSaved=%q, want %q", candidate.EstimatedTimeSaved, TimeSavedUnknown)
	}
	if candidate.Complexity != ComplexityMedium {
		t.Fatalf("Complexity=%q, want Medium fallback", candidate.Complexity)
	}
	if candidate.Steps == nil || len(candidate.Steps) != 0 {
		t.Fatalf("Steps=%#v, want empty non-nil slice", candidate.Steps)
	}
	if candidate.ID == "" {
		t.Fatalf("candidate id must be assigned")
	}

	waitFor(t, "tool response", func() bool {
		h.transport.mu.Lock()
		defer h.transport.mu.Unlock()
		return len(h.transport.toolResponses) == 1
	})
	h.transport.mu.Lock()
	resp := h.transport.toolResponses[0]
	h.transport.mu.Unlock()
	if resp.ID != "call-42" || resp.Name != ToolReportCandidate {
		t.Fatalf("tool response=%+v", resp)
	}
	if resp.Response["result"] != "Success: Candidate logged in dashboard." {
		t.Fatalf("tool response payload=%+v", resp.Response)
	}
}

func TestUnknownToolCallIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	h.transport.events <- live.ToolCallEvent{ID: "call-1", Name: "someOtherTool", Args: json.RawMessage(`{}`)}
	time.Sleep(50 * time.Millisecond)

	if got := len(h.ctrl.Candidates()); got != 0 {
		t.Fatalf("candidates=%d, want 0", got)
	}
	h.transport.mu.Lock()
	responses := len(h.transport.toolResponses)
	h.transport.mu.Unlock()
	if responses != 0 {
		t.Fatalf("tool responses=%d, want 0", responses)
	}
}

func TestSendTextAppendsOptimistically(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	h.transport.mu.Lock()
	h.transport.sendTextErr = errors.New("broken pipe")
	h.transport.mu.Unlock()

	err := h.ctrl.SendText("你好")
	if !IsType(err, ErrTransport) {
		t.Fatalf("error=%v, want transport error", err)
	}

	messages := h.ctrl.Messages()
	if len(messages) != 1 || messages[0].Role != RoleUser || messages[0].Text != "你好" {
		t.Fatalf("messages=%+v, want optimistic user entry", messages)
	}
}

func TestSendTextWithoutSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	err := h.ctrl.SendText("你好")
	if !IsType(err, ErrNotConnected) {
		t.Fatalf("error=%v, want not connected error", err)
	}
	if got := len(h.ctrl.Messages()); got != 0 {
		t.Fatalf("messages=%d, want 0", got)
	}
}

func TestAudioChunksGoToPlayer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	h.transport.events <- live.AudioChunkEvent{Data: []byte{1, 2, 3, 4}}
	h.transport.events <- live.AudioChunkEvent{Data: []byte{5, 6}}

	waitFor(t, "scheduled chunks", func() bool { return h.player.scheduledCount() == 2 })
}

func TestInterruptedFlushesPlayback(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)
	defer h.ctrl.Disconnect()

	h.transport.events <- live.AudioChunkEvent{Data: []byte{1, 2}}
	h.transport.events <- live.InterruptedEvent{}

	waitFor(t, "playback flush", func() bool { return h.player.flushCount() == 1 })
}

func TestCaptureFramesForwardedOnlyWhileConnected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)

	frame := make([]byte, 64)
	h.frameFn(frame)
	h.transport.mu.Lock()
	forwarded := h.transport.audioFrames
	h.transport.mu.Unlock()
	if forwarded != 1 {
		t.Fatalf("frames forwarded=%d, want 1", forwarded)
	}

	h.ctrl.Disconnect()
	h.frameFn(frame)
	h.transport.mu.Lock()
	forwarded = h.transport.audioFrames
	h.transport.mu.Unlock()
	if forwarded != 1 {
		t.Fatalf("frames forwarded=%d after disconnect, want 1", forwarded)
	}
}

func TestTransportFailureTearsDown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)

	h.transport.fail(errors.New("connection reset"))

	waitFor(t, "teardown", func() bool { return h.ctrl.State() == StateDisconnected })
	if got := h.capture.closeCount(); got != 1 {
		t.Fatalf("capture closed %d times, want 1", got)
	}
}

func TestRemoteCloseTearsDown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, Config{APIKey: "test-key"})
	h.connect(t)

	// Normal remote close: stream ends with no terminal error.
	h.transport.closeOnce.Do(func() { close(h.transport.events) })

	waitFor(t, "teardown", func() bool { return h.ctrl.State() == StateDisconnected })
	if got := h.capture.closeCount(); got != 1 {
		t.Fatalf("capture closed %d times, want 1", got)
	}
}
