// Package session owns the lifecycle of one live voice conversation: the
// connect/disconnect state machine, the capture and playback pipelines, and
// the routing of transcription and tool-call events into the message log and
// candidate collection.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atlasvoice/atlas/pkg/audio"
	"github.com/atlasvoice/atlas/pkg/live"
	"github.com/atlasvoice/atlas/pkg/live/protocol"
)

// Transport is the slice of a live connection the controller drives.
// *live.Session satisfies it.
type Transport interface {
	Events() <-chan live.Event
	SendAudioFrame(pcm []byte) error
	SendText(text string) error
	SendToolResponse(id, name string, response map[string]any) error
	Close() error
	Err() error
}

// Dialer opens a live transport.
type Dialer func(ctx context.Context, cfg live.Config) (Transport, error)

// Capture is an open microphone delivering frames to a callback.
type Capture interface {
	Close()
}

// CaptureOpener opens a capture device.
type CaptureOpener func(cfg audio.Config, onFrame audio.FrameFunc) (Capture, error)

// Player schedules synthesized audio for playback. *audio.Scheduler
// satisfies it.
type Player interface {
	Schedule(pcm []byte) (time.Time, bool)
	Flush()
}

// PlayerFactory builds the playback pipeline for one session and returns its
// teardown func.
type PlayerFactory func() (Player, func(), error)

// Config holds the static configuration of a controller.
type Config struct {
	// APIKey is the service credential. Connect fails closed without it.
	APIKey string
	// Model, Voice and SystemInstruction default to the Atlas persona.
	Model             string
	Voice             string
	SystemInstruction string
	// ConnectTimeout bounds the dial plus setup handshake.
	ConnectTimeout time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithDialer replaces the live transport dialer (tests).
func WithDialer(d Dialer) Option {
	return func(c *Controller) { c.dial = d }
}

// WithCaptureOpener replaces the microphone opener (tests).
func WithCaptureOpener(o CaptureOpener) Option {
	return func(c *Controller) { c.openCapture = o }
}

// WithPlayerFactory replaces the playback pipeline factory (tests).
func WithPlayerFactory(f PlayerFactory) Option {
	return func(c *Controller) { c.newPlayer = f }
}

// WithNowFunc replaces the timestamp source (tests).
func WithNowFunc(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller is the session state machine. All shared state is guarded by
// one mutex; inbound events mutate it only through the run loop, which
// consumes the transport's ordered event channel.
type Controller struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	dial        Dialer
	openCapture CaptureOpener
	newPlayer   PlayerFactory

	notes chan Note

	mu          sync.Mutex
	state       State
	transport   Transport
	capture     Capture
	player      Player
	playerClose func()
	level       float64

	messages   []Message
	candidates []AutomationCandidate
	inputTurn  strings.Builder
	outputTurn strings.Builder
}

// NewController builds a controller in the Disconnected state.
func NewController(cfg Config, opts ...Option) *Controller {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Voice) == "" {
		cfg.Voice = DefaultVoice
	}
	if strings.TrimSpace(cfg.SystemInstruction) == "" {
		cfg.SystemInstruction = DefaultSystemInstruction
	}

	c := &Controller{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		notes:  make(chan Note, 64),
	}
	c.dial = func(ctx context.Context, liveCfg live.Config) (Transport, error) {
		return live.Connect(ctx, liveCfg)
	}
	c.openCapture = func(audioCfg audio.Config, onFrame audio.FrameFunc) (Capture, error) {
		return audio.OpenCapture(audioCfg, onFrame)
	}
	c.newPlayer = func() (Player, func(), error) {
		speaker, err := audio.OpenSpeaker(audio.PlaybackConfig())
		if err != nil {
			return nil, nil, err
		}
		scheduler := audio.NewScheduler(audio.PlaybackConfig(), speaker, nil)
		return scheduler, speaker.Close, nil
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notes yields UI change notifications.
func (c *Controller) Notes() <-chan Note { return c.notes }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Level returns the latest microphone signal level in [0, 1].
func (c *Controller) Level() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Messages returns a snapshot of the conversation log.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Candidates returns a snapshot of the recorded automation candidates.
func (c *Controller) Candidates() []AutomationCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]AutomationCandidate(nil), c.candidates...)
}

// Connect opens the capture device, the playback pipeline, and the live
// connection, in that order. At most one session is ever live: a second
// Connect while one is active is rejected.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return NewAlreadyConnectedError("a session is already active")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		c.mu.Unlock()
		err := NewConfigurationError("missing API key (set GEMINI_API_KEY)")
		c.publish(ErrorNote{Err: err})
		return err
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	capture, err := c.openCapture(audio.CaptureConfig(), c.onCaptureFrame)
	if err != nil {
		perr := NewPermissionError("open microphone", err)
		c.failConnect(perr)
		return perr
	}

	player, closePlayer, err := c.newPlayer()
	if err != nil {
		capture.Close()
		perr := NewPermissionError("open speaker", err)
		c.failConnect(perr)
		return perr
	}

	transport, err := c.dial(ctx, live.Config{
		APIKey:            c.cfg.APIKey,
		Model:             c.cfg.Model,
		Voice:             c.cfg.Voice,
		SystemInstruction: c.cfg.SystemInstruction,
		Tools:             []protocol.FunctionDeclaration{ReportCandidateDeclaration()},
		Transcribe:        true,
		ConnectTimeout:    c.cfg.ConnectTimeout,
	})
	if err != nil {
		capture.Close()
		closePlayer()
		terr := NewTransportError("connect live session", err)
		c.failConnect(terr)
		return terr
	}

	c.mu.Lock()
	c.capture = capture
	c.player = player
	c.playerClose = closePlayer
	c.transport = transport
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	go c.runLoop(transport)
	c.logger.Info("session connected", "model", c.cfg.Model)
	return nil
}

// failConnect surfaces the error and walks Error back to Disconnected.
func (c *Controller) failConnect(err error) {
	c.logger.Error("connect failed", "error", err)
	c.publish(ErrorNote{Err: err})
	c.setState(StateError)
	c.setState(StateDisconnected)
}

// Disconnect tears the session down: frame processor, capture device,
// playback pipeline, then the remote connection. Idempotent and safe from
// any state; teardown continues past individual failures.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	capture := c.capture
	player := c.player
	closePlayer := c.playerClose
	transport := c.transport
	c.capture = nil
	c.player = nil
	c.playerClose = nil
	c.transport = nil
	c.level = 0
	changed := c.state != StateDisconnected
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if capture != nil {
		capture.Close()
	}
	if player != nil {
		player.Flush()
	}
	if closePlayer != nil {
		closePlayer()
	}
	if transport != nil {
		_ = transport.Close()
	}
	c.publish(LevelNote{Level: 0})
	if changed {
		c.logger.Info("session disconnected")
	}
}

// SendText appends an optimistic user message and transmits the text as a
// user turn. The local append happens regardless of transmit outcome.
func (c *Controller) SendText(text string) error {
	c.mu.Lock()
	transport := c.transport
	if transport == nil || c.state != StateConnected {
		c.mu.Unlock()
		return NewNotConnectedError("no live session")
	}
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: c.now(),
	})
	c.mu.Unlock()
	c.publish(TranscriptNote{})

	if err := transport.SendText(text); err != nil {
		return NewTransportError("send text", err)
	}
	return nil
}

// onCaptureFrame runs on the capture device's audio thread for every frame.
// Frames arriving while no session is live are dropped.
func (c *Controller) onCaptureFrame(pcm []byte) {
	level := audio.SignalLevel(pcm)

	c.mu.Lock()
	c.level = level
	transport := c.transport
	connected := c.state == StateConnected
	c.mu.Unlock()

	c.publish(LevelNote{Level: level})
	if !connected || transport == nil {
		return
	}
	// Fire and forget: the transport buffers internally and a dropped frame
	// only costs a small audio gap.
	_ = transport.SendAudioFrame(pcm)
}

// runLoop consumes the transport's ordered event stream until it closes.
func (c *Controller) runLoop(t Transport) {
	for event := range t.Events() {
		c.handleEvent(t, event)
	}

	err := t.Err()
	c.mu.Lock()
	owned := c.transport == t
	c.mu.Unlock()
	if !owned {
		// Teardown already ran; late completion is absorbed.
		return
	}
	if err != nil {
		terr := NewTransportError("live session failed", err)
		c.logger.Error("session error", "error", err)
		c.publish(ErrorNote{Err: terr})
		c.setState(StateError)
	}
	c.Disconnect()
}

// handleEvent routes one inbound event. Events belonging to a transport the
// controller no longer owns are dropped without touching session state.
func (c *Controller) handleEvent(t Transport, event live.Event) {
	c.mu.Lock()
	if c.transport != t {
		c.mu.Unlock()
		return
	}

	switch e := event.(type) {
	case live.InputTranscriptionEvent:
		c.inputTurn.WriteString(e.Text)
		c.mu.Unlock()

	case live.OutputTranscriptionEvent:
		c.outputTurn.WriteString(e.Text)
		c.mu.Unlock()

	case live.TurnCompleteEvent:
		flushed := c.flushTurnLocked()
		c.mu.Unlock()
		if flushed {
			c.publish(TranscriptNote{})
		}

	case live.AudioChunkEvent:
		player := c.player
		c.mu.Unlock()
		if player != nil {
			player.Schedule(e.Data)
		}

	case live.InterruptedEvent:
		player := c.player
		c.mu.Unlock()
		// Barge-in: whatever is queued is stale now.
		if player != nil {
			player.Flush()
		}

	case live.ToolCallEvent:
		c.mu.Unlock()
		c.handleToolCall(t, e)

	case live.GoAwayEvent:
		c.mu.Unlock()
		c.logger.Warn("server requested close", "time_left", e.TimeLeft)

	default:
		c.mu.Unlock()
	}
}

// flushTurnLocked converts non-empty turn accumulators into messages, user
// first, and resets both.
func (c *Controller) flushTurnLocked() bool {
	userText := c.inputTurn.String()
	modelText := c.outputTurn.String()
	c.inputTurn.Reset()
	c.outputTurn.Reset()

	flushed := false
	if strings.TrimSpace(userText) != "" {
		c.messages = append(c.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleUser,
			Text:      userText,
			Timestamp: c.now(),
		})
		flushed = true
	}
	if strings.TrimSpace(modelText) != "" {
		c.messages = append(c.messages, Message{
			ID:        uuid.NewString(),
			Role:      RoleModel,
			Text:      modelText,
			Timestamp: c.now(),
		})
		flushed = true
	}
	return flushed
}

func (c *Controller) handleToolCall(t Transport, call live.ToolCallEvent) {
	if call.Name != ToolReportCandidate {
		c.logger.Warn("ignoring unknown tool call", "tool", call.Name)
		return
	}
	candidate, err := parseCandidate(call.Args)
	if err != nil {
		c.logger.Error("bad tool call arguments", "tool", call.Name, "error", err)
		return
	}

	c.mu.Lock()
	if c.transport != t {
		c.mu.Unlock()
		return
	}
	c.candidates = append(c.candidates, candidate)
	c.mu.Unlock()

	c.publish(CandidateNote{Candidate: candidate})
	if err := t.SendToolResponse(call.ID, call.Name, toolResultOK); err != nil {
		c.logger.Error("send tool response", "error", err)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.setStateLocked(s)
	c.mu.Unlock()
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.publish(StateNote{State: s})
}

// publish delivers a note without ever blocking a pipeline goroutine.
func (c *Controller) publish(n Note) {
	select {
	case c.notes <- n:
	default:
	}
}
