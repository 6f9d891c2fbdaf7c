// Package live implements the client side of the Gemini Live websocket
// protocol: session setup, the typed server event stream, and realtime
// audio/text/tool-response writers.
package live

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atlasvoice/atlas/pkg/live/protocol"
)

const (
	defaultHost    = "generativelanguage.googleapis.com"
	connectPath    = "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	defaultTimeout = 15 * time.Second

	eventBuffer = 256
)

// Config describes one session to open.
type Config struct {
	// APIKey authenticates the connection. Required.
	APIKey string
	// Model is the fully qualified model name, e.g. "models/gemini-...".
	Model string
	// Voice selects the prebuilt synthesis voice.
	Voice string
	// SystemInstruction is the session system prompt.
	SystemInstruction string
	// Tools are the function declarations exposed to the model.
	Tools []protocol.FunctionDeclaration
	// Transcribe enables input and output audio transcription.
	Transcribe bool

	// Host overrides the service host (tests).
	Host string
	// Insecure dials ws:// instead of wss:// (tests).
	Insecure bool
	// ConnectTimeout bounds dial plus setup handshake. Defaults to 15s.
	ConnectTimeout time.Duration
}

// Session is one open live connection. Events are delivered in arrival order
// on a single buffered channel; writers are safe for concurrent use.
type Session struct {
	conn *websocket.Conn

	events chan Event
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// Connect dials the live endpoint, sends the setup frame, and waits for the
// setup acknowledgment before returning an open session.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("live: api key must not be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("live: model must not be empty")
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, endpointURL(cfg), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("live: dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("live: dial failed: %w", err)
	}

	if err := conn.WriteJSON(protocol.ClientMessage{Setup: setupFrame(cfg)}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("live: send setup: %w", err)
	}

	// The first server frame must acknowledge setup.
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("live: read setup ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	events, err := decodeServerFrame(payload)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("live: decode setup ack: %w", err)
	}
	if len(events) == 0 {
		_ = conn.Close()
		return nil, fmt.Errorf("live: empty setup ack frame")
	}
	if _, ok := events[0].(SetupCompleteEvent); !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("live: unexpected first frame %q", events[0].eventType())
	}

	s := &Session{
		conn:   conn,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func endpointURL(cfg Config) string {
	scheme := "wss"
	if cfg.Insecure {
		scheme = "ws"
	}
	host := cfg.Host
	if strings.TrimSpace(host) == "" {
		host = defaultHost
	}
	u := url.URL{Scheme: scheme, Host: host, Path: connectPath}
	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func setupFrame(cfg Config) *protocol.Setup {
	setup := &protocol.Setup{
		Model: cfg.Model,
		GenerationConfig: &protocol.GenerationConfig{
			ResponseModalities: []string{protocol.ModalityAudio},
		},
	}
	if voice := strings.TrimSpace(cfg.Voice); voice != "" {
		setup.GenerationConfig.SpeechConfig = &protocol.SpeechConfig{
			VoiceConfig: &protocol.VoiceConfig{
				PrebuiltVoiceConfig: &protocol.PrebuiltVoiceConfig{VoiceName: voice},
			},
		}
	}
	if sys := strings.TrimSpace(cfg.SystemInstruction); sys != "" {
		setup.SystemInstruction = &protocol.Content{Parts: []protocol.Part{{Text: sys}}}
	}
	if len(cfg.Tools) > 0 {
		setup.Tools = []protocol.Tool{{FunctionDeclarations: cfg.Tools}}
	}
	if cfg.Transcribe {
		setup.InputAudioTranscription = &protocol.TranscriptionConfig{}
		setup.OutputAudioTranscription = &protocol.TranscriptionConfig{}
	}
	return setup
}

// Events yields server events in arrival order. The channel closes when the
// connection ends.
func (s *Session) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.events
}

// SendAudioFrame ships one PCM frame as a realtime media chunk.
func (s *Session) SendAudioFrame(pcm []byte) error {
	if s == nil {
		return fmt.Errorf("live: session must not be nil")
	}
	return s.sendJSON(protocol.ClientMessage{
		RealtimeInput: &protocol.RealtimeInput{
			MediaChunks: []protocol.Blob{{
				MimeType: protocol.MimePCM16k,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			}},
		},
	})
}

// SendText submits a typed user turn.
func (s *Session) SendText(text string) error {
	if s == nil {
		return fmt.Errorf("live: session must not be nil")
	}
	return s.sendJSON(protocol.ClientMessage{
		ClientContent: &protocol.ClientContent{
			Turns:        []protocol.Content{{Role: "user", Parts: []protocol.Part{{Text: text}}}},
			TurnComplete: true,
		},
	})
}

// SendToolResponse acknowledges one tool call so the model can continue.
func (s *Session) SendToolResponse(id, name string, response map[string]any) error {
	if s == nil {
		return fmt.Errorf("live: session must not be nil")
	}
	return s.sendJSON(protocol.ClientMessage{
		ToolResponse: &protocol.ToolResponse{
			FunctionResponses: []protocol.FunctionResponse{{
				ID:       strings.TrimSpace(id),
				Name:     name,
				Response: response,
			}},
		},
	})
}

func (s *Session) sendJSON(v any) error {
	if s.closed.Load() {
		return fmt.Errorf("live: session is closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Close sends a close frame and tears down the connection. Safe to call more
// than once; blocks until the read loop drains.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err reports the terminal read error, if any, after the session ends.
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || s.closed.Load() {
				return
			}
			s.setErr(err)
			return
		}
		events, err := decodeServerFrame(data)
		if err != nil {
			s.setErr(fmt.Errorf("live: decode server frame: %w", err))
			return
		}
		for _, event := range events {
			s.emit(event)
		}
	}
}

func (s *Session) emit(event Event) {
	if event == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		// Avoid deadlocking the read loop if the consumer stops draining.
	}
}

func decodeAudioBlob(blob *protocol.Blob) ([]byte, error) {
	if blob == nil || blob.Data == "" {
		return nil, fmt.Errorf("live: empty audio blob")
	}
	return base64.StdEncoding.DecodeString(blob.Data)
}
