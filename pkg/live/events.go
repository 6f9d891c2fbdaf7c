package live

import (
	"encoding/json"

	"github.com/atlasvoice/atlas/pkg/live/protocol"
)

// Event is a typed server event emitted by Session.Events().
type Event interface {
	eventType() string
}

// SetupCompleteEvent acknowledges the session setup frame.
type SetupCompleteEvent struct{}

func (e SetupCompleteEvent) eventType() string { return "setup_complete" }

// InputTranscriptionEvent carries a partial transcription of user speech.
type InputTranscriptionEvent struct {
	Text string
}

func (e InputTranscriptionEvent) eventType() string { return "input_transcription" }

// OutputTranscriptionEvent carries a partial transcription of model speech.
type OutputTranscriptionEvent struct {
	Text string
}

func (e OutputTranscriptionEvent) eventType() string { return "output_transcription" }

// AudioChunkEvent carries one decoded chunk of synthesized audio.
type AudioChunkEvent struct {
	Data     []byte
	MimeType string
}

func (e AudioChunkEvent) eventType() string { return "audio_chunk" }

// TurnCompleteEvent marks the end of a conversational turn.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) eventType() string { return "turn_complete" }

// InterruptedEvent signals that the model turn was cut off by user speech;
// clients should flush any scheduled playback immediately.
type InterruptedEvent struct{}

func (e InterruptedEvent) eventType() string { return "interrupted" }

// ToolCallEvent is one tool invocation requested by the model.
type ToolCallEvent struct {
	ID   string
	Name string
	Args json.RawMessage
}

func (e ToolCallEvent) eventType() string { return "tool_call" }

// ToolCancelEvent tells the client to abandon in-flight tool calls.
type ToolCancelEvent struct {
	IDs []string
}

func (e ToolCancelEvent) eventType() string { return "tool_cancel" }

// GoAwayEvent warns that the server will drop the connection soon.
type GoAwayEvent struct {
	TimeLeft string
}

func (e GoAwayEvent) eventType() string { return "go_away" }

// UnknownEvent preserves frames this client does not model.
type UnknownEvent struct {
	Raw json.RawMessage
}

func (e UnknownEvent) eventType() string { return "unknown" }

// decodeServerFrame expands one server frame into zero or more events,
// preserving wire order: transcriptions before audio before completion
// markers, tool calls last.
func decodeServerFrame(data []byte) ([]Event, error) {
	var msg protocol.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	var events []Event
	if msg.SetupComplete != nil {
		events = append(events, SetupCompleteEvent{})
	}
	if sc := msg.ServerContent; sc != nil {
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			events = append(events, InputTranscriptionEvent{Text: sc.InputTranscription.Text})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			events = append(events, OutputTranscriptionEvent{Text: sc.OutputTranscription.Text})
		}
		if blob := sc.InlineAudio(); blob != nil {
			pcm, err := decodeAudioBlob(blob)
			if err != nil {
				// A single corrupt chunk must not kill the session; skip it.
				events = append(events, UnknownEvent{Raw: append(json.RawMessage(nil), data...)})
			} else {
				events = append(events, AudioChunkEvent{Data: pcm, MimeType: blob.MimeType})
			}
		}
		if sc.Interrupted {
			events = append(events, InterruptedEvent{})
		}
		if sc.TurnComplete {
			events = append(events, TurnCompleteEvent{})
		}
	}
	if msg.ToolCall != nil {
		for _, fc := range msg.ToolCall.FunctionCalls {
			events = append(events, ToolCallEvent{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}
	if msg.ToolCallCancellation != nil {
		events = append(events, ToolCancelEvent{IDs: msg.ToolCallCancellation.IDs})
	}
	if msg.GoAway != nil {
		events = append(events, GoAwayEvent{TimeLeft: msg.GoAway.TimeLeft})
	}
	if len(events) == 0 {
		events = append(events, UnknownEvent{Raw: append(json.RawMessage(nil), data...)})
	}
	return events, nil
}
