package live

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestDecodeServerFrame_OrderWithinFrame(t *testing.T) {
	t.Parallel()

	audio := base64.StdEncoding.EncodeToString([]byte{0x01, 0x00, 0x02, 0x00})
	frame := `{
		"serverContent": {
			"modelTurn": {"parts": [{"inlineData": {"mimeType": "audio/pcm;rate=24000", "data": "` + audio + `"}}]},
			"inputTranscription": {"text": "你好"},
			"outputTranscription": {"text": "早上好"},
			"turnComplete": true
		}
	}`

	events, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decodeServerFrame error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	in, ok := events[0].(InputTranscriptionEvent)
	if !ok || in.Text != "你好" {
		t.Fatalf("events[0]=%#v, want input transcription", events[0])
	}
	out, ok := events[1].(OutputTranscriptionEvent)
	if !ok || out.Text != "早上好" {
		t.Fatalf("events[1]=%#v, want output transcription", events[1])
	}
	chunk, ok := events[2].(AudioChunkEvent)
	if !ok {
		t.Fatalf("events[2]=%#v, want audio chunk", events[2])
	}
	if len(chunk.Data) != 4 {
		t.Fatalf("chunk is %d bytes, want 4", len(chunk.Data))
	}
	if _, ok := events[3].(TurnCompleteEvent); !ok {
		t.Fatalf("events[3]=%#v, want turn complete", events[3])
	}
}

func TestDecodeServerFrame_InterruptedBeforeTurnComplete(t *testing.T) {
	t.Parallel()

	frame := `{"serverContent": {"interrupted": true, "turnComplete": true}}`
	events, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decodeServerFrame error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if _, ok := events[0].(InterruptedEvent); !ok {
		t.Fatalf("events[0]=%#v, want interrupted", events[0])
	}
	if _, ok := events[1].(TurnCompleteEvent); !ok {
		t.Fatalf("events[1]=%#v, want turn complete", events[1])
	}
}

func TestDecodeServerFrame_ToolCalls(t *testing.T) {
	t.Parallel()

	frame := `{"toolCall": {"functionCalls": [
		{"id": "call-1", "name": "reportAutomationCandidate", "args": {"title": "报表汇总"}},
		{"id": "call-2", "name": "other", "args": {}}
	]}}`
	events, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decodeServerFrame error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	call, ok := events[0].(ToolCallEvent)
	if !ok {
		t.Fatalf("events[0]=%#v, want tool call", events[0])
	}
	if call.ID != "call-1" || call.Name != "reportAutomationCandidate" {
		t.Fatalf("call=%+v", call)
	}
	var args map[string]any
	if err := json.Unmarshal(call.Args, &args); err != nil {
		t.Fatalf("unmarshal args: %v", err)
	}
	if args["title"] != "报表汇总" {
		t.Fatalf("args=%v", args)
	}
}

func TestDecodeServerFrame_CorruptAudioDoesNotFail(t *testing.T) {
	t.Parallel()

	frame := `{"serverContent": {"modelTurn": {"parts": [{"inlineData": {"mimeType": "audio/pcm;rate=24000", "data": "%%%not-base64%%%"}}]}}}`
	events, err := decodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decodeServerFrame error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if _, ok := events[0].(UnknownEvent); !ok {
		t.Fatalf("events[0]=%#v, want unknown event", events[0])
	}
}

func TestDecodeServerFrame_UnmodeledFrame(t *testing.T) {
	t.Parallel()

	events, err := decodeServerFrame([]byte(`{"usageMetadata": {"totalTokenCount": 10}}`))
	if err != nil {
		t.Fatalf("decodeServerFrame error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if _, ok := events[0].(UnknownEvent); !ok {
		t.Fatalf("events[0]=%#v, want unknown event", events[0])
	}
}

func TestDecodeServerFrame_InvalidJSON(t *testing.T) {
	t.Parallel()

	if _, err := decodeServerFrame([]byte(`{not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
