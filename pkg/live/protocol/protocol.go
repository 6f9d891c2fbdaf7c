// Package protocol defines the wire frames exchanged with the Gemini Live
// (BidiGenerateContent) websocket endpoint. Field names and shapes are
// dictated by the service; this package only models the subset the client
// sends and consumes.
package protocol

import "encoding/json"

const (
	// MimePCM16k is the mime type for outbound microphone audio.
	MimePCM16k = "audio/pcm;rate=16000"
	// MimePCM24k is the mime type the service uses for synthesized audio.
	MimePCM24k = "audio/pcm;rate=24000"

	ModalityAudio = "AUDIO"
	ModalityText  = "TEXT"
)

// Schema type names used by function declarations.
const (
	TypeObject = "OBJECT"
	TypeString = "STRING"
	TypeArray  = "ARRAY"
)

// Blob carries base64-encoded media inside a JSON frame.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one piece of content in a turn: text or inline media.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is a role-tagged sequence of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Schema is the declaration-side JSON schema dialect the service expects.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionDeclaration describes one callable tool exposed to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool wraps function declarations inside the setup frame.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// PrebuiltVoiceConfig selects a named synthesis voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// VoiceConfig nests the prebuilt voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// SpeechConfig configures audio synthesis for the session.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// GenerationConfig carries the response modality and speech settings.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// TranscriptionConfig toggles server-side transcription. The empty object
// enables it; absence disables it.
type TranscriptionConfig struct{}

// Setup is the first client frame on a new connection.
type Setup struct {
	Model                    string               `json:"model"`
	GenerationConfig         *GenerationConfig    `json:"generationConfig,omitempty"`
	SystemInstruction        *Content             `json:"systemInstruction,omitempty"`
	Tools                    []Tool               `json:"tools,omitempty"`
	InputAudioTranscription  *TranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *TranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// RealtimeInput streams media chunks into the open session.
type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks,omitempty"`
}

// ClientContent sends non-realtime content (typed text) into the session.
type ClientContent struct {
	Turns        []Content `json:"turns,omitempty"`
	TurnComplete bool      `json:"turnComplete,omitempty"`
}

// FunctionResponse acknowledges one tool call by id.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ToolResponse carries tool call acknowledgments back to the service.
type ToolResponse struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

// ClientMessage is the envelope for every client frame. Exactly one field is
// set per frame.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
	ClientContent *ClientContent `json:"clientContent,omitempty"`
	ToolResponse  *ToolResponse  `json:"toolResponse,omitempty"`
}

// Transcription is a partial transcription fragment for one direction.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// ModelTurn holds the parts of an in-progress model turn.
type ModelTurn struct {
	Parts []Part `json:"parts,omitempty"`
}

// ServerContent is the streaming content payload of a server frame.
type ServerContent struct {
	ModelTurn           *ModelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// FunctionCall is one tool invocation requested by the model.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolCall batches tool invocations in a single server frame.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

// ToolCallCancellation tells the client to abandon in-flight tool calls.
type ToolCallCancellation struct {
	IDs []string `json:"ids,omitempty"`
}

// GoAway warns that the server will close the connection soon.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// SetupComplete acknowledges the setup frame.
type SetupComplete struct{}

// ServerMessage is the envelope for every server frame. At most one payload
// field is set per frame.
type ServerMessage struct {
	SetupComplete        *SetupComplete        `json:"setupComplete,omitempty"`
	ServerContent        *ServerContent        `json:"serverContent,omitempty"`
	ToolCall             *ToolCall             `json:"toolCall,omitempty"`
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation,omitempty"`
	GoAway               *GoAway               `json:"goAway,omitempty"`
}

// InlineAudio returns the first inline audio payload of a model turn, or nil.
func (c *ServerContent) InlineAudio() *Blob {
	if c == nil || c.ModelTurn == nil {
		return nil
	}
	for i := range c.ModelTurn.Parts {
		if d := c.ModelTurn.Parts[i].InlineData; d != nil && d.Data != "" {
			return d
		}
	}
	return nil
}
