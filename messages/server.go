package messages

import "github.com/bytedance/sonic"

// Message types sent by the backend
const (
	TypeAudio           = "audio"
	TypeFullText        = "full-text"
	TypeControl         = "control"
	TypeTranscription   = "user-input-transcription"
	TypeSynthComplete   = "backend-synth-complete"
	TypeForceNewMessage = "force-new-message"
	TypeInterruptSignal = "interrupt-signal"
	TypeError           = "error"
	TypeToolCallStatus  = "tool_call_status"
)

// Control signal values carried in the "text" field of control messages
const (
	ControlChainStart = "conversation-chain-start"
	ControlChainEnd   = "conversation-chain-end"
)

// DisplayText is the text shown next to the pet while a clip plays
type DisplayText struct {
	Text   string `json:"text"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Actions carries model expressions attached to a sentence
type Actions struct {
	Expressions []string `json:"expressions,omitempty"`
}

// MergeInfo describes one sentence inside a merged audio group.
// The sentence at index 0 carries the whole clip; the others carry only
// timing so the client can stagger their text reveals.
type MergeInfo struct {
	IsMerged         bool `json:"is_merged"`
	TotalSentences   int  `json:"total_sentences"`
	SentenceIndex    int  `json:"sentence_index"`
	SentenceDuration int  `json:"sentence_duration_ms"`
	DelayBeforeShow  int  `json:"delay_before_show_ms,omitempty"`
	TotalDuration    int  `json:"total_duration_ms"`
}

// ServerMessage is a message from the backend. The protocol is a flat JSON
// object keyed by "type"; unused fields are omitted per type.
type ServerMessage struct {
	Type string `json:"type"`

	// audio
	Audio       string       `json:"audio,omitempty"` // base64 clip, empty for silent payloads
	Volumes     []float64    `json:"volumes,omitempty"`
	SliceLength int          `json:"slice_length,omitempty"`
	DisplayText *DisplayText `json:"display_text,omitempty"`
	Actions     *Actions     `json:"actions,omitempty"`
	Forwarded   bool         `json:"forwarded,omitempty"`
	MergeInfo   *MergeInfo   `json:"merge_info,omitempty"`

	// full-text, control, user-input-transcription, interrupt-signal
	Text string `json:"text,omitempty"`

	// error, tool_call_status
	Message string `json:"message,omitempty"`
	Name    string `json:"name,omitempty"`
	Status  string `json:"status,omitempty"`
}

// IsSilent reports whether this audio message carries no clip of its own.
func (m *ServerMessage) IsSilent() bool {
	return m.Audio == ""
}

// NewAudioMessage creates an audio message carrying a base64 clip
func NewAudioMessage(audio string, volumes []float64, sliceLength int, display *DisplayText, actions *Actions) *ServerMessage {
	return &ServerMessage{
		Type:        TypeAudio,
		Audio:       audio,
		Volumes:     volumes,
		SliceLength: sliceLength,
		DisplayText: display,
		Actions:     actions,
	}
}

// NewSilentMessage creates a display-only audio message (no clip)
func NewSilentMessage(display *DisplayText, actions *Actions) *ServerMessage {
	return &ServerMessage{
		Type:        TypeAudio,
		DisplayText: display,
		Actions:     actions,
	}
}

// NewFullTextMessage creates a full-text update ("Thinking..." etc.)
func NewFullTextMessage(text string) *ServerMessage {
	return &ServerMessage{Type: TypeFullText, Text: text}
}

// NewControlMessage creates a conversation control signal
func NewControlMessage(signal string) *ServerMessage {
	return &ServerMessage{Type: TypeControl, Text: signal}
}

// NewTranscriptionMessage reports the recognized user utterance
func NewTranscriptionMessage(text string) *ServerMessage {
	return &ServerMessage{Type: TypeTranscription, Text: text}
}

// NewSynthCompleteMessage signals that all TTS for the turn has been sent
func NewSynthCompleteMessage() *ServerMessage {
	return &ServerMessage{Type: TypeSynthComplete}
}

// NewForceNewMessage tells the client to start a fresh chat bubble
func NewForceNewMessage() *ServerMessage {
	return &ServerMessage{Type: TypeForceNewMessage}
}

// NewInterruptedMessage confirms a conversation was interrupted
func NewInterruptedMessage() *ServerMessage {
	return &ServerMessage{Type: TypeInterruptSignal, Text: "conversation-interrupted"}
}

// NewToolStatusMessage reports a tool call's progress
func NewToolStatusMessage(name, status string) *ServerMessage {
	return &ServerMessage{Type: TypeToolCallStatus, Name: name, Status: status}
}

// NewErrorMessage creates an error message
func NewErrorMessage(message string) *ServerMessage {
	return &ServerMessage{Type: TypeError, Message: message}
}

// DecodeServerMessage parses a raw frame from the backend
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Encode serializes the message for the wire
func (m *ServerMessage) Encode() ([]byte, error) {
	return sonic.Marshal(m)
}
