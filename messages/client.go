package messages

import "github.com/bytedance/sonic"

// Message types sent by the pet client
const (
	TypeMicAudioData     = "mic-audio-data"
	TypeMicAudioEnd      = "mic-audio-end"
	TypeTextInput        = "text-input"
	TypeClientInterrupt  = "interrupt-signal"
	TypePlaybackComplete = "frontend-playback-complete"
	TypeAISpeakSignal    = "ai-speak-signal"
)

// ClientMessage is a message from the pet to the backend
type ClientMessage struct {
	Type   string    `json:"type"`
	Audio  []float32 `json:"audio,omitempty"`  // mic-audio-data: normalized samples
	Text   string    `json:"text,omitempty"`   // text-input, interrupt-signal
	Images []string  `json:"images,omitempty"` // text-input: base64 data URLs
}

// NewMicAudioMessage wraps one captured chunk of normalized samples
func NewMicAudioMessage(samples []float32) *ClientMessage {
	return &ClientMessage{Type: TypeMicAudioData, Audio: samples}
}

// NewMicAudioEndMessage marks the end of an utterance
func NewMicAudioEndMessage() *ClientMessage {
	return &ClientMessage{Type: TypeMicAudioEnd}
}

// NewTextInputMessage creates a typed user message
func NewTextInputMessage(text string, images []string) *ClientMessage {
	return &ClientMessage{Type: TypeTextInput, Text: text, Images: images}
}

// NewInterruptMessage interrupts the running conversation. heard is the
// portion of the reply the user had already seen when they interrupted.
func NewInterruptMessage(heard string) *ClientMessage {
	return &ClientMessage{Type: TypeClientInterrupt, Text: heard}
}

// NewPlaybackCompleteMessage reports that all queued clips finished playing
func NewPlaybackCompleteMessage() *ClientMessage {
	return &ClientMessage{Type: TypePlaybackComplete}
}

// NewAISpeakMessage asks the backend to speak proactively
func NewAISpeakMessage() *ClientMessage {
	return &ClientMessage{Type: TypeAISpeakSignal}
}

// DecodeClientMessage parses a raw frame from a pet client
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Encode serializes the message for the wire
func (m *ClientMessage) Encode() ([]byte, error) {
	return sonic.Marshal(m)
}
