package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deskpet-app/deskpet/brain"
	"github.com/deskpet-app/deskpet/config"
	"github.com/deskpet-app/deskpet/messages"
	"github.com/deskpet-app/deskpet/sentence"
)

const (
	writeBufferSize = 256
	writeTimeout    = 10 * time.Second

	// how long to wait for frontend-playback-complete before forcing the
	// turn closed anyway
	playbackWait = 60 * time.Second

	aiSpeakPrompt = "(say something to the user unprompted: a light observation or a question about their day)"
)

// PetSession represents a single connected pet client. It owns the socket,
// the mic buffer and the per-turn pipeline: brain stream -> sentence divider
// -> filters -> synthesis -> merged payloads.
type PetSession struct {
	ID           string
	Conn         *websocket.Conn
	Brain        brain.Brain
	MicBuffer    *MicBuffer
	CreatedAt    time.Time
	LastActivity time.Time

	cfg   *config.Config
	synth Synthesizer

	// Use channels for non-blocking writes
	writeChan chan *messages.ServerMessage

	mu        sync.RWMutex
	closed    bool
	CloseChan chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc

	turnMu       sync.Mutex
	turnCancel   context.CancelFunc
	playbackDone chan struct{}
}

// NewPetSession creates a session with its own brain conversation
func NewPetSession(ctx context.Context, id string, conn *websocket.Conn, br brain.Brain, cfg *config.Config) *PetSession {
	sessionCtx, cancel := context.WithCancel(ctx)

	conn.SetReadLimit(int64(cfg.MaxBufferSize))
	conn.EnableWriteCompression(true)
	conn.SetCompressionLevel(6)

	return &PetSession{
		ID:           id,
		Conn:         conn,
		Brain:        br,
		MicBuffer:    NewMicBuffer(cfg.MaxBufferSize / 4), // float32 samples
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		cfg:          cfg,
		synth:        NewToneSynthesizer(cfg.SampleRate),
		writeChan:    make(chan *messages.ServerMessage, writeBufferSize),
		CloseChan:    make(chan struct{}),
		ctx:          sessionCtx,
		cancel:       cancel,
	}
}

// Start begins the bidirectional message handling
func (ps *PetSession) Start() {
	if gb, ok := ps.Brain.(*brain.GeminiBrain); ok {
		gb.OnToolStatus = func(name, status string) {
			ps.queueMessage(messages.NewToolStatusMessage(name, status))
		}
	}
	go ps.writePump()
	go ps.handleClientMessages()
	ps.queueMessage(messages.NewFullTextMessage("Connection established"))
}

// writePump handles all outgoing messages in a single goroutine
func (ps *PetSession) writePump() {
	defer func() {
		ps.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		ps.Conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-ps.CloseChan:
			return
		case msg := <-ps.writeChan:
			if !ps.writeMessage(msg) {
				return
			}

			// drain whatever queued up while we were writing
			n := len(ps.writeChan)
			for i := 0; i < n; i++ {
				select {
				case msg := <-ps.writeChan:
					if !ps.writeMessage(msg) {
						return
					}
				default:
				}
			}
		}
	}
}

func (ps *PetSession) writeMessage(msg *messages.ServerMessage) bool {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("⚠️ [%s] Failed to encode %s message: %v", ps.ID[:8], msg.Type, err)
		return true
	}
	ps.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ps.Conn.WriteMessage(websocket.TextMessage, data) == nil
}

// queueMessage adds a message to the write queue (non-blocking)
func (ps *PetSession) queueMessage(msg *messages.ServerMessage) {
	ps.mu.RLock()
	closed := ps.closed
	ps.mu.RUnlock()
	if closed {
		return
	}
	select {
	case ps.writeChan <- msg:
		ps.mu.Lock()
		ps.LastActivity = time.Now()
		ps.mu.Unlock()
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
	}
}

func (ps *PetSession) handleClientMessages() {
	defer ps.Close()

	for {
		select {
		case <-ps.CloseChan:
			return
		default:
			_, data, err := ps.Conn.ReadMessage()
			if err != nil {
				return
			}

			ps.mu.Lock()
			ps.LastActivity = time.Now()
			ps.mu.Unlock()

			msg, err := messages.DecodeClientMessage(data)
			if err != nil {
				ps.queueMessage(messages.NewErrorMessage("Invalid message format"))
				continue
			}
			ps.processClientMessage(msg)
		}
	}
}

func (ps *PetSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case messages.TypeMicAudioData:
		if err := ps.MicBuffer.Append(msg.Audio); err != nil {
			ps.queueMessage(messages.NewErrorMessage(
				fmt.Sprintf("Mic buffer full (max %d samples)", ps.MicBuffer.MaxSamples())))
		}

	case messages.TypeMicAudioEnd:
		samples := ps.MicBuffer.Flush()
		if len(samples) == 0 {
			log.Printf("⚠️ [%s] mic-audio-end with empty buffer, ignoring", ps.ID[:8])
			return
		}
		transcript := ps.transcribe(samples)
		ps.queueMessage(messages.NewTranscriptionMessage(transcript))
		ps.startTurn(transcript)

	case messages.TypeTextInput:
		if msg.Text == "" {
			return
		}
		ps.startTurn(msg.Text)

	case messages.TypeClientInterrupt:
		ps.interruptTurn(msg.Text)

	case messages.TypePlaybackComplete:
		ps.turnMu.Lock()
		done := ps.playbackDone
		ps.turnMu.Unlock()
		if done != nil {
			select {
			case done <- struct{}{}:
			default:
			}
		}

	case messages.TypeAISpeakSignal:
		ps.startTurn(aiSpeakPrompt)

	default:
		ps.queueMessage(messages.NewErrorMessage("Unknown message type: " + msg.Type))
	}
}

// transcribe stands in for a speech recognizer: it reports what was heard
// by duration so the brain can still react to voice input in development
func (ps *PetSession) transcribe(samples []float32) string {
	dur := float64(len(samples)) / float64(ps.cfg.SampleRate)
	return fmt.Sprintf("(the user spoke for %.1f seconds; respond as if greeted)", dur)
}

// startTurn cancels any running turn and launches a new one
func (ps *PetSession) startTurn(userText string) {
	ps.turnMu.Lock()
	if ps.turnCancel != nil {
		ps.turnCancel()
	}
	turnCtx, cancel := context.WithCancel(ps.ctx)
	ps.turnCancel = cancel
	done := make(chan struct{}, 1)
	ps.playbackDone = done
	ps.turnMu.Unlock()

	go ps.runTurn(turnCtx, userText, done)
}

// interruptTurn stops the running turn. heard is the portion of the reply
// the user had already seen, logged for conversation-repair context.
func (ps *PetSession) interruptTurn(heard string) {
	ps.turnMu.Lock()
	cancel := ps.turnCancel
	ps.turnCancel = nil
	ps.turnMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if heard != "" {
		log.Printf("✋ [%s] Interrupted after: %q", ps.ID[:8], heard)
	}
	ps.queueMessage(messages.NewInterruptedMessage())
	ps.queueMessage(messages.NewForceNewMessage())
}

// runTurn drives one reply: stream the brain, divide into sentences, filter,
// synthesize, merge, then close the turn once the client finishes playback
func (ps *PetSession) runTurn(ctx context.Context, userText string, playbackDone chan struct{}) {
	ps.queueMessage(messages.NewControlMessage(messages.ControlChainStart))
	ps.queueMessage(messages.NewFullTextMessage("Thinking..."))

	divider := sentence.NewDivider(true)
	merger := NewMerger(ps.cfg.SampleRate, ps.cfg.MergeMaxSentences, ps.cfg.ProgressiveMerge, ps.queueMessage)

	err := ps.Brain.StreamReply(ctx, userText, func(chunk string) {
		for _, s := range divider.Feed(chunk) {
			ps.speakSentence(s, merger)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			// interrupted, the client already got interrupt-signal
			return
		}
		log.Printf("❌ [%s] Brain error: %v", ps.ID[:8], err)
		ps.queueMessage(messages.NewErrorMessage(err.Error()))
		ps.queueMessage(messages.NewControlMessage(messages.ControlChainEnd))
		return
	}

	for _, s := range divider.Flush() {
		ps.speakSentence(s, merger)
	}
	merger.Flush()

	ps.queueMessage(messages.NewSynthCompleteMessage())

	select {
	case <-playbackDone:
	case <-ctx.Done():
		return
	case <-time.After(playbackWait):
		log.Printf("⚠️ [%s] Playback completion never reported, closing turn", ps.ID[:8])
	}

	ps.queueMessage(messages.NewForceNewMessage())
	ps.queueMessage(messages.NewControlMessage(messages.ControlChainEnd))
}

// speakSentence filters one sentence and feeds it to the merger. Sentences
// with nothing speakable (headings, emotion tags, bare punctuation) are
// still shown as text when any display content remains.
func (ps *PetSession) speakSentence(raw string, merger *Merger) {
	expressions := sentence.ExtractEmotions(raw)
	display := sentence.StripEmotionTags(raw)
	speakable := sentence.SpeakableText(raw)

	if speakable == "" {
		if display != "" {
			msg := messages.NewSilentMessage(&messages.DisplayText{Text: display}, actionsFor(expressions))
			ps.queueMessage(msg)
		}
		return
	}

	pcm, duration := ps.synth.Synthesize(speakable)
	merger.Add(&SpokenSentence{
		Text:        display,
		Expressions: expressions,
		PCM:         pcm,
		Volumes:     VolumeEnvelope(pcm, ps.cfg.SampleRate),
		Duration:    duration,
	})
}

func actionsFor(expressions []string) *messages.Actions {
	if len(expressions) == 0 {
		return nil
	}
	return &messages.Actions{Expressions: expressions}
}

// IsClosed returns whether the session is closed
func (ps *PetSession) IsClosed() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.closed
}

// Close terminates the session and cleans up resources
func (ps *PetSession) Close() error {
	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil
	}
	ps.closed = true
	ps.mu.Unlock()

	ps.cancel()

	// writeChan is never closed: the turn pipeline may still be queueing
	// messages concurrently. writePump exits via CloseChan and stragglers
	// land in the buffer unread.
	close(ps.CloseChan)

	ps.MicBuffer.Clear()

	if ps.Brain != nil {
		ps.Brain.Close()
	}
	if ps.Conn != nil {
		ps.Conn.Close()
	}
	return nil
}
