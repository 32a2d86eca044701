package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deskpet-app/deskpet/messages"
)

const (
	writeBufferSize  = 256
	writeTimeout     = 10 * time.Second
	handshakeTimeout = 10 * time.Second

	// micChunkSamples bounds one mic-audio-data frame (256ms at 16kHz) so
	// long utterances stay under the backend's per-message read limit
	micChunkSamples = 4096
)

// Client maintains the WebSocket link to the backend. It dials, reads and
// routes messages to the On* callbacks, and redials after ReconnectInterval
// whenever the link drops. Outgoing messages go through a buffered write
// channel so callers never block on the socket.
type Client struct {
	URL               string
	ReconnectInterval time.Duration

	// Called once per (re)connection, before the read loop starts
	OnConnect func()
	// Called when an established connection drops (not on failed dials)
	OnDisconnect func(err error)

	// Per-type routing. Unset callbacks drop the message.
	OnAudio           func(msg *messages.ServerMessage)
	OnFullText        func(text string)
	OnControl         func(signal string)
	OnTranscription   func(text string)
	OnSynthComplete   func()
	OnForceNewMessage func()
	OnInterrupt       func(text string)
	OnError           func(message string)
	OnToolStatus      func(name, status string)

	writeChan chan *messages.ClientMessage

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool
}

func NewClient(url string, reconnectInterval time.Duration) *Client {
	return &Client{
		URL:               url,
		ReconnectInterval: reconnectInterval,
		writeChan:         make(chan *messages.ClientMessage, writeBufferSize),
	}
}

// Run dials and keeps the connection alive until ctx is cancelled or Close
// is called. A failed dial waits ReconnectInterval before the next attempt,
// so the loop never spins against a dead backend.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return nil
		}

		dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
		conn, _, err := dialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			log.Printf("🔌 Connection to %s failed: %v (retrying in %s)", c.URL, err, c.ReconnectInterval)
			if !c.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		conn.SetReadLimit(10 * 1024 * 1024) // merged clips can be large
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		log.Printf("✅ Connected to %s", c.URL)
		if c.OnConnect != nil {
			c.OnConnect()
		}

		writeDone := make(chan struct{})
		go c.writePump(conn, writeDone)

		err = c.readLoop(conn)
		close(writeDone)
		conn.Close()

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.isClosed() || ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("🔌 Connection lost: %v (reconnecting in %s)", err, c.ReconnectInterval)
		if c.OnDisconnect != nil {
			c.OnDisconnect(err)
		}
		if !c.sleep(ctx) {
			return ctx.Err()
		}
	}
}

func (c *Client) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.ReconnectInterval):
		return true
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := messages.DecodeServerMessage(data)
		if err != nil {
			log.Printf("⚠️ Dropping unparseable message: %v", err)
			continue
		}
		c.route(msg)
	}
}

func (c *Client) route(msg *messages.ServerMessage) {
	switch msg.Type {
	case messages.TypeAudio:
		if c.OnAudio != nil {
			c.OnAudio(msg)
		}
	case messages.TypeFullText:
		if c.OnFullText != nil {
			c.OnFullText(msg.Text)
		}
	case messages.TypeControl:
		if c.OnControl != nil {
			c.OnControl(msg.Text)
		}
	case messages.TypeTranscription:
		if c.OnTranscription != nil {
			c.OnTranscription(msg.Text)
		}
	case messages.TypeSynthComplete:
		if c.OnSynthComplete != nil {
			c.OnSynthComplete()
		}
	case messages.TypeForceNewMessage:
		if c.OnForceNewMessage != nil {
			c.OnForceNewMessage()
		}
	case messages.TypeInterruptSignal:
		if c.OnInterrupt != nil {
			c.OnInterrupt(msg.Text)
		}
	case messages.TypeError:
		if c.OnError != nil {
			c.OnError(msg.Message)
		}
	case messages.TypeToolCallStatus:
		if c.OnToolStatus != nil {
			c.OnToolStatus(msg.Name, msg.Status)
		}
	default:
		log.Printf("⚠️ Unknown message type: %s", msg.Type)
	}
}

// writePump drains the write channel onto one connection. It exits when the
// connection's read loop ends; queued messages survive for the next pump.
func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.writeChan:
			data, err := msg.Encode()
			if err != nil {
				log.Printf("⚠️ Failed to encode %s message: %v", msg.Type, err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// Send queues a message for the backend (non-blocking). Messages queued
// while disconnected are delivered after the next successful dial.
func (c *Client) Send(msg *messages.ClientMessage) error {
	if c.isClosed() {
		return fmt.Errorf("client closed")
	}
	select {
	case c.writeChan <- msg:
		return nil
	default:
		return fmt.Errorf("write queue full, dropping %s", msg.Type)
	}
}

// SendMicAudio streams one utterance's normalized samples as bounded
// chunks followed by the end-of-utterance marker; the backend accumulates
// chunks until the marker arrives
func (c *Client) SendMicAudio(samples []float32) error {
	for len(samples) > 0 {
		n := len(samples)
		if n > micChunkSamples {
			n = micChunkSamples
		}
		if err := c.Send(messages.NewMicAudioMessage(samples[:n])); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return c.Send(messages.NewMicAudioEndMessage())
}

// SendTextInput sends a typed user message
func (c *Client) SendTextInput(text string, images []string) error {
	return c.Send(messages.NewTextInputMessage(text, images))
}

// SendInterrupt tells the backend the user cut the reply off; heard is what
// they had already seen
func (c *Client) SendInterrupt(heard string) error {
	return c.Send(messages.NewInterruptMessage(heard))
}

// SendPlaybackComplete reports that every queued clip finished playing
func (c *Client) SendPlaybackComplete() error {
	return c.Send(messages.NewPlaybackCompleteMessage())
}

// SendAISpeak asks the backend to have the pet speak unprompted
func (c *Client) SendAISpeak() error {
	return c.Send(messages.NewAISpeakMessage())
}

// IsConnected reports whether a live connection exists right now
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close stops the reconnect loop and drops the current connection
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		conn.Close()
	}
	return nil
}
