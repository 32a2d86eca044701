package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpet-app/deskpet/messages"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// testBackend is a minimal backend: it records received client messages and
// lets the test push server messages or drop the connection.
type testBackend struct {
	t *testing.T

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []*messages.ClientMessage
	connects atomic.Int32
}

func (b *testBackend) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.connects.Add(1)
	b.mu.Lock()
	b.conns = append(b.conns, conn)
	b.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := messages.DecodeClientMessage(data)
		if err != nil {
			continue
		}
		b.mu.Lock()
		b.received = append(b.received, msg)
		b.mu.Unlock()
	}
}

func (b *testBackend) send(msg *messages.ServerMessage) {
	data, err := msg.Encode()
	require.NoError(b.t, err)
	b.mu.Lock()
	defer b.mu.Unlock()
	conn := b.conns[len(b.conns)-1]
	require.NoError(b.t, conn.WriteMessage(websocket.TextMessage, data))
}

func (b *testBackend) dropConnection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[len(b.conns)-1].Close()
}

func (b *testBackend) receivedTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, len(b.received))
	for i, m := range b.received {
		types[i] = m.Type
	}
	return types
}

func startBackend(t *testing.T) (*testBackend, string) {
	backend := &testBackend{t: t}
	ts := httptest.NewServer(http.HandlerFunc(backend.handler))
	t.Cleanup(ts.Close)
	return backend, "ws" + strings.TrimPrefix(ts.URL, "http") + "/client-ws"
}

func TestClientRoutesMessages(t *testing.T) {
	backend, url := startBackend(t)

	cl := NewClient(url, 50*time.Millisecond)
	defer cl.Close()

	var mu sync.Mutex
	var audioTexts, transcripts, controls []string
	synthDone := false

	cl.OnAudio = func(msg *messages.ServerMessage) {
		mu.Lock()
		audioTexts = append(audioTexts, msg.DisplayText.Text)
		mu.Unlock()
	}
	cl.OnTranscription = func(text string) {
		mu.Lock()
		transcripts = append(transcripts, text)
		mu.Unlock()
	}
	cl.OnControl = func(signal string) {
		mu.Lock()
		controls = append(controls, signal)
		mu.Unlock()
	}
	cl.OnSynthComplete = func() {
		mu.Lock()
		synthDone = true
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cl.Run(ctx)

	require.Eventually(t, cl.IsConnected, time.Second, 10*time.Millisecond)

	backend.send(messages.NewControlMessage(messages.ControlChainStart))
	backend.send(messages.NewTranscriptionMessage("hello pet"))
	backend.send(messages.NewSilentMessage(&messages.DisplayText{Text: "hi!"}, nil))
	backend.send(messages.NewSynthCompleteMessage())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return synthDone && len(audioTexts) == 1 && len(transcripts) == 1 && len(controls) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"hi!"}, audioTexts)
	assert.Equal(t, []string{"hello pet"}, transcripts)
	assert.Equal(t, []string{messages.ControlChainStart}, controls)
	mu.Unlock()
}

func TestClientSendsMessages(t *testing.T) {
	backend, url := startBackend(t)

	cl := NewClient(url, 50*time.Millisecond)
	defer cl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cl.Run(ctx)

	require.Eventually(t, cl.IsConnected, time.Second, 10*time.Millisecond)

	require.NoError(t, cl.SendTextInput("hello", nil))
	require.NoError(t, cl.SendMicAudio([]float32{0.1, 0.2}))
	require.NoError(t, cl.SendInterrupt("partial reply"))
	require.NoError(t, cl.SendPlaybackComplete())

	assert.Eventually(t, func() bool {
		return len(backend.receivedTypes()) == 5
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{
		messages.TypeTextInput,
		messages.TypeMicAudioData,
		messages.TypeMicAudioEnd,
		messages.TypeClientInterrupt,
		messages.TypePlaybackComplete,
	}, backend.receivedTypes())
}

func TestClientChunksLongUtterances(t *testing.T) {
	backend, url := startBackend(t)

	cl := NewClient(url, 50*time.Millisecond)
	defer cl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cl.Run(ctx)

	require.Eventually(t, cl.IsConnected, time.Second, 10*time.Millisecond)

	// ~10s of audio at 16kHz: far more than fits in one frame
	samples := make([]float32, 160000)
	for i := range samples {
		samples[i] = float32(i%100) / 100
	}
	require.NoError(t, cl.SendMicAudio(samples))

	assert.Eventually(t, func() bool {
		types := backend.receivedTypes()
		return len(types) > 0 && types[len(types)-1] == messages.TypeMicAudioEnd
	}, 2*time.Second, 10*time.Millisecond)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	var rebuilt []float32
	for _, m := range backend.received[:len(backend.received)-1] {
		require.Equal(t, messages.TypeMicAudioData, m.Type)
		// every chunk stays bounded so the backend's read limit never trips
		assert.LessOrEqual(t, len(m.Audio), micChunkSamples)
		rebuilt = append(rebuilt, m.Audio...)
	}
	assert.Greater(t, len(backend.received), 2)
	assert.Equal(t, samples, rebuilt)
}

func TestClientReconnectsAfterDrop(t *testing.T) {
	backend, url := startBackend(t)

	cl := NewClient(url, 50*time.Millisecond)
	defer cl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cl.Run(ctx)

	require.Eventually(t, cl.IsConnected, time.Second, 10*time.Millisecond)

	dropped := time.Now()
	backend.dropConnection()

	assert.Eventually(t, func() bool {
		return backend.connects.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
	// redial waited for the reconnect interval instead of spinning
	assert.GreaterOrEqual(t, time.Since(dropped), 50*time.Millisecond)
}

func TestClientRetriesWhenBackendDown(t *testing.T) {
	// dial a port nobody listens on, then verify Run respects cancellation
	cl := NewClient("ws://127.0.0.1:1/client-ws", 20*time.Millisecond)
	defer cl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cl.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestClientCloseStopsRun(t *testing.T) {
	_, url := startBackend(t)

	cl := NewClient(url, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- cl.Run(context.Background()) }()

	require.Eventually(t, cl.IsConnected, time.Second, 10*time.Millisecond)
	require.NoError(t, cl.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after Close")
	}
}
