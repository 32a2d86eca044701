package session

import (
	"errors"
	"sync"
)

// ErrBufferFull is returned when the buffer exceeds its maximum size
var ErrBufferFull = errors.New("mic buffer full")

// MicBuffer accumulates normalized microphone samples until the client
// signals the end of the utterance
type MicBuffer struct {
	chunks       [][]float32
	totalSamples int
	maxSamples   int
	mu           sync.Mutex
}

// NewMicBuffer creates a buffer with the specified maximum size in samples
func NewMicBuffer(maxSamples int) *MicBuffer {
	return &MicBuffer{
		chunks:     make([][]float32, 0),
		maxSamples: maxSamples,
	}
}

// MaxSamples returns the maximum buffer size
func (mb *MicBuffer) MaxSamples() int {
	return mb.maxSamples
}

// Append adds a chunk of samples to the buffer.
// Returns ErrBufferFull if adding the chunk would exceed the maximum.
func (mb *MicBuffer) Append(chunk []float32) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	newSize := mb.totalSamples + len(chunk)
	if newSize > mb.maxSamples {
		return ErrBufferFull
	}

	mb.chunks = append(mb.chunks, chunk)
	mb.totalSamples = newSize
	return nil
}

// Flush concatenates all chunks in order and clears the buffer
func (mb *MicBuffer) Flush() []float32 {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if len(mb.chunks) == 0 {
		return nil
	}

	result := make([]float32, 0, mb.totalSamples)
	for _, chunk := range mb.chunks {
		result = append(result, chunk...)
	}

	mb.chunks = make([][]float32, 0)
	mb.totalSamples = 0

	return result
}

// Clear empties the buffer without returning data
func (mb *MicBuffer) Clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.chunks = make([][]float32, 0)
	mb.totalSamples = 0
}

// Size returns the current total buffered samples
func (mb *MicBuffer) Size() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.totalSamples
}

// IsEmpty returns true if no chunks are buffered
func (mb *MicBuffer) IsEmpty() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.chunks) == 0
}

// ChunkCount returns the number of chunks in the buffer
func (mb *MicBuffer) ChunkCount() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.chunks)
}
