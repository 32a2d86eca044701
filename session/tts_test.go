package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneSynthesizerDuration(t *testing.T) {
	s := NewToneSynthesizer(16000)

	t.Run("Tracks Text Length", func(t *testing.T) {
		pcm, dur := s.Synthesize("A sentence of twenty chars.")
		assert.Equal(t, int(dur.Seconds()*16000)*2, len(pcm))
		assert.Greater(t, dur, minClip)
	})

	t.Run("Clamps Short Text", func(t *testing.T) {
		_, dur := s.Synthesize("Hi")
		assert.Equal(t, minClip, dur)
	})

	t.Run("Clamps Long Text", func(t *testing.T) {
		long := make([]byte, 500)
		for i := range long {
			long[i] = 'x'
		}
		_, dur := s.Synthesize(string(long))
		assert.Equal(t, maxClip, dur)
	})
}

func TestVolumeEnvelope(t *testing.T) {
	s := NewToneSynthesizer(16000)
	pcm, dur := s.Synthesize("Hello there, how is it going?")

	volumes := VolumeEnvelope(pcm, 16000)
	expectedSlices := int(dur.Milliseconds()) / volumeSliceMs
	assert.InDelta(t, expectedSlices, len(volumes), 1)

	peak := 0.0
	for _, v := range volumes {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v > peak {
			peak = v
		}
	}
	assert.Equal(t, 1.0, peak)
}

func TestVolumeEnvelopeEmpty(t *testing.T) {
	assert.Nil(t, VolumeEnvelope(nil, 16000))
}

func TestMicBuffer(t *testing.T) {
	mb := NewMicBuffer(10)

	require.NoError(t, mb.Append([]float32{1, 2, 3}))
	require.NoError(t, mb.Append([]float32{4, 5}))
	assert.Equal(t, 5, mb.Size())
	assert.Equal(t, 2, mb.ChunkCount())

	assert.ErrorIs(t, mb.Append(make([]float32, 6)), ErrBufferFull)

	flushed := mb.Flush()
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, flushed)
	assert.True(t, mb.IsEmpty())
	assert.Nil(t, mb.Flush())
}
