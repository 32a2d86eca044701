package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpet-app/deskpet/messages"
)

func spoken(text string, dur time.Duration) *SpokenSentence {
	samples := int(dur.Seconds() * 16000)
	return &SpokenSentence{
		Text:     text,
		PCM:      make([]byte, samples*2),
		Duration: dur,
	}
}

func TestMergerProgressiveRounds(t *testing.T) {
	var emitted []*messages.ServerMessage
	m := NewMerger(16000, 3, true, func(msg *messages.ServerMessage) {
		emitted = append(emitted, msg)
	})

	// round sizes 1, 2, 3
	for i, text := range []string{"a", "b", "c", "d", "e", "f"} {
		m.Add(spoken(text, time.Duration(i+1)*100*time.Millisecond))
	}
	m.Flush()

	require.Len(t, emitted, 6)

	// round 0: single sentence, not merged
	assert.False(t, emitted[0].MergeInfo.IsMerged)
	assert.Equal(t, 1, emitted[0].MergeInfo.TotalSentences)
	assert.Equal(t, "a", emitted[0].DisplayText.Text)
	assert.False(t, emitted[0].IsSilent())

	// round 1: two sentences, carrier + follower
	assert.True(t, emitted[1].MergeInfo.IsMerged)
	assert.Equal(t, 2, emitted[1].MergeInfo.TotalSentences)
	assert.Equal(t, 0, emitted[1].MergeInfo.SentenceIndex)
	assert.False(t, emitted[1].IsSilent())

	assert.True(t, emitted[2].IsSilent())
	assert.Equal(t, 1, emitted[2].MergeInfo.SentenceIndex)
	// follower delay equals the carrier sentence's duration (200ms)
	assert.Equal(t, 200, emitted[2].MergeInfo.DelayBeforeShow)

	// round 2: three sentences
	assert.Equal(t, 3, emitted[3].MergeInfo.TotalSentences)
	assert.Equal(t, 0, emitted[3].MergeInfo.SentenceIndex)
	assert.Equal(t, 400, emitted[4].MergeInfo.DelayBeforeShow)
	assert.Equal(t, 900, emitted[5].MergeInfo.DelayBeforeShow) // 400 + 500
	assert.Equal(t, 1500, emitted[5].MergeInfo.TotalDuration)  // 400 + 500 + 600

	// followers carry their own slice of the merged envelope for lip sync
	assert.Equal(t, volumeSliceMs, emitted[2].SliceLength)
	assert.Len(t, emitted[2].Volumes, 15) // 300ms sentence, 20ms slices
	assert.Len(t, emitted[4].Volumes, 25) // 500ms
	assert.Len(t, emitted[5].Volumes, 30) // 600ms
}

func TestMergerNonProgressive(t *testing.T) {
	var emitted []*messages.ServerMessage
	m := NewMerger(16000, 3, false, func(msg *messages.ServerMessage) {
		emitted = append(emitted, msg)
	})

	m.Add(spoken("a", 100*time.Millisecond))
	m.Add(spoken("b", 100*time.Millisecond))
	m.Flush()

	require.Len(t, emitted, 2)
	for _, msg := range emitted {
		assert.False(t, msg.MergeInfo.IsMerged)
		assert.False(t, msg.IsSilent())
	}
}

func TestMergerFlushShortFinalGroup(t *testing.T) {
	var emitted []*messages.ServerMessage
	m := NewMerger(16000, 3, true, func(msg *messages.ServerMessage) {
		emitted = append(emitted, msg)
	})

	// rounds 1 and 2 complete, round 3 gets only one sentence
	for _, text := range []string{"a", "b", "c", "d"} {
		m.Add(spoken(text, 100*time.Millisecond))
	}
	m.Flush()

	require.Len(t, emitted, 4)
	last := emitted[3]
	assert.False(t, last.MergeInfo.IsMerged)
	assert.Equal(t, "d", last.DisplayText.Text)
}

func TestMergerReset(t *testing.T) {
	var emitted []*messages.ServerMessage
	m := NewMerger(16000, 3, true, func(msg *messages.ServerMessage) {
		emitted = append(emitted, msg)
	})

	m.Add(spoken("a", 100*time.Millisecond)) // round 0 emits immediately
	m.Add(spoken("b", 100*time.Millisecond)) // pending in round 1
	m.Reset()
	m.Flush()
	require.Len(t, emitted, 1)

	// round progression restarts: next sentence ships alone again
	m.Add(spoken("c", 100*time.Millisecond))
	require.Len(t, emitted, 2)
	assert.False(t, emitted[1].MergeInfo.IsMerged)
}
