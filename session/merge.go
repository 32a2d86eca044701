package session

import (
	"encoding/base64"
	"time"

	"github.com/deskpet-app/deskpet/audio"
	"github.com/deskpet-app/deskpet/messages"
)

// Merger batches synthesized sentences into merged audio payloads so the
// client plays fewer, longer clips while still revealing text sentence by
// sentence. Round sizes grow 1, 2, max, max...: the first sentence ships
// alone for a fast first response, later rounds merge more.
//
// In a merged group the sentence at index 0 carries the whole clip; the
// followers are silent and carry only their reveal offset.
type Merger struct {
	sampleRate   int
	maxSentences int
	progressive  bool
	emit         func(*messages.ServerMessage)

	round   int
	pending []*SpokenSentence
}

func NewMerger(sampleRate, maxSentences int, progressive bool, emit func(*messages.ServerMessage)) *Merger {
	if maxSentences < 1 {
		maxSentences = 1
	}
	return &Merger{
		sampleRate:   sampleRate,
		maxSentences: maxSentences,
		progressive:  progressive,
		emit:         emit,
	}
}

// roundSize is locked at the start of each round: once sentences start
// accumulating toward a group, a late arrival cannot change its size
func (m *Merger) roundSize() int {
	if !m.progressive {
		return 1
	}
	switch m.round {
	case 0:
		return 1
	case 1:
		if m.maxSentences < 2 {
			return 1
		}
		return 2
	default:
		return m.maxSentences
	}
}

// Add queues one synthesized sentence, emitting a payload when the current
// round fills up
func (m *Merger) Add(s *SpokenSentence) {
	m.pending = append(m.pending, s)
	if len(m.pending) >= m.roundSize() {
		m.flushGroup()
	}
}

// Flush emits whatever is pending as a final, possibly short, group
func (m *Merger) Flush() {
	if len(m.pending) > 0 {
		m.flushGroup()
	}
}

// Reset drops pending sentences and restarts the round progression
func (m *Merger) Reset() {
	m.round = 0
	m.pending = nil
}

func (m *Merger) flushGroup() {
	group := m.pending
	m.pending = nil
	m.round++

	if len(group) == 1 {
		s := group[0]
		msg := messages.NewAudioMessage(
			base64.StdEncoding.EncodeToString(audio.EncodeWAV(s.PCM, m.sampleRate, 1)),
			s.Volumes,
			volumeSliceMs,
			&messages.DisplayText{Text: s.Text},
			expressionsOf(s),
		)
		msg.MergeInfo = &messages.MergeInfo{
			TotalSentences:   1,
			SentenceDuration: int(s.Duration.Milliseconds()),
			TotalDuration:    int(s.Duration.Milliseconds()),
		}
		m.emit(msg)
		return
	}

	var merged []byte
	var total time.Duration
	for _, s := range group {
		merged = append(merged, s.PCM...)
		total += s.Duration
	}
	volumes := VolumeEnvelope(merged, m.sampleRate)
	frameBytes := m.sampleRate * 2 * volumeSliceMs / 1000

	var offset time.Duration
	byteOffset := 0
	for i, s := range group {
		info := &messages.MergeInfo{
			IsMerged:         true,
			TotalSentences:   len(group),
			SentenceIndex:    i,
			SentenceDuration: int(s.Duration.Milliseconds()),
			TotalDuration:    int(total.Milliseconds()),
		}
		if i == 0 {
			msg := messages.NewAudioMessage(
				base64.StdEncoding.EncodeToString(audio.EncodeWAV(merged, m.sampleRate, 1)),
				volumes,
				volumeSliceMs,
				&messages.DisplayText{Text: s.Text},
				expressionsOf(s),
			)
			msg.MergeInfo = info
			m.emit(msg)
		} else {
			info.DelayBeforeShow = int(offset.Milliseconds())
			msg := messages.NewSilentMessage(&messages.DisplayText{Text: s.Text}, expressionsOf(s))
			// the follower keeps its own slice of the envelope so lip
			// sync tracks the sentence being revealed
			start := byteOffset / frameBytes
			end := (byteOffset + len(s.PCM)) / frameBytes
			if end > len(volumes) {
				end = len(volumes)
			}
			msg.Volumes = volumes[start:end]
			msg.SliceLength = volumeSliceMs
			msg.MergeInfo = info
			m.emit(msg)
		}
		offset += s.Duration
		byteOffset += len(s.PCM)
	}
}

func expressionsOf(s *SpokenSentence) *messages.Actions {
	if len(s.Expressions) == 0 {
		return nil
	}
	return &messages.Actions{Expressions: s.Expressions}
}
