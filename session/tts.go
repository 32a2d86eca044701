package session

import (
	"encoding/binary"
	"math"
	"time"
)

// volumeSliceMs is the envelope resolution sent alongside each clip; the
// client uses it to animate the pet's mouth
const volumeSliceMs = 20

// SpokenSentence is one synthesized sentence ready for delivery
type SpokenSentence struct {
	Text        string // display text, emotion tags stripped
	Expressions []string
	PCM         []byte // S16LE mono
	Volumes     []float64
	Duration    time.Duration
}

// Synthesizer turns a sentence into a playable clip
type Synthesizer interface {
	Synthesize(text string) (pcm []byte, duration time.Duration)
}

// ToneSynthesizer is the development voice: a soft sine tone whose length
// tracks the sentence length, enough to exercise playback timing and the
// merge pipeline without a real TTS engine.
type ToneSynthesizer struct {
	SampleRate int
}

func NewToneSynthesizer(sampleRate int) *ToneSynthesizer {
	return &ToneSynthesizer{SampleRate: sampleRate}
}

const (
	msPerRune   = 60
	minClip     = 400 * time.Millisecond
	maxClip     = 6 * time.Second
	baseFreq    = 180.0
	freqSpread  = 120.0
	attackRatio = 0.1
	decayRatio  = 0.25
)

func (t *ToneSynthesizer) Synthesize(text string) ([]byte, time.Duration) {
	runes := []rune(text)
	duration := time.Duration(len(runes)*msPerRune) * time.Millisecond
	if duration < minClip {
		duration = minClip
	}
	if duration > maxClip {
		duration = maxClip
	}

	// pitch varies with the text so consecutive sentences sound distinct
	var hash uint32
	for _, r := range runes {
		hash = hash*31 + uint32(r)
	}
	freq := baseFreq + freqSpread*float64(hash%100)/100.0

	samples := int(duration.Seconds() * float64(t.SampleRate))
	pcm := make([]byte, samples*2)
	attack := int(float64(samples) * attackRatio)
	decay := int(float64(samples) * decayRatio)
	for i := 0; i < samples; i++ {
		env := 1.0
		if i < attack {
			env = float64(i) / float64(attack)
		} else if i > samples-decay {
			env = float64(samples-i) / float64(decay)
		}
		v := 0.25 * env * math.Sin(2*math.Pi*freq*float64(i)/float64(t.SampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*32767)))
	}
	return pcm, duration
}

// VolumeEnvelope computes the normalized per-slice RMS envelope of a mono
// S16LE clip, one value per volumeSliceMs
func VolumeEnvelope(pcm []byte, sampleRate int) []float64 {
	sliceSamples := sampleRate * volumeSliceMs / 1000
	if sliceSamples == 0 || len(pcm) < 2 {
		return nil
	}
	totalSamples := len(pcm) / 2
	volumes := make([]float64, 0, totalSamples/sliceSamples+1)
	peak := 0.0
	for start := 0; start < totalSamples; start += sliceSamples {
		end := start + sliceSamples
		if end > totalSamples {
			end = totalSamples
		}
		var sum float64
		for i := start; i < end; i++ {
			v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-start))
		if rms > peak {
			peak = rms
		}
		volumes = append(volumes, rms)
	}
	if peak > 0 {
		for i := range volumes {
			volumes[i] /= peak
		}
	}
	return volumes
}
