package vad

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// frameDuration is fixed: 20ms frames, the usual VAD step size
const frameDuration = 20 * time.Millisecond

// CaptureConfig tunes the microphone segmentation loop
type CaptureConfig struct {
	SampleRate   int
	Detector     *Detector
	PreRoll      time.Duration // audio kept before the trigger point
	MinUtterance time.Duration // shorter segments are dropped as noise

	// PlaybackActive reports whether the pet is currently speaking; speech
	// detected then is a barge-in, not a normal utterance start
	PlaybackActive func() bool

	// OnUtterance receives a complete segmented utterance (normalized
	// samples, pre-roll included)
	OnUtterance func(samples []float32)

	// OnBargeIn fires once when speech starts during playback
	OnBargeIn func()
}

// Capture segments a PCM stream into utterances using the detector
type Capture struct {
	cfg       CaptureConfig
	frameSize int // samples per 20ms frame
}

func NewCapture(cfg CaptureConfig) *Capture {
	return &Capture{
		cfg:       cfg,
		frameSize: cfg.SampleRate / int(time.Second/frameDuration),
	}
}

// Run reads S16LE mono PCM from source until EOF or ctx cancellation.
// It keeps a pre-roll ring while idle so the first syllable of an utterance
// is not clipped off by the trigger latency.
func (c *Capture) Run(ctx context.Context, source io.Reader) error {
	det := c.cfg.Detector
	preRollFrames := int(c.cfg.PreRoll / frameDuration)
	minFrames := int(c.cfg.MinUtterance / frameDuration)

	frameBytes := make([]byte, c.frameSize*2)
	frame := make([]int16, c.frameSize)

	var preRoll [][]float32
	var utterance []float32
	triggered := false
	bargeIn := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := io.ReadFull(source, frameBytes); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("capture read: %w", err)
		}
		for i := range frame {
			frame[i] = int16(binary.LittleEndian.Uint16(frameBytes[i*2:]))
		}

		wasSpeaking := det.InSpeech()
		speaking := det.Process(frame)

		if speaking && !wasSpeaking {
			triggered = true
			bargeIn = false
			if c.cfg.PlaybackActive != nil && c.cfg.PlaybackActive() {
				bargeIn = true
				if c.cfg.OnBargeIn != nil {
					c.cfg.OnBargeIn()
				}
			}
			// start the utterance with the buffered pre-roll
			utterance = utterance[:0]
			for _, f := range preRoll {
				utterance = append(utterance, f...)
			}
			preRoll = preRoll[:0]
		}

		if triggered {
			utterance = append(utterance, normalize(frame)...)
			if !speaking {
				// utterance ended
				if !bargeIn && len(utterance) >= minFrames*c.frameSize && c.cfg.OnUtterance != nil {
					out := make([]float32, len(utterance))
					copy(out, utterance)
					c.cfg.OnUtterance(out)
				}
				triggered = false
				utterance = utterance[:0]
			}
			continue
		}

		// idle: maintain the pre-roll ring
		preRoll = append(preRoll, normalize(frame))
		if len(preRoll) > preRollFrames {
			preRoll = preRoll[1:]
		}
	}
}

func normalize(frame []int16) []float32 {
	out := make([]float32, len(frame))
	for i, s := range frame {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// MicSource starts a capture subprocess emitting S16LE mono PCM on stdout.
// Supported commands: sox, arecord, rec.
func MicSource(ctx context.Context, command string, sampleRate int) (io.ReadCloser, error) {
	rate := fmt.Sprintf("%d", sampleRate)
	var cmd *exec.Cmd
	switch command {
	case "arecord":
		cmd = exec.CommandContext(ctx, "arecord", "-q", "-f", "S16_LE", "-r", rate, "-c", "1", "-t", "raw")
	case "rec":
		cmd = exec.CommandContext(ctx, "rec", "-q", "-t", "raw", "-r", rate, "-b", "16", "-c", "1", "-e", "signed-integer", "-")
	default:
		cmd = exec.CommandContext(ctx, command, "-q", "-d", "-t", "raw", "-r", rate, "-b", "16", "-c", "1", "-e", "signed-integer", "-")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mic pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mic start: %w", err)
	}
	return &micReader{ReadCloser: stdout, cmd: cmd}, nil
}

type micReader struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (m *micReader) Close() error {
	m.ReadCloser.Close()
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	return m.cmd.Wait()
}
