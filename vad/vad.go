package vad

import "math"

// Detector is an amplitude (RMS) voice activity detector with hysteresis:
// speech starts after StartFrames consecutive frames above SpeechThreshold
// and ends after EndFrames consecutive frames below SilenceThreshold, so the
// state never flickers on borderline frames.
type Detector struct {
	SpeechThreshold  float64 // normalized RMS to start speech
	SilenceThreshold float64 // normalized RMS to end speech
	StartFrames      int
	EndFrames        int

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// NewDetector returns a detector tuned for 16kHz 20ms frames
func NewDetector(speechThreshold, silenceThreshold float64, startFrames, endFrames int) *Detector {
	return &Detector{
		SpeechThreshold:  speechThreshold,
		SilenceThreshold: silenceThreshold,
		StartFrames:      startFrames,
		EndFrames:        endFrames,
	}
}

// Process feeds one frame and reports whether the detector is in speech
// after consuming it
func (d *Detector) Process(frame []int16) bool {
	level := RMS(frame)

	if d.inSpeech {
		if level < d.SilenceThreshold {
			d.silenceCount++
			if d.silenceCount >= d.EndFrames {
				d.inSpeech = false
				d.silenceCount = 0
			}
		} else {
			d.silenceCount = 0
		}
		return d.inSpeech
	}

	if level >= d.SpeechThreshold {
		d.speechCount++
		if d.speechCount >= d.StartFrames {
			d.inSpeech = true
			d.speechCount = 0
		}
	} else {
		d.speechCount = 0
	}
	return d.inSpeech
}

// InSpeech reports the current state without consuming a frame
func (d *Detector) InSpeech() bool {
	return d.inSpeech
}

// Reset clears internal state
func (d *Detector) Reset() {
	d.inSpeech = false
	d.speechCount = 0
	d.silenceCount = 0
}

// RMS returns the root mean square of a frame normalized to [0, 1]
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
