package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// Clip is a decoded audio clip ready for a playback sink
type Clip struct {
	PCM        []byte // S16LE interleaved
	SampleRate int
	Channels   int
	Duration   time.Duration
}

var ErrUnknownFormat = errors.New("unknown audio format")

// DecodeBase64Clip decodes a base64 payload from the backend into a Clip
func DecodeBase64Clip(encoded string) (*Clip, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return DecodeClip(raw)
}

// DecodeClip sniffs the container format and decodes to PCM
func DecodeClip(raw []byte) (*Clip, error) {
	switch {
	case len(raw) > 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WAVE":
		return decodeWAV(raw)
	case len(raw) > 3 && (string(raw[0:3]) == "ID3" || (raw[0] == 0xFF && raw[1]&0xE0 == 0xE0)):
		return decodeMP3(raw)
	default:
		return nil, ErrUnknownFormat
	}
}

// decodeWAV walks the RIFF chunks; only uncompressed 16-bit PCM is accepted
func decodeWAV(raw []byte) (*Clip, error) {
	clip := &Clip{}
	bitsPerSample := 0
	offset := 12
	for offset+8 <= len(raw) {
		id := string(raw[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("wav: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(raw[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("wav: unsupported format tag %d", format)
			}
			clip.Channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
		case "data":
			clip.PCM = raw[body : body+size]
		}
		// chunks are word aligned
		offset = body + size + size%2
	}
	if clip.SampleRate == 0 || clip.Channels == 0 || clip.PCM == nil {
		return nil, errors.New("wav: missing fmt or data chunk")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("wav: unsupported bit depth %d", bitsPerSample)
	}
	frameSize := clip.Channels * 2
	clip.Duration = time.Duration(len(clip.PCM)/frameSize) * time.Second / time.Duration(clip.SampleRate)
	return clip, nil
}

// decodeMP3 decodes with go-mp3, which always yields 16-bit stereo
func decodeMP3(raw []byte) (*Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	clip := &Clip{
		PCM:        pcm,
		SampleRate: dec.SampleRate(),
		Channels:   2,
	}
	clip.Duration = time.Duration(len(pcm)/4) * time.Second / time.Duration(clip.SampleRate)
	return clip, nil
}

// EncodeWAV wraps S16LE PCM in a minimal WAV container
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	byteRate := sampleRate * channels * 2
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
