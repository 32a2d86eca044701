package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Player renders a clip to an output device. Play blocks until the clip
// finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, clip *Clip) error
}

// SoxPlayer streams raw PCM to a sox subprocess, one process per clip so
// sample rate and channel count can vary between clips
type SoxPlayer struct {
	Command string // defaults to "sox"
}

func NewSoxPlayer(command string) *SoxPlayer {
	if command == "" {
		command = "sox"
	}
	return &SoxPlayer{Command: command}
}

func (p *SoxPlayer) Play(ctx context.Context, clip *Clip) error {
	cmd := exec.CommandContext(ctx, p.Command,
		"-q",
		"-t", "raw",
		"-r", strconv.Itoa(clip.SampleRate),
		"-b", "16",
		"-c", strconv.Itoa(clip.Channels),
		"-e", "signed-integer",
		"-",
		"-d",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("player start: %w", err)
	}
	_, writeErr := stdin.Write(clip.PCM)
	stdin.Close()
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// playback interrupted, the killed process is expected to error
		return ctx.Err()
	}
	if writeErr != nil {
		return fmt.Errorf("player write: %w", writeErr)
	}
	if waitErr != nil {
		return fmt.Errorf("player: %w", waitErr)
	}
	return nil
}
