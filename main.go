package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/deskpet-app/deskpet/audio"
	"github.com/deskpet-app/deskpet/client"
	"github.com/deskpet-app/deskpet/config"
	"github.com/deskpet-app/deskpet/messages"
	"github.com/deskpet-app/deskpet/vad"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cl := client.NewClient(cfg.ServerURL, cfg.ReconnectInterval)

	player := audio.NewSoxPlayer(cfg.PlayerCommand)
	queue := audio.NewQueue(player,
		func(display *messages.DisplayText, actions *messages.Actions) {
			name := display.Name
			if name == "" {
				name = "Pet"
			}
			if actions != nil && len(actions.Expressions) > 0 {
				fmt.Printf("%s [%s]: %s\n", name, strings.Join(actions.Expressions, ","), display.Text)
			} else {
				fmt.Printf("%s: %s\n", name, display.Text)
			}
		},
		func() {
			if err := cl.SendPlaybackComplete(); err != nil {
				log.Printf("⚠️ Failed to report playback complete: %v", err)
			}
		},
	)
	defer queue.Close()

	wireCallbacks(cl, queue)

	go func() {
		if err := cl.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("❌ Client stopped: %v", err)
		}
	}()

	startMicrophone(ctx, cfg, cl, queue)

	// Ctrl+C shuts everything down
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nShutting down...")
		cancel()
		queue.Close()
		cl.Close()
		os.Exit(0)
	}()

	runInputLoop(cl, queue)

	cancel()
	cl.Close()
}

func wireCallbacks(cl *client.Client, queue *audio.Queue) {
	cl.OnAudio = queue.Enqueue
	cl.OnFullText = func(text string) {
		log.Printf("💬 %s", text)
	}
	cl.OnControl = func(signal string) {
		switch signal {
		case messages.ControlChainStart:
			queue.NewTurn()
		case messages.ControlChainEnd:
			log.Println("✅ Turn complete")
		}
	}
	cl.OnTranscription = func(text string) {
		fmt.Printf("You: %s\n", text)
	}
	cl.OnSynthComplete = queue.NotifySynthComplete
	cl.OnForceNewMessage = func() {
		fmt.Println()
	}
	cl.OnInterrupt = func(text string) {
		log.Printf("✋ Conversation interrupted (%s)", text)
	}
	cl.OnError = func(message string) {
		log.Printf("❌ Backend error: %s", message)
	}
	cl.OnToolStatus = func(name, status string) {
		log.Printf("🔧 Tool %s: %s", name, status)
	}
}

// startMicrophone launches the VAD capture loop. A missing capture tool is
// not fatal: the pet still works with typed input.
func startMicrophone(ctx context.Context, cfg *config.Config, cl *client.Client, queue *audio.Queue) {
	source, err := vad.MicSource(ctx, cfg.MicCommand, cfg.SampleRate)
	if err != nil {
		log.Printf("⚠️ Microphone unavailable (%v), text input only", err)
		return
	}

	capture := vad.NewCapture(vad.CaptureConfig{
		SampleRate:     cfg.SampleRate,
		Detector:       vad.NewDetector(cfg.SpeechThreshold, cfg.SilenceThreshold, cfg.StartFrames, cfg.EndFrames),
		PreRoll:        cfg.PreRoll,
		MinUtterance:   cfg.MinUtterance,
		PlaybackActive: queue.Playing,
		OnUtterance: func(samples []float32) {
			if err := cl.SendMicAudio(samples); err != nil {
				log.Printf("⚠️ Failed to send utterance: %v", err)
			}
		},
		OnBargeIn: func() {
			heard := queue.Interrupt()
			if err := cl.SendInterrupt(heard); err != nil {
				log.Printf("⚠️ Failed to send interrupt: %v", err)
			}
		},
	})

	go func() {
		defer source.Close()
		if err := capture.Run(ctx, source); err != nil && ctx.Err() == nil {
			log.Printf("⚠️ Microphone capture stopped: %v", err)
		}
	}()
	log.Printf("🎤 Microphone active (%s, %d Hz)", cfg.MicCommand, cfg.SampleRate)
}

// runInputLoop reads typed messages from stdin until EOF or /quit.
// Typing while the pet is speaking interrupts it first.
func runInputLoop(cl *client.Client, queue *audio.Queue) {
	fmt.Println("Type to chat (/speak to prompt the pet, /quit to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/speak":
			if err := cl.SendAISpeak(); err != nil {
				log.Printf("⚠️ %v", err)
			}
		default:
			if queue.Playing() {
				heard := queue.Interrupt()
				if err := cl.SendInterrupt(heard); err != nil {
					log.Printf("⚠️ %v", err)
				}
			}
			if err := cl.SendTextInput(line, nil); err != nil {
				log.Printf("⚠️ %v", err)
			}
		}
	}
}
