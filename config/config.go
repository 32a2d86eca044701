package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration for the pet client and the dev server
type Config struct {
	// Client
	ServerURL         string        // backend WebSocket URL
	ReconnectInterval time.Duration // delay between reconnect attempts
	PlayerCommand     string        // playback subprocess ("sox")
	MicCommand        string        // capture subprocess ("sox" or "arecord")

	// Capture / VAD
	SampleRate       int
	SpeechThreshold  float64 // normalized RMS to start speech
	SilenceThreshold float64 // normalized RMS to end speech
	StartFrames      int     // consecutive speech frames to trigger
	EndFrames        int     // consecutive silence frames to end
	PreRoll          time.Duration
	MinUtterance     time.Duration

	// Dev server
	Port              int
	GeminiAPIKey      string // optional; canned responder without it
	RedisURL          string
	RedisPassword     string
	MaxSessions       int
	SessionTimeout    time.Duration
	AllowedOrigins    []string
	MaxBufferSize     int // max buffered mic bytes per session
	MergeMaxSentences int
	ProgressiveMerge  bool
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		ServerURL:         "ws://localhost:12393/client-ws",
		ReconnectInterval: 3 * time.Second,
		PlayerCommand:     "sox",
		MicCommand:        "sox",

		SampleRate:       16000,
		SpeechThreshold:  0.015,
		SilenceThreshold: 0.008,
		StartFrames:      3,
		EndFrames:        40,
		PreRoll:          500 * time.Millisecond,
		MinUtterance:     500 * time.Millisecond,

		Port:              12393,
		RedisURL:          "localhost:6379",
		RedisPassword:     "",
		MaxSessions:       100,
		SessionTimeout:    30 * time.Minute,
		AllowedOrigins:    []string{"*"},
		MaxBufferSize:     5 * 1024 * 1024, // 5MB default
		MergeMaxSentences: 3,
		ProgressiveMerge:  true,
	}

	// Optional: SERVER_URL
	if url := os.Getenv("SERVER_URL"); url != "" {
		config.ServerURL = url
	}

	// Optional: RECONNECT_INTERVAL (in seconds)
	if interval := os.Getenv("RECONNECT_INTERVAL"); interval != "" {
		s, err := strconv.Atoi(interval)
		if err != nil || s < 1 {
			return nil, fmt.Errorf("invalid RECONNECT_INTERVAL: %q", interval)
		}
		config.ReconnectInterval = time.Duration(s) * time.Second
	}

	// Optional: PLAYER_COMMAND / MIC_COMMAND
	if cmd := os.Getenv("PLAYER_COMMAND"); cmd != "" {
		config.PlayerCommand = cmd
	}
	if cmd := os.Getenv("MIC_COMMAND"); cmd != "" {
		config.MicCommand = cmd
	}

	// Optional: VAD_SPEECH_THRESHOLD / VAD_SILENCE_THRESHOLD
	if th := os.Getenv("VAD_SPEECH_THRESHOLD"); th != "" {
		f, err := strconv.ParseFloat(th, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VAD_SPEECH_THRESHOLD: %w", err)
		}
		config.SpeechThreshold = f
	}
	if th := os.Getenv("VAD_SILENCE_THRESHOLD"); th != "" {
		f, err := strconv.ParseFloat(th, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VAD_SILENCE_THRESHOLD: %w", err)
		}
		config.SilenceThreshold = f
	}
	if config.SilenceThreshold > config.SpeechThreshold {
		return nil, fmt.Errorf("VAD_SILENCE_THRESHOLD must not exceed VAD_SPEECH_THRESHOLD")
	}

	// Optional: VAD_START_FRAMES / VAD_END_FRAMES (20ms frames)
	if frames := os.Getenv("VAD_START_FRAMES"); frames != "" {
		n, err := strconv.Atoi(frames)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid VAD_START_FRAMES: %q", frames)
		}
		config.StartFrames = n
	}
	if frames := os.Getenv("VAD_END_FRAMES"); frames != "" {
		n, err := strconv.Atoi(frames)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid VAD_END_FRAMES: %q", frames)
		}
		config.EndFrames = n
	}

	// Optional: VAD_PREROLL_MS / MIN_UTTERANCE_MS
	if ms := os.Getenv("VAD_PREROLL_MS"); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid VAD_PREROLL_MS: %q", ms)
		}
		config.PreRoll = time.Duration(n) * time.Millisecond
	}
	if ms := os.Getenv("MIN_UTTERANCE_MS"); ms != "" {
		n, err := strconv.Atoi(ms)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid MIN_UTTERANCE_MS: %q", ms)
		}
		config.MinUtterance = time.Duration(n) * time.Millisecond
	}

	// Optional: SAMPLE_RATE
	if rate := os.Getenv("SAMPLE_RATE"); rate != "" {
		r, err := strconv.Atoi(rate)
		if err != nil || r < 8000 {
			return nil, fmt.Errorf("invalid SAMPLE_RATE: %q", rate)
		}
		config.SampleRate = r
	}

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: GEMINI_API_KEY (dev server runs a canned responder without it)
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	// Optional: REDIS_URL
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}

	// Optional: REDIS_PASSWORD
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: MAX_SESSIONS
	if maxSessions := os.Getenv("MAX_SESSIONS"); maxSessions != "" {
		m, err := strconv.Atoi(maxSessions)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_SESSIONS: %w", err)
		}
		config.MaxSessions = m
	}

	// Optional: SESSION_TIMEOUT (in minutes)
	if timeout := os.Getenv("SESSION_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TIMEOUT: %w", err)
		}
		config.SessionTimeout = time.Duration(t) * time.Minute
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	// Optional: MAX_BUFFER_SIZE (in bytes)
	if bufferSize := os.Getenv("MAX_BUFFER_SIZE"); bufferSize != "" {
		b, err := strconv.Atoi(bufferSize)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BUFFER_SIZE: %w", err)
		}
		config.MaxBufferSize = b
	}

	// Optional: MERGE_MAX_SENTENCES
	if merge := os.Getenv("MERGE_MAX_SENTENCES"); merge != "" {
		m, err := strconv.Atoi(merge)
		if err != nil || m < 1 {
			return nil, fmt.Errorf("invalid MERGE_MAX_SENTENCES: %q", merge)
		}
		config.MergeMaxSentences = m
	}

	// Optional: PROGRESSIVE_MERGE ("true" / "false")
	if prog := os.Getenv("PROGRESSIVE_MERGE"); prog != "" {
		b, err := strconv.ParseBool(prog)
		if err != nil {
			return nil, fmt.Errorf("invalid PROGRESSIVE_MERGE: %w", err)
		}
		config.ProgressiveMerge = b
	}

	return config, nil
}
