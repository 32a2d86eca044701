package brain

import "context"

// Brain produces the pet's reply to one user turn, streaming text chunks to
// onChunk as they are generated. Implementations keep their own conversation
// history across calls.
type Brain interface {
	StreamReply(ctx context.Context, userText string, onChunk func(text string)) error
	Reset()
	Close() error
}

// New returns a Gemini-backed brain when an API key is available, otherwise
// the canned offline brain so the server works without credentials.
func New(ctx context.Context, apiKey string) (Brain, error) {
	if apiKey == "" {
		return NewEchoBrain(), nil
	}
	return NewGeminiBrain(ctx, apiKey)
}
