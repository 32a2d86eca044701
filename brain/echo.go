package brain

import (
	"context"
	"fmt"
	"sync"
)

// cannedReplies are multi-sentence so the sentence divider and the merged
// audio path get exercised even without an API key
var cannedReplies = []string{
	"[happy] Oh, you said \"%s\"! That sounds interesting. Tell me more about it, I'm all ears.",
	"[thinking] Hmm, \"%s\"... Let me think about that for a second. Okay, I have absolutely no idea, but I love that you asked!",
	"[excited] \"%s\"? That's my favorite topic now! Well, one of them. I have many favorite topics.",
	"[neutral] I heard \"%s\". I'm running in offline mode right now, so my answers are a bit rehearsed. Still happy to chat though!",
}

// EchoBrain is the offline fallback: it cycles through canned replies and
// streams them in small chunks to mimic model latency characteristics.
type EchoBrain struct {
	mu    sync.Mutex
	turns int
}

func NewEchoBrain() *EchoBrain {
	return &EchoBrain{}
}

func (b *EchoBrain) StreamReply(ctx context.Context, userText string, onChunk func(string)) error {
	b.mu.Lock()
	reply := fmt.Sprintf(cannedReplies[b.turns%len(cannedReplies)], truncate(userText, 40))
	b.turns++
	b.mu.Unlock()

	// stream word by word so downstream sees partial chunks
	runes := []rune(reply)
	const chunkSize = 12
	for i := 0; i < len(runes); i += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		onChunk(string(runes[i:end]))
	}
	return nil
}

func (b *EchoBrain) Reset() {
	b.mu.Lock()
	b.turns = 0
	b.mu.Unlock()
}

func (b *EchoBrain) Close() error {
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
