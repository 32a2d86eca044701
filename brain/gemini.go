package brain

import (
	"context"
	"fmt"
	"log"
	"sync"

	"google.golang.org/genai"

	"github.com/deskpet-app/deskpet/functions"
)

const modelName = "models/gemini-2.0-flash"

// maxToolRounds bounds the function-call loop per turn
const maxToolRounds = 3

// GeminiBrain streams replies from the Gemini API, keeping the conversation
// history so the pet remembers earlier turns in the session.
type GeminiBrain struct {
	client       *genai.Client
	systemPrompt string
	tools        []*genai.Tool

	// OnToolStatus, when set, is notified as function calls run
	OnToolStatus func(name, status string)

	mu      sync.Mutex
	history []*genai.Content
	closed  bool
}

func NewGeminiBrain(ctx context.Context, apiKey string) (*GeminiBrain, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	log.Printf("✅ Gemini brain ready (%s)", modelName)
	return &GeminiBrain{
		client:       client,
		systemPrompt: DefaultSystemPrompt,
		tools: []*genai.Tool{
			{
				FunctionDeclarations: []*genai.FunctionDeclaration{
					functions.GetPersonaCardFunctionDeclaration(),
				},
			},
		},
	}, nil
}

// StreamReply sends the user turn and streams the model's text back through
// onChunk. Function calls are resolved locally and fed back to the model
// before streaming continues.
func (b *GeminiBrain) StreamReply(ctx context.Context, userText string, onChunk func(string)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("brain is closed")
	}
	b.history = append(b.history, genai.NewContentFromText(userText, genai.RoleUser))
	contents := append([]*genai.Content(nil), b.history...)
	b.mu.Unlock()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(b.systemPrompt, genai.RoleUser),
		Tools:             b.tools,
	}

	var replyText string
	for round := 0; round < maxToolRounds; round++ {
		var calls []*genai.FunctionCall
		for resp, err := range b.client.Models.GenerateContentStream(ctx, modelName, contents, config) {
			if err != nil {
				return fmt.Errorf("gemini stream: %w", err)
			}
			if text := resp.Text(); text != "" {
				replyText += text
				onChunk(text)
			}
			calls = append(calls, resp.FunctionCalls()...)
		}
		if len(calls) == 0 {
			break
		}

		// resolve the calls and loop so the model can finish its answer
		var callParts, responseParts []*genai.Part
		for _, fc := range calls {
			log.Printf("🔧 Function call: %s", fc.Name)
			if b.OnToolStatus != nil {
				b.OnToolStatus(fc.Name, "running")
			}
			var response map[string]any
			switch fc.Name {
			case functions.PersonaCardFunctionName:
				response = map[string]any{"output": functions.GetPersonaCard()}
			default:
				response = map[string]any{"error": fmt.Sprintf("Unknown function: %s", fc.Name)}
			}
			callParts = append(callParts, &genai.Part{FunctionCall: fc})
			responseParts = append(responseParts, genai.NewPartFromFunctionResponse(fc.Name, response))
			if b.OnToolStatus != nil {
				b.OnToolStatus(fc.Name, "completed")
			}
		}
		contents = append(contents,
			genai.NewContentFromParts(callParts, genai.RoleModel),
			genai.NewContentFromParts(responseParts, genai.RoleUser),
		)
	}

	if replyText != "" {
		b.mu.Lock()
		b.history = append(b.history, genai.NewContentFromText(replyText, genai.RoleModel))
		b.mu.Unlock()
	}
	return nil
}

// Reset drops the conversation history
func (b *GeminiBrain) Reset() {
	b.mu.Lock()
	b.history = nil
	b.mu.Unlock()
}

// Close releases the client
func (b *GeminiBrain) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
