// textchat talks to the brain directly, bypassing the WebSocket protocol and
// the audio pipeline. Useful for checking prompts and the sentence divider.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/deskpet-app/deskpet/brain"
	"github.com/deskpet-app/deskpet/sentence"
)

func main() {
	br, err := brain.New(context.Background(), os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		log.Fatalf("Failed to create brain: %v", err)
	}
	defer br.Close()

	fmt.Println("Chatting with the brain (Ctrl+D to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		divider := sentence.NewDivider(true)
		err := br.StreamReply(context.Background(), line, func(chunk string) {
			for _, s := range divider.Feed(chunk) {
				printSentence(s)
			}
		})
		if err != nil {
			log.Printf("❌ %v", err)
			continue
		}
		for _, s := range divider.Flush() {
			printSentence(s)
		}
	}
}

func printSentence(s string) {
	emotions := sentence.ExtractEmotions(s)
	text := sentence.StripEmotionTags(s)
	if len(emotions) > 0 {
		fmt.Printf("  [%s] %s\n", strings.Join(emotions, ","), text)
	} else {
		fmt.Printf("  %s\n", text)
	}
}
