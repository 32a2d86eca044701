package sentence

import (
	"regexp"
	"strings"
)

// Text filters applied before synthesis. Display text keeps its markdown
// and emotion tags; only the spoken text is filtered.

var emotionTagRe = regexp.MustCompile(`\[(\w+)\]`)

var trailingPunct = ".,;:!?。，、；：！？"

// IsHeading reports whether text is a markdown heading line
func IsHeading(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "#")
}

// ExtractHeadingContent returns a heading's text without the # markers
func ExtractHeadingContent(text string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), "#"))
}

// ExtractEmotions returns the emotion tags ("[joy]" -> "joy") found in text,
// in order of appearance
func ExtractEmotions(text string) []string {
	matches := emotionTagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	emotions := make([]string, 0, len(matches))
	for _, m := range matches {
		emotions = append(emotions, m[1])
	}
	return emotions
}

// StripEmotionTags removes emotion tags from text
func StripEmotionTags(text string) string {
	return strings.TrimSpace(emotionTagRe.ReplaceAllString(text, ""))
}

// IsEmotionTagOnly reports whether text is nothing but emotion tags
func IsEmotionTagOnly(text string) bool {
	return strings.Contains(text, "[") && StripEmotionTags(text) == ""
}

// FilterHeadingLines drops markdown heading lines embedded in text
func FilterHeadingLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !IsHeading(line) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// IsPunctuationOnly reports whether text carries nothing speakable
func IsPunctuationOnly(text string) bool {
	for _, r := range text {
		if strings.ContainsRune(trailingPunct, r) || strings.ContainsRune(" \t\n'\"»」』）】", r) {
			continue
		}
		return false
	}
	return true
}

// TrimTrailingPunctuation removes trailing punctuation runs; spoken text
// does not need the final stop read out
func TrimTrailingPunctuation(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), trailingPunct)
}

// SpeakableText runs the full spoken-text filter chain: emotion tags and
// embedded heading lines removed, trailing punctuation trimmed. Returns ""
// when nothing speakable remains.
func SpeakableText(text string) string {
	filtered := FilterHeadingLines(StripEmotionTags(text))
	if filtered == "" || IsPunctuationOnly(filtered) {
		return ""
	}
	return TrimTrailingPunctuation(filtered)
}
