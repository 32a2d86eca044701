package sentence

import (
	"regexp"
	"strings"
)

// Punctuation that ends a sentence
var endPunctuations = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// Commas usable as an early split point for the first sentence
var commas = map[rune]bool{
	',': true, '，': true, '、': true, ';': true, '；': true,
}

// Suffixes that look like sentence ends but are not
var abbreviations = []string{
	"Mr.", "Mrs.", "Dr.", "Prof.", "Inc.", "Ltd.", "Jr.", "Sr.",
	"e.g.", "i.e.", "vs.", "St.", "Rd.",
}

var isolatedNumberRe = regexp.MustCompile(`^(\d+[.)、]?|\(\d+\)|[\x{2460}-\x{2473}])$`)

// Segment splits text into complete sentences and the trailing incomplete
// remainder. Runs of end punctuation ("...", "。。。") stay attached to
// their sentence; abbreviations do not end a sentence.
func Segment(text string) ([]string, string) {
	runes := []rune(strings.TrimSpace(text))
	var sentences []string
	start, i := 0, 0
	for i < len(runes) {
		if !endPunctuations[runes[i]] {
			i++
			continue
		}
		j := i + 1
		for j < len(runes) && endPunctuations[runes[j]] {
			j++
		}
		candidate := strings.TrimSpace(string(runes[start:j]))
		if candidate != "" && !endsWithAbbreviation(candidate) {
			sentences = append(sentences, candidate)
			start = j
		}
		i = j
	}
	return sentences, strings.TrimSpace(string(runes[start:]))
}

func endsWithAbbreviation(text string) bool {
	for _, abbrev := range abbreviations {
		if strings.HasSuffix(text, abbrev) {
			return true
		}
	}
	return false
}

// ContainsEndPunctuation reports whether text contains a sentence end
func ContainsEndPunctuation(text string) bool {
	for _, r := range text {
		if endPunctuations[r] {
			return true
		}
	}
	return false
}

func containsComma(text string) bool {
	for _, r := range text {
		if commas[r] {
			return true
		}
	}
	return false
}

// splitAtComma splits at the first comma outside markdown emphasis or code
// spans, keeping the comma with the head.
func splitAtComma(text string) (string, string) {
	runes := []rune(text)
	backticks, stars := 0, 0
	for i, r := range runes {
		switch {
		case r == '`':
			backticks++
		case r == '*':
			stars++
		case commas[r]:
			if backticks%2 == 0 && stars%2 == 0 {
				return strings.TrimSpace(string(runes[:i+1])), strings.TrimSpace(string(runes[i+1:]))
			}
		}
	}
	return text, ""
}

// Divider incrementally segments a token stream into sentences.
// Feed returns the complete sentences formed so far; Flush drains the rest.
type Divider struct {
	fasterFirstResponse bool
	buffer              string
	isFirstSentence     bool
}

// NewDivider creates a Divider. fasterFirstResponse allows the very first
// sentence to be cut at a comma so playback can start sooner.
func NewDivider(fasterFirstResponse bool) *Divider {
	return &Divider{
		fasterFirstResponse: fasterFirstResponse,
		isFirstSentence:     true,
	}
}

// Feed appends a streamed chunk and returns any sentences completed by it
func (d *Divider) Feed(chunk string) []string {
	d.buffer += chunk
	return d.drain()
}

// Flush segments whatever is buffered and returns it, including the final
// fragment even without end punctuation
func (d *Divider) Flush() []string {
	out := d.drain()
	if rest := strings.TrimSpace(d.buffer); rest != "" {
		out = append(out, postProcessOne(rest))
	}
	d.buffer = ""
	return out
}

// Reset prepares the divider for a new conversation turn
func (d *Divider) Reset() {
	d.buffer = ""
	d.isFirstSentence = true
}

func (d *Divider) drain() []string {
	var out []string

	// First sentence comma cut for a faster first response
	if d.isFirstSentence && d.fasterFirstResponse && containsComma(d.buffer) {
		head, rest := splitAtComma(d.buffer)
		if head != "" && rest != "" {
			out = append(out, head)
			d.buffer = rest
			d.isFirstSentence = false
		}
	}

	// Newlines are hard boundaries (markdown lines): everything before the
	// last newline is complete, remainder included.
	for {
		idx := strings.IndexByte(d.buffer, '\n')
		if idx < 0 {
			break
		}
		line := d.buffer[:idx]
		d.buffer = d.buffer[idx+1:]
		sentences, rest := Segment(line)
		out = append(out, sentences...)
		if rest != "" {
			out = append(out, rest)
		}
	}

	if ContainsEndPunctuation(d.buffer) {
		sentences, rest := Segment(d.buffer)
		out = append(out, sentences...)
		d.buffer = rest
	}

	if len(out) > 0 {
		d.isFirstSentence = false
	}
	return postProcess(out)
}

// postProcess merges isolated list numbers into the sentence that follows
// them ("1." + "First step" -> "1. First step") and trims trailing
// fullwidth stops that TTS should not read out.
func postProcess(sentences []string) []string {
	if len(sentences) == 0 {
		return sentences
	}
	merged := make([]string, 0, len(sentences))
	pending := ""
	for _, s := range sentences {
		stripped := strings.TrimSpace(s)
		if isolatedNumberRe.MatchString(stripped) {
			pending = stripped + " "
			continue
		}
		if pending != "" {
			merged = append(merged, postProcessOne(pending+stripped))
			pending = ""
			continue
		}
		merged = append(merged, postProcessOne(s))
	}
	if pending != "" {
		merged = append(merged, strings.TrimSpace(pending))
	}
	return merged
}

func postProcessOne(s string) string {
	s = strings.TrimRight(s, " \t")
	if strings.HasSuffix(s, "。") || strings.HasSuffix(s, "，") {
		s = strings.TrimSuffix(strings.TrimSuffix(s, "。"), "，")
	}
	return s
}
