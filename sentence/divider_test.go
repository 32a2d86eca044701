package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	t.Run("Basic Sentences", func(t *testing.T) {
		sentences, rest := Segment("Hello world. How are you? Fine")
		assert.Equal(t, []string{"Hello world.", "How are you?"}, sentences)
		assert.Equal(t, "Fine", rest)
	})

	t.Run("Punctuation Runs Stay Attached", func(t *testing.T) {
		sentences, rest := Segment("Wait... okay. Then")
		assert.Equal(t, []string{"Wait...", "okay."}, sentences)
		assert.Equal(t, "Then", rest)
	})

	t.Run("Abbreviations Do Not End Sentences", func(t *testing.T) {
		sentences, rest := Segment("Dr. Smith arrived. He waved")
		assert.Equal(t, []string{"Dr. Smith arrived."}, sentences)
		assert.Equal(t, "He waved", rest)
	})

	t.Run("CJK Punctuation", func(t *testing.T) {
		sentences, rest := Segment("你好。今天怎么样？还行")
		assert.Equal(t, []string{"你好。", "今天怎么样？"}, sentences)
		assert.Equal(t, "还行", rest)
	})
}

func TestDividerStreaming(t *testing.T) {
	d := NewDivider(false)

	out := d.Feed("Hello world. How")
	assert.Equal(t, []string{"Hello world."}, out)

	out = d.Feed(" are you? I am")
	assert.Equal(t, []string{"How are you?"}, out)

	out = d.Feed(" fine")
	assert.Empty(t, out)

	out = d.Flush()
	assert.Equal(t, []string{"I am fine"}, out)
}

func TestDividerFasterFirstResponse(t *testing.T) {
	t.Run("First Sentence Cut At Comma", func(t *testing.T) {
		d := NewDivider(true)
		out := d.Feed("Well, that is a long opening sentence.")
		assert.Equal(t, []string{"Well,", "that is a long opening sentence."}, out)
	})

	t.Run("Later Sentences Keep Commas", func(t *testing.T) {
		d := NewDivider(true)
		d.Feed("Hi there.")
		out := d.Feed("Second, with a comma, stays whole.")
		assert.Equal(t, []string{"Second, with a comma, stays whole."}, out)
	})

	t.Run("Comma Inside Code Span Ignored", func(t *testing.T) {
		d := NewDivider(true)
		out := d.Feed("Use `f(a, b)` here")
		assert.Empty(t, out)
		assert.Equal(t, []string{"Use `f(a, b)` here"}, d.Flush())
	})
}

func TestDividerNewlineBoundary(t *testing.T) {
	d := NewDivider(false)
	out := d.Feed("first line\nsecond line. tail")
	assert.Equal(t, []string{"first line"}, out)
	assert.Equal(t, []string{"second line.", "tail"}, d.Flush())
}

func TestDividerIsolatedNumbersMerge(t *testing.T) {
	d := NewDivider(false)
	out := d.Feed("1. First step. 2. Second step.")
	assert.Equal(t, []string{"1. First step.", "2. Second step."}, out)
}

func TestDividerTrimsFullwidthStops(t *testing.T) {
	d := NewDivider(false)
	out := d.Feed("今天天气不错。")
	assert.Equal(t, []string{"今天天气不错"}, out)
}

func TestDividerNoTextLost(t *testing.T) {
	// every character fed in comes back out across Feed results and Flush
	d := NewDivider(true)
	chunks := []string{"He said, hello", " there! And then... ", "he left\nwithout a word"}
	var got []string
	for _, c := range chunks {
		got = append(got, d.Feed(c)...)
	}
	got = append(got, d.Flush()...)

	joined := ""
	for _, s := range got {
		joined += s
	}
	assert.Contains(t, joined, "He said,")
	assert.Contains(t, joined, "hello there!")
	assert.Contains(t, joined, "And then...")
	assert.Contains(t, joined, "he left")
	assert.Contains(t, joined, "without a word")
}

func TestDividerReset(t *testing.T) {
	d := NewDivider(true)
	d.Feed("leftover text")
	d.Reset()
	assert.Empty(t, d.Flush())

	// first-sentence comma cut applies again after reset
	out := d.Feed("So, a fresh start.")
	assert.Equal(t, []string{"So,", "a fresh start."}, out)
}
