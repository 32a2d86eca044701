package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmotionTags(t *testing.T) {
	assert.Equal(t, []string{"happy", "thinking"}, ExtractEmotions("[happy] Hi there [thinking] hmm"))
	assert.Nil(t, ExtractEmotions("no tags here"))

	assert.Equal(t, "Hi there", StripEmotionTags("[happy] Hi there"))
	assert.True(t, IsEmotionTagOnly(" [happy] [sad] "))
	assert.False(t, IsEmotionTagOnly("[happy] hello"))
	assert.False(t, IsEmotionTagOnly("hello"))
}

func TestHeadings(t *testing.T) {
	assert.True(t, IsHeading("## Setup"))
	assert.True(t, IsHeading("  # Indented"))
	assert.False(t, IsHeading("Not a # heading"))

	assert.Equal(t, "Setup", ExtractHeadingContent("## Setup"))
	assert.Equal(t, "body line", FilterHeadingLines("# Title\nbody line"))
}

func TestIsPunctuationOnly(t *testing.T) {
	assert.True(t, IsPunctuationOnly("..."))
	assert.True(t, IsPunctuationOnly("。！？"))
	assert.True(t, IsPunctuationOnly("  "))
	assert.False(t, IsPunctuationOnly("a."))
}

func TestSpeakableText(t *testing.T) {
	t.Run("Plain Sentence", func(t *testing.T) {
		assert.Equal(t, "Hello world", SpeakableText("Hello world!"))
	})

	t.Run("Emotion Tags Removed", func(t *testing.T) {
		assert.Equal(t, "Nice to see you", SpeakableText("[happy] Nice to see you."))
	})

	t.Run("Heading Only", func(t *testing.T) {
		assert.Equal(t, "", SpeakableText("## Section Two"))
	})

	t.Run("Punctuation Only", func(t *testing.T) {
		assert.Equal(t, "", SpeakableText("..."))
	})

	t.Run("Emotion Tag Only", func(t *testing.T) {
		assert.Equal(t, "", SpeakableText("[sad]"))
	})
}
