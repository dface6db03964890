package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextIsOneChunk(t *testing.T) {
	chunks := chunkText("Refunds take five business days. Contact finance for details.", 500)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Refunds take five business days. Contact finance for details.", chunks[0])
}

func TestChunkText_SplitsOnSentenceBoundaries(t *testing.T) {
	first := strings.Repeat("a", 300) + "."
	second := strings.Repeat("b", 300) + "."
	chunks := chunkText(first+" "+second, 500)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestChunkText_NeverSplitsASentence(t *testing.T) {
	text := "One. Two is a bit longer than one. Three closes it out!"
	chunks := chunkText(text, 30)

	for _, chunk := range chunks {
		assert.Regexp(t, `[.!?]$`, chunk)
	}
	assert.Equal(t, strings.Join(chunks, " "), text)
}

func TestChunkText_EmptyInput(t *testing.T) {
	assert.Empty(t, chunkText("", 500))
	assert.Empty(t, chunkText("   \n\n  ", 500))
}

func TestSplitSentences_NewlinesAreBoundaries(t *testing.T) {
	sentences := splitSentences("Shipping policy\nOrders ship in two days. International varies?")

	require.Len(t, sentences, 3)
	assert.Equal(t, "Shipping policy", sentences[0])
	assert.Equal(t, "Orders ship in two days.", sentences[1])
	assert.Equal(t, "International varies?", sentences[2])
}

func TestSplitSentences_KeepsPunctuation(t *testing.T) {
	sentences := splitSentences("Really! Are you sure? Yes.")

	require.Len(t, sentences, 3)
	assert.Equal(t, "Really!", sentences[0])
	assert.Equal(t, "Are you sure?", sentences[1])
	assert.Equal(t, "Yes.", sentences[2])
}
