package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChunkChars is the chunk size bound used when a caller does not
// supply one.
const DefaultMaxChunkChars = 10000

// SplitSentences splits text at sentence boundaries. A sentence ends at a
// '.', '!', or '?' followed by whitespace; the whitespace is consumed as the
// separator and is not retained in sentence content. Text with no terminating
// punctuation yields a single sentence.
func SplitSentences(text string) []string {
	var sentences []string

	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isSentenceTerminator(runes[i]) {
			continue
		}

		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}

		i++
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}

		start = i + 1
	}

	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}

	return sentences
}

// Chunk partitions text into an ordered sequence of chunks bounded by
// maxChars, breaking only at sentence boundaries. Sentences are accumulated
// greedily, joined by a single space, while the accumulated length stays
// strictly below maxChars; a single sentence whose length alone reaches the
// bound becomes its own oversized chunk unsplit. Empty input yields an empty
// sequence, and the function never fails.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var chunks []string

	current := ""

	for _, sentence := range SplitSentences(trimmed) {
		switch {
		case current == "":
			current = sentence
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(sentence) < maxChars:
			current += " " + sentence
		default:
			chunks = append(chunks, current)
			current = sentence
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
