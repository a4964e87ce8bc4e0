package summarize

import (
	"regexp"
	"strings"
)

var (
	// "Speaker 1 [00:01 - 00:05]: " prefixes added for display.
	speakerLabelPattern = regexp.MustCompile(`Speaker \d+\s+\[\d+:\d+\s+-\s+\d+:\d+\]:\s+`)

	// Bare timestamps like [00:00] or [00:00:00].
	timestampPattern = regexp.MustCompile(`\[\d+:\d+(?::\d+)?\]`)
)

// CleanTranscript strips speaker labels and timestamps so summarizers
// see only spoken content.
func CleanTranscript(text string) string {
	cleaned := speakerLabelPattern.ReplaceAllString(text, "")
	cleaned = timestampPattern.ReplaceAllString(cleaned, "")
	return cleaned
}

// SplitSentences splits text after sentence-ending punctuation followed
// by whitespace. Terminators stay attached to their sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if !isTerminator(runes[i]) {
			continue
		}
		// Consume a run of terminators ("?!", "...").
		for i+1 < len(runes) && isTerminator(runes[i+1]) {
			i++
			current.WriteRune(runes[i])
		}
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}

		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
