package summarize

import (
	"sort"
	"strings"
)

// NoKeyPoints is returned as the only point when nothing could be
// extracted from the transcript.
const NoKeyPoints = "No key points could be extracted."

// ExtractiveSummarizer picks the most representative sentences from a
// transcript. Sentences are scored by the frequency of the words they
// contain, a cheap approximation of graph-based sentence ranking, and
// the winners are returned in their original order.
type ExtractiveSummarizer struct {
	// SentenceCount is the maximum number of sentences to extract.
	SentenceCount int
}

// NewExtractive returns an ExtractiveSummarizer with the default
// sentence budget.
func NewExtractive() *ExtractiveSummarizer {
	return &ExtractiveSummarizer{SentenceCount: 20}
}

// Summarize returns the key sentences as a list of points. It never
// returns an empty list; when nothing can be extracted the single
// NoKeyPoints entry takes its place.
func (s *ExtractiveSummarizer) Summarize(text string) []string {
	cleaned := CleanTranscript(text)
	sentences := SplitSentences(cleaned)
	if len(sentences) == 0 {
		return []string{NoKeyPoints}
	}

	limit := s.SentenceCount
	if limit <= 0 {
		limit = 20
	}
	if len(sentences) <= limit {
		return sentences
	}

	freq := wordFrequencies(cleaned)

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, sentence := range sentences {
		ranked[i] = scored{index: i, score: sentenceScore(sentence, freq)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})

	chosen := ranked[:limit]
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].index < chosen[j].index })

	points := make([]string, 0, limit)
	for _, c := range chosen {
		points = append(points, sentences[c.index])
	}
	return points
}

// wordFrequencies counts lowercased words of three or more letters.
func wordFrequencies(text string) map[string]float64 {
	counts := map[string]float64{}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if len(word) < 3 {
			continue
		}
		counts[word]++
	}
	return counts
}

// sentenceScore averages word frequencies so long sentences do not win
// on length alone.
func sentenceScore(sentence string, freq map[string]float64) float64 {
	words := strings.Fields(strings.ToLower(sentence))
	if len(words) == 0 {
		return 0
	}
	var total float64
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		total += freq[word]
	}
	return total / float64(len(words))
}
