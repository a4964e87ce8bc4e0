package topics

import (
	"regexp"
	"sort"
	"strings"

	"podcast-summarizer/internal/models"
)

// Detector extracts discussion topics from transcript text. It ranks
// stopword-filtered keywords by frequency and attaches the words that
// co-occur with each keyword in the same sentence.
type Detector struct {
	// MaxTopics caps the number of topics returned.
	MaxTopics int

	// MinWordLength filters out short tokens before counting.
	MinWordLength int
}

// NewDetector returns a Detector returning at most maxTopics topics.
func NewDetector(maxTopics int) *Detector {
	if maxTopics <= 0 {
		maxTopics = 5
	}
	return &Detector{
		MaxTopics:     maxTopics,
		MinWordLength: 3,
	}
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]+(?:'[a-z]+)?`)

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

// Detect returns topics ordered by relevance. An empty or
// all-stopword transcript produces no topics rather than an error.
func (d *Detector) Detect(text string) []models.Topic {
	sentences := sentenceSplit.Split(text, -1)

	counts := map[string]int{}
	cooccur := map[string]map[string]int{}

	for _, sentence := range sentences {
		words := d.keywords(sentence)
		for _, w := range words {
			counts[w]++
		}
		for _, w := range words {
			if cooccur[w] == nil {
				cooccur[w] = map[string]int{}
			}
			for _, other := range words {
				if other != w {
					cooccur[w][other]++
				}
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}

	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	maxCount := counts[ranked[0]]
	limit := d.MaxTopics
	if limit > len(ranked) {
		limit = len(ranked)
	}

	topics := make([]models.Topic, 0, limit)
	for _, w := range ranked[:limit] {
		topics = append(topics, models.Topic{
			Topic:    capitalize(w),
			Score:    float64(counts[w]) / float64(maxCount),
			Keywords: topKeywords(cooccur[w], 3),
		})
	}
	return topics
}

// keywords tokenizes a sentence into lowercased, stopword-filtered words.
func (d *Detector) keywords(sentence string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(sentence), -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if len(w) < d.MinWordLength || stopwords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// topKeywords returns the n most frequent co-occurring words.
func topKeywords(counts map[string]int, n int) []string {
	if len(counts) == 0 {
		return nil
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if n > len(words) {
		n = len(words)
	}
	return words[:n]
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

var stopwords = map[string]bool{}

func init() {
	list := []string{
		"the", "and", "that", "this", "with", "for", "was", "are", "but",
		"not", "you", "all", "can", "had", "her", "his", "one", "our",
		"out", "has", "have", "been", "were", "they", "them", "then",
		"than", "there", "their", "what", "when", "where", "which",
		"while", "who", "whom", "why", "how", "its", "it's", "into",
		"just", "like", "more", "most", "some", "such", "only", "other",
		"over", "very", "also", "about", "after", "again", "any",
		"because", "before", "being", "between", "both", "did", "does",
		"doing", "down", "during", "each", "few", "from", "further",
		"here", "him", "himself", "herself", "itself", "too", "under",
		"until", "your", "yours", "she", "would", "could", "should",
		"will", "don't", "didn't", "doesn't", "i'm", "i've", "we're",
		"you're", "he's", "she's", "that's", "we've", "they're", "going",
		"know", "yeah", "okay", "really", "think", "actually", "kind",
		"mean", "right", "well", "gonna", "get", "got", "lot", "say",
		"said", "way", "thing", "things", "want", "people", "time",
		"make", "see", "now", "even", "much", "back", "good", "still",
	}
	for _, w := range list {
		stopwords[w] = true
	}
}
