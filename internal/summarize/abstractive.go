package summarize

import (
	"runtime"
	"strings"
	"sync"
)

// ShortContentSummary is returned when the transcript is too short to
// summarize meaningfully.
const ShortContentSummary = "The content is too short for a meaningful summary."

// AbstractiveSummarizer condenses a transcript into a short narrative.
// Without a local generative model it composes the summary from
// representative sentences; long transcripts are split into chunks that
// are summarized in parallel and reassembled in order.
type AbstractiveSummarizer struct {
	// Workers caps the chunk worker pool. Zero means one worker per CPU.
	Workers int

	// longTextWords is the word count above which chunking kicks in.
	longTextWords int
}

// NewAbstractive returns an AbstractiveSummarizer with defaults.
func NewAbstractive(workers int) *AbstractiveSummarizer {
	return &AbstractiveSummarizer{
		Workers:       workers,
		longTextWords: 600,
	}
}

// Summarize produces the abstractive summary for a transcript.
func (s *AbstractiveSummarizer) Summarize(text string) string {
	cleaned := CleanTranscript(text)

	if WordCount(cleaned) < 20 {
		return ShortContentSummary
	}
	if WordCount(cleaned) > s.longTextWords {
		return s.summarizeLong(cleaned)
	}
	return summarizeChunk(cleaned)
}

// summarizeLong splits the text into sentence chunks, summarizes each
// in parallel, and joins the partial summaries in chunk order. A still
// long joined summary goes through one more condensing pass.
func (s *AbstractiveSummarizer) summarizeLong(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) <= 10 {
		return summarizeChunk(text)
	}

	chunksTarget := len(sentences) / 200
	if chunksTarget < 3 {
		chunksTarget = 3
	}
	if chunksTarget > 5 {
		chunksTarget = 5
	}
	chunkSize := len(sentences) / chunksTarget
	if chunkSize < 10 {
		chunkSize = 10
	}

	var chunks []string
	for i := 0; i < len(sentences); i += chunkSize {
		end := i + chunkSize
		if end > len(sentences) {
			end = len(sentences)
		}
		chunk := strings.TrimSpace(strings.Join(sentences[i:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	summaries := make([]string, len(chunks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				summaries[idx] = summarizeChunk(chunks[idx])
			}
		}()
	}
	for i := range chunks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	joined := strings.Join(summaries, " ")
	if WordCount(joined) > 500 {
		return summarizeChunk(joined)
	}
	return joined
}

// summarizeChunk condenses one chunk of text. Short chunks pass through
// unchanged; longer ones keep the opening, middle, and closing
// sentences joined with ellipsis markers.
func summarizeChunk(chunk string) string {
	if WordCount(chunk) < 30 {
		return chunk
	}

	sentences := SplitSentences(chunk)
	if len(sentences) <= 4 {
		return strings.Join(sentences, " ")
	}

	first := strings.Join(sentences[:3], " ")

	midStart := len(sentences)/2 - 1
	if midStart < 3 {
		midStart = 3
	}
	midEnd := midStart + 2
	if midEnd > len(sentences) {
		midEnd = len(sentences)
	}
	mid := strings.Join(sentences[midStart:midEnd], " ")

	last := strings.Join(sentences[len(sentences)-2:], " ")

	return first + " [...] " + mid + " [...] " + last
}
