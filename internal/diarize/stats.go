package diarize

import (
	"math"
	"sort"

	"podcast-summarizer/internal/models"
)

// Statistics summarizes speaker participation over consolidated
// segments. duration is the full recording length in seconds; speaking
// time beyond it only affects the silence figures, which are clamped
// at zero.
func Statistics(segments []models.ConsolidatedSegment, duration float64) *models.SpeakerStatistics {
	if len(segments) == 0 {
		return nil
	}

	speakingTime := map[string]float64{}
	segmentCount := map[string]int{}
	for _, s := range segments {
		speakingTime[s.Speaker] += s.Duration
		segmentCount[s.Speaker]++
	}

	speakers := make([]string, 0, len(speakingTime))
	for speaker := range speakingTime {
		speakers = append(speakers, speaker)
	}
	sort.Slice(speakers, func(i, j int) bool {
		if speakingTime[speakers[i]] != speakingTime[speakers[j]] {
			return speakingTime[speakers[i]] > speakingTime[speakers[j]]
		}
		return speakers[i] < speakers[j]
	})
	primary := speakers[0]

	totalSpeech := 0.0
	for _, t := range speakingTime {
		totalSpeech += t
	}
	silence := duration - totalSpeech
	if silence < 0 {
		silence = 0
	}
	silencePct := 0.0
	if duration > 0 {
		silencePct = round1(silence / duration * 100)
	}

	transitions := 0
	for i := 1; i < len(segments); i++ {
		if segments[i].Speaker != segments[i-1].Speaker {
			transitions++
		}
	}

	stats := &models.SpeakerStatistics{
		TotalDuration:      round2(duration),
		TotalSpeechTime:    round2(totalSpeech),
		SilenceTime:        round2(silence),
		SilencePercentage:  silencePct,
		SpeakerCount:       len(speakers),
		PrimarySpeaker:     primary,
		SegmentCount:       len(segments),
		SpeakerTransitions: transitions,
	}

	for _, speaker := range speakers {
		pct := 0.0
		if duration > 0 {
			pct = round1(speakingTime[speaker] / duration * 100)
		}
		avg := 0.0
		if segmentCount[speaker] > 0 {
			avg = round2(speakingTime[speaker] / float64(segmentCount[speaker]))
		}
		stats.Speakers = append(stats.Speakers, models.SpeakerStat{
			ID:                 speaker,
			SpeakingTime:       round2(speakingTime[speaker]),
			Percentage:         pct,
			Segments:           segmentCount[speaker],
			AvgSegmentDuration: avg,
			IsPrimary:          speaker == primary,
		})
	}

	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
