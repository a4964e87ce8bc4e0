package diarize

import (
	"fmt"

	"podcast-summarizer/internal/asr"
	"podcast-summarizer/internal/models"
)

// UnknownSpeaker labels the sentinel turn returned when diarization is
// unavailable. Downstream stages treat it as "no speaker information".
const UnknownSpeaker = "SPEAKER_UNKNOWN"

// sentinelEnd is large enough to cover any plausible audio.
const sentinelEnd = 100000.0

// Options bounds the number of speakers and optionally restricts
// diarization to a time window of the file.
type Options struct {
	// NumSpeakers is the exact speaker count when known. It overrides
	// MinSpeakers and MaxSpeakers.
	NumSpeakers int
	MinSpeakers int
	MaxSpeakers int

	// Offset and Window restrict processing to a slice of the file.
	// Window 0 means "to the end". Returned turn times are relative to
	// the window start.
	Offset float64
	Window float64
}

// speakerBounds resolves min/max from the options with defaults applied.
func (o Options) speakerBounds() (int, int) {
	min, max := o.MinSpeakers, o.MaxSpeakers
	if min <= 0 {
		min = 1
	}
	if max <= 0 {
		max = 8
	}
	if o.NumSpeakers > 0 {
		min, max = o.NumSpeakers, o.NumSpeakers
	}
	if max < min {
		max = min
	}
	return min, max
}

// Diarizer attributes time intervals of an audio file to speakers.
// Labels follow the SPEAKER_00 convention and carry no meaning beyond
// identity within one call.
type Diarizer interface {
	Diarize(audioPath string, opts Options) ([]models.SpeakerTurn, error)
}

// Sentinel is the single-turn fallback used when diarization cannot run
// at all. It spans the whole recording under one unknown identity.
func Sentinel() []models.SpeakerTurn {
	return []models.SpeakerTurn{{Start: 0, End: sentinelEnd, Speaker: UnknownSpeaker}}
}

// EnergyDiarizer is a local heuristic diarizer. It finds speech blocks
// by RMS silence detection and attributes a speaker change to every
// pause longer than TurnGap, cycling through the allowed identities.
// It stands in for a trained speaker-embedding model when none is
// available locally.
type EnergyDiarizer struct {
	// SampleRate used when decoding audio for energy analysis.
	SampleRate int

	// TurnGap is the pause length that suggests a change of speaker.
	TurnGap float64

	silence *asr.SilenceConfig
}

// NewEnergyDiarizer returns an EnergyDiarizer with defaults tuned for
// conversational speech.
func NewEnergyDiarizer(sampleRate int) *EnergyDiarizer {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &EnergyDiarizer{
		SampleRate: sampleRate,
		TurnGap:    1.0,
		silence:    asr.DefaultSilenceConfig(),
	}
}

func (d *EnergyDiarizer) Diarize(audioPath string, opts Options) ([]models.SpeakerTurn, error) {
	blocks, err := asr.DetectSpeechBlocksWindow(audioPath, d.silence, d.SampleRate, opts.Offset, opts.Window)
	if err != nil {
		return nil, fmt.Errorf("speech detection failed: %w", err)
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	minSpk, maxSpk := opts.speakerBounds()
	numSpeakers := d.estimateSpeakers(blocks, minSpk, maxSpk)

	turns := make([]models.SpeakerTurn, 0, len(blocks))
	speaker := 0
	for i, block := range blocks {
		if i > 0 && block.Start-blocks[i-1].End > d.TurnGap {
			speaker = (speaker + 1) % numSpeakers
		}
		turns = append(turns, models.SpeakerTurn{
			Start:   block.Start,
			End:     block.End,
			Speaker: fmt.Sprintf("SPEAKER_%02d", speaker),
		})
	}
	return turns, nil
}

// estimateSpeakers guesses how many identities to cycle through from
// the pause structure, clamped to the requested bounds.
func (d *EnergyDiarizer) estimateSpeakers(blocks []asr.SpeechBlock, minSpk, maxSpk int) int {
	longGaps := 0
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Start-blocks[i-1].End > d.TurnGap {
			longGaps++
		}
	}

	estimated := 1
	if longGaps > 0 {
		estimated = 2
	}
	if estimated < minSpk {
		estimated = minSpk
	}
	if estimated > maxSpk {
		estimated = maxSpk
	}
	return estimated
}
