package diarize

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"podcast-summarizer/internal/asr"
	"podcast-summarizer/internal/models"
)

// ChunkedDiarizer wraps another Diarizer so long recordings are
// processed in fixed-duration windows, keeping memory bounded. Speaker
// labels are remapped first-seen-wins so an identity stays stable across
// chunk boundaries. A chunk that fails contributes no turns; the
// remaining chunks still produce output.
type ChunkedDiarizer struct {
	Inner Diarizer

	// ChunkDuration is the window length in seconds. Files at or below
	// this length are passed straight to Inner.
	ChunkDuration float64

	Log *logrus.Entry

	// duration overrides the ffprobe lookup in tests.
	duration func(audioPath string) (float64, error)
}

func (c *ChunkedDiarizer) totalDuration(audioPath string) (float64, error) {
	if c.duration != nil {
		return c.duration(audioPath)
	}
	return asr.GetAudioDuration(audioPath)
}

func (c *ChunkedDiarizer) Diarize(audioPath string, opts Options) ([]models.SpeakerTurn, error) {
	if c.ChunkDuration <= 0 || opts.Window > 0 {
		return c.Inner.Diarize(audioPath, opts)
	}

	total, err := c.totalDuration(audioPath)
	if err != nil || total <= c.ChunkDuration {
		// Unknown or short duration, process in one pass.
		return c.Inner.Diarize(audioPath, opts)
	}

	chunkCount := int(total/c.ChunkDuration) + 1
	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{
			"duration": total,
			"chunks":   chunkCount,
		}).Info("processing long audio in chunks")
	}

	var all []models.SpeakerTurn
	labelMap := map[string]string{}

	for i := 0; i < chunkCount; i++ {
		offset := float64(i) * c.ChunkDuration
		if offset >= total {
			break
		}

		chunkOpts := opts
		chunkOpts.Offset = offset
		chunkOpts.Window = c.ChunkDuration

		turns, err := c.Inner.Diarize(audioPath, chunkOpts)
		if err != nil {
			if c.Log != nil {
				c.Log.WithError(err).Warnf("chunk %d/%d failed, skipping", i+1, chunkCount)
			}
			continue
		}

		for _, t := range turns {
			global, ok := labelMap[t.Speaker]
			if !ok {
				global = fmt.Sprintf("SPEAKER_%02d", len(labelMap))
				labelMap[t.Speaker] = global
			}
			all = append(all, models.SpeakerTurn{
				Start:   t.Start + offset,
				End:     t.End + offset,
				Speaker: global,
			})
		}
	}

	return all, nil
}
