package diarize

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"podcast-summarizer/internal/models"
)

// windowedDiarizer serves a fixed global timeline. A request with a
// window returns only the turns intersecting it, clipped and shifted to
// window-relative times, the way a per-chunk run would.
type windowedDiarizer struct {
	timeline []models.SpeakerTurn
	failAt   float64 // chunk offset that errors, negative to disable
	calls    int
}

func (d *windowedDiarizer) Diarize(audioPath string, opts Options) ([]models.SpeakerTurn, error) {
	d.calls++

	start := opts.Offset
	end := math.Inf(1)
	if opts.Window > 0 {
		if d.failAt >= 0 && opts.Offset == d.failAt {
			return nil, errors.New("chunk decode failed")
		}
		end = opts.Offset + opts.Window
	}

	var out []models.SpeakerTurn
	for _, t := range d.timeline {
		s := math.Max(t.Start, start)
		e := math.Min(t.End, end)
		if e <= s {
			continue
		}
		out = append(out, models.SpeakerTurn{
			Start:   s - start,
			End:     e - start,
			Speaker: t.Speaker,
		})
	}
	return out, nil
}

func speakingTime(turns []models.SpeakerTurn) map[string]float64 {
	totals := map[string]float64{}
	for _, t := range turns {
		totals[t.Speaker] += t.End - t.Start
	}
	return totals
}

// The timeline includes a turn spanning a chunk boundary so clipping is
// exercised on both sides of the cut.
func chunkTestTimeline() []models.SpeakerTurn {
	return []models.SpeakerTurn{
		{Start: 0, End: 4, Speaker: "SPEAKER_00"},
		{Start: 5, End: 9, Speaker: "SPEAKER_01"},
		{Start: 12, End: 18, Speaker: "SPEAKER_00"},
		{Start: 18, End: 23, Speaker: "SPEAKER_01"},
	}
}

func TestChunkedMatchesSinglePass(t *testing.T) {
	inner := &windowedDiarizer{timeline: chunkTestTimeline(), failAt: -1}

	single, err := inner.Diarize("audio.wav", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := speakingTime(single)

	chunked := &ChunkedDiarizer{
		Inner:         inner,
		ChunkDuration: 10,
		duration:      func(string) (float64, error) { return 25, nil },
	}
	turns, err := chunked.Diarize("audio.wav", Options{})
	if err != nil {
		t.Fatal(err)
	}
	got := speakingTime(turns)

	if len(got) != len(want) {
		t.Fatalf("speaker count differs: chunked %v vs single %v", got, want)
	}
	for speaker, total := range want {
		if math.Abs(got[speaker]-total) > 1e-9 {
			t.Errorf("speaker %s: chunked %.2fs vs single %.2fs", speaker, got[speaker], total)
		}
	}
}

func TestChunkedSkipsFailedChunk(t *testing.T) {
	inner := &windowedDiarizer{timeline: chunkTestTimeline(), failAt: 10}

	chunked := &ChunkedDiarizer{
		Inner:         inner,
		ChunkDuration: 10,
		duration:      func(string) (float64, error) { return 25, nil },
	}
	turns, err := chunked.Diarize("audio.wav", Options{})
	if err != nil {
		t.Fatalf("a failed chunk must not fail the whole run: %v", err)
	}

	got := speakingTime(turns)
	// The failed 10-20 window contributes nothing; the surrounding
	// chunks still do.
	if math.Abs(got["SPEAKER_00"]-4) > 1e-9 {
		t.Errorf("SPEAKER_00: got %.2fs, want 4s", got["SPEAKER_00"])
	}
	if math.Abs(got["SPEAKER_01"]-7) > 1e-9 {
		t.Errorf("SPEAKER_01: got %.2fs, want 7s", got["SPEAKER_01"])
	}
	for _, turn := range turns {
		if turn.Start >= 10 && turn.End <= 20 {
			t.Errorf("turn from the failed window leaked through: %+v", turn)
		}
	}
}

// chunkLocalDiarizer relabels speakers per request in order of first
// appearance, the way a model without cross-chunk identity would.
type chunkLocalDiarizer struct {
	inner windowedDiarizer
}

func (d *chunkLocalDiarizer) Diarize(audioPath string, opts Options) ([]models.SpeakerTurn, error) {
	turns, err := d.inner.Diarize(audioPath, opts)
	if err != nil {
		return nil, err
	}
	local := map[string]string{}
	out := make([]models.SpeakerTurn, len(turns))
	for i, t := range turns {
		label, ok := local[t.Speaker]
		if !ok {
			label = fmt.Sprintf("LOCAL_%02d", len(local))
			local[t.Speaker] = label
		}
		out[i] = models.SpeakerTurn{Start: t.Start, End: t.End, Speaker: label}
	}
	return out, nil
}

func TestChunkedRemapsLabelsFirstSeen(t *testing.T) {
	inner := &chunkLocalDiarizer{inner: windowedDiarizer{
		timeline: []models.SpeakerTurn{
			{Start: 2, End: 6, Speaker: "alice"},
			{Start: 12, End: 16, Speaker: "alice"},
			{Start: 17, End: 19, Speaker: "bob"},
		},
		failAt: -1,
	}}

	chunked := &ChunkedDiarizer{
		Inner:         inner,
		ChunkDuration: 10,
		duration:      func(string) (float64, error) { return 20, nil },
	}
	turns, err := chunked.Diarize("audio.wav", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d: %v", len(turns), turns)
	}

	// LOCAL_00 appeared first, so it owns the first global identity in
	// every chunk; bob is LOCAL_01 in his chunk and gets the second.
	for i, turn := range turns[:2] {
		if turn.Speaker != "SPEAKER_00" {
			t.Errorf("turn %d: got %q, want SPEAKER_00", i, turn.Speaker)
		}
	}
	if turns[2].Speaker != "SPEAKER_01" {
		t.Errorf("bob's turn: got %q, want SPEAKER_01", turns[2].Speaker)
	}
}

func TestChunkedOffsetsAreGlobal(t *testing.T) {
	inner := &windowedDiarizer{timeline: chunkTestTimeline(), failAt: -1}

	chunked := &ChunkedDiarizer{
		Inner:         inner,
		ChunkDuration: 10,
		duration:      func(string) (float64, error) { return 25, nil },
	}
	turns, err := chunked.Diarize("audio.wav", Options{})
	if err != nil {
		t.Fatal(err)
	}

	var covered float64
	for _, turn := range turns {
		if turn.End > covered {
			covered = turn.End
		}
	}
	if math.Abs(covered-23) > 1e-9 {
		t.Errorf("expected global end time 23, got %.2f", covered)
	}
}

func TestChunkedShortFileSinglePass(t *testing.T) {
	inner := &windowedDiarizer{timeline: chunkTestTimeline(), failAt: -1}

	chunked := &ChunkedDiarizer{
		Inner:         inner,
		ChunkDuration: 600,
		duration:      func(string) (float64, error) { return 25, nil },
	}
	if _, err := chunked.Diarize("audio.wav", Options{}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("short file should be a single inner call, got %d", inner.calls)
	}
}
