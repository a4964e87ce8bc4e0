package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	ytdl "github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"
)

// Audio describes a downloaded audio track and its source video.
type Audio struct {
	FilePath string
	VideoID  string
	Title    string
	Author   string
	Duration float64 // seconds
}

// Downloader fetches the audio track of a YouTube video into a local
// directory. Metadata and stream requests are retried with exponential
// backoff since YouTube endpoints fail transiently.
type Downloader struct {
	client     ytdl.Client
	outputDir  string
	maxRetries uint64
	log        *logrus.Entry
}

// NewDownloader returns a Downloader writing into outputDir.
func NewDownloader(outputDir string, log *logrus.Entry) *Downloader {
	return &Downloader{
		client:     ytdl.Client{},
		outputDir:  outputDir,
		maxRetries: 3,
		log:        log,
	}
}

// Fetch downloads the best available audio-only format for the video.
// The file is named by a fresh UUID so concurrent jobs never collide.
func (d *Downloader) Fetch(ctx context.Context, videoURL string) (*Audio, error) {
	video, err := d.getVideo(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return nil, fmt.Errorf("no audio formats available for video %s", video.ID)
	}

	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(d.outputDir, uuid.New().String()+extensionFor(format.MimeType))

	if err := d.downloadStream(ctx, video, format, outputPath); err != nil {
		return nil, err
	}

	if d.log != nil {
		d.log.WithFields(logrus.Fields{
			"video_id": video.ID,
			"title":    video.Title,
			"path":     outputPath,
		}).Info("downloaded audio track")
	}

	return &Audio{
		FilePath: outputPath,
		VideoID:  video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration.Seconds(),
	}, nil
}

func (d *Downloader) getVideo(ctx context.Context, videoURL string) (*ytdl.Video, error) {
	var video *ytdl.Video
	op := func() error {
		v, err := d.client.GetVideoContext(ctx, videoURL)
		if err != nil {
			return err
		}
		video = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return video, nil
}

func (d *Downloader) downloadStream(ctx context.Context, video *ytdl.Video, format *ytdl.Format, outputPath string) error {
	op := func() error {
		stream, _, err := d.client.GetStreamContext(ctx, video, format)
		if err != nil {
			return err
		}
		defer stream.Close()

		file, err := os.Create(outputPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer file.Close()

		if _, err := io.Copy(file, stream); err != nil {
			os.Remove(outputPath)
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("failed to download audio: %w", err)
	}
	return nil
}

// bestAudioFormat picks the highest-bitrate audio-only format,
// preferring the default language track when the video carries several.
func bestAudioFormat(formats ytdl.FormatList) *ytdl.Format {
	var audio []ytdl.Format
	for _, f := range formats {
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if f.AudioTrack != nil && !f.AudioTrack.AudioIsDefault {
			continue
		}
		audio = append(audio, f)
	}
	if len(audio) == 0 {
		return nil
	}

	sort.Slice(audio, func(i, j int) bool {
		return audio[i].Bitrate > audio[j].Bitrate
	})
	return &audio[0]
}

// extensionFor maps an audio MIME type to a file extension.
func extensionFor(mimeType string) string {
	if strings.Contains(mimeType, "mp4") {
		return ".m4a"
	}
	if strings.Contains(mimeType, "webm") {
		return ".webm"
	}
	return ".audio"
}
