// Package media prepares audio assets and hands them to the multimodal
// backend together with a fixed instruction prompt.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"llm-workbench/internal/config"
)

// Format identifies the container/codec of a source asset.
type Format string

const (
	FormatAAC Format = "aac"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
	FormatWAV Format = "wav"
)

// ErrUnsupportedFormat indicates an asset whose format the pipeline does
// not accept at all.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// TranscodeError indicates the external transcoder failed. It is fatal
// for the asset; there is no fallback to the original file.
type TranscodeError struct {
	Input   string
	Message string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %s", e.Input, e.Message)
}

// ParseFormat derives the asset format from a file path's extension.
func ParseFormat(assetPath string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(assetPath), "."))
	switch Format(ext) {
	case FormatAAC, FormatMP3, FormatOGG, FormatWAV:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// MimeType returns the upload content type for the format.
func (f Format) MimeType() string {
	return "audio/" + string(f)
}

// Transcoder converts constrained-codec assets via an external ffmpeg
// invocation.
type Transcoder struct {
	ffmpegPath string
	bitrate    string
}

// NewTranscoder builds a transcoder from configuration.
func NewTranscoder(cfg config.TranscodeConfig) *Transcoder {
	return &Transcoder{
		ffmpegPath: cfg.FFmpegPath,
		bitrate:    cfg.Bitrate,
	}
}

// Prepare returns a path the backend can ingest plus the format of that
// path. AAC sources are transcoded to MP3 at the fixed bitrate into an
// isolated temporary directory; everything else passes through unchanged.
// The returned cleanup func releases any temporary resources and must be
// called on every exit path, including failed downstream processing.
func (t *Transcoder) Prepare(ctx context.Context, assetPath string, source Format) (string, Format, func(), error) {
	noop := func() {}

	if source != FormatAAC {
		return assetPath, source, noop, nil
	}

	tempDir, err := os.MkdirTemp("", "llm-workbench-audio-")
	if err != nil {
		return "", "", noop, fmt.Errorf("create transcode workspace: %w", err)
	}
	cleanup := func() { os.RemoveAll(tempDir) }

	outputPath := filepath.Join(tempDir, "converted_audio.mp3")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, "-y", "-i", assetPath, "-b:a", t.bitrate, outputPath)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cleanup()
		return "", "", noop, &TranscodeError{
			Input:   assetPath,
			Message: transcodeFailure(err, stderr.String()),
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		cleanup()
		return "", "", noop, &TranscodeError{
			Input:   assetPath,
			Message: "transcoder produced no output",
		}
	}

	return outputPath, FormatMP3, cleanup, nil
}

func transcodeFailure(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	// Keep the tail of ffmpeg's output, which carries the actual failure.
	lines := strings.Split(stderr, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return fmt.Sprintf("%v: %s", err, strings.Join(lines, " "))
}
