package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"llm-workbench/internal/credential"
	"llm-workbench/internal/prompt"
)

// ErrUnreadableAsset indicates the asset path does not point at a
// readable file; detected locally before any work starts.
var ErrUnreadableAsset = errors.New("asset path is not readable")

// Uploader abstracts the multimodal backend for processor tests.
type Uploader interface {
	Upload(ctx context.Context, cred, assetPath, mimeType string) (string, error)
	Generate(ctx context.Context, cred, fileURI, instruction string) (string, error)
}

// Processor drives a single audio-processing request through its stages.
type Processor struct {
	transcoder *Transcoder
	client     Uploader
}

// NewProcessor wires a transcoder and a multimodal client.
func NewProcessor(transcoder *Transcoder, client Uploader) *Processor {
	return &Processor{transcoder: transcoder, client: client}
}

// Process runs one request to a terminal state: transcode if the source
// codec requires it, upload, then request a single text response for the
// chosen use-case instruction. A failure at any stage surfaces as a
// *StageError naming the stage. Temporary files created along the way
// are released before return on every path.
func (p *Processor) Process(ctx context.Context, cred, assetPath string, tpl prompt.Template) (string, error) {
	if strings.TrimSpace(cred) == "" {
		return "", credential.ErrMissing
	}

	instruction, err := prompt.ForAudio(tpl)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(assetPath)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrUnreadableAsset, assetPath)
	}

	source, err := ParseFormat(assetPath)
	if err != nil {
		return "", err
	}

	processedPath, format, cleanup, err := p.transcoder.Prepare(ctx, assetPath, source)
	if err != nil {
		return "", &StageError{Stage: StageTranscoding, Err: err}
	}
	defer cleanup()

	if processedPath != assetPath {
		slog.Info("transcoded asset", "source", assetPath, "format", format)
	}

	fileURI, err := p.client.Upload(ctx, cred, processedPath, format.MimeType())
	if err != nil {
		return "", &StageError{Stage: StageUploading, Err: err}
	}

	text, err := p.client.Generate(ctx, cred, fileURI, instruction)
	if err != nil {
		return "", &StageError{Stage: StageAwaitingModelResponse, Err: err}
	}

	return text, nil
}
