// Package compare fans one prompt out to several model identifiers and
// assembles per-model results in the caller's order.
package compare

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"llm-workbench/internal/models"
)

// Completer is the single-request dependency of the comparator,
// satisfied by the backend client.
type Completer interface {
	Complete(ctx context.Context, cred string, req models.CompletionRequest) (string, error)
}

// Comparator runs the same prompt against multiple models.
type Comparator struct {
	completer Completer
}

// New constructs a comparator over the given completer.
func New(completer Completer) *Comparator {
	return &Comparator{completer: completer}
}

// Compare invokes the completer once per model identifier, concurrently.
// Each invocation is independent: a failure is recorded in that entry
// and never aborts the others, so a partially failed comparison is a
// normal value rather than an error. Entries are written into an
// index-addressed slice, so output order always matches input order
// regardless of which call settles first. Duplicated identifiers yield
// duplicate independent results. Compare returns only after every
// invocation has settled.
func (c *Comparator) Compare(ctx context.Context, cred, prompt string, modelIDs []string, sampling models.SamplingParams) models.ComparisonResult {
	result := models.ComparisonResult{
		ID:      uuid.NewString(),
		Prompt:  prompt,
		Entries: make([]models.ComparisonEntry, len(modelIDs)),
	}

	var wg sync.WaitGroup
	for i, modelID := range modelIDs {
		wg.Add(1)
		go func(i int, modelID string) {
			defer wg.Done()

			text, err := c.completer.Complete(ctx, cred, models.CompletionRequest{
				Model:    modelID,
				Prompt:   prompt,
				Sampling: sampling,
			})
			result.Entries[i] = models.ComparisonEntry{
				Model: modelID,
				Text:  text,
				Err:   err,
			}
		}(i, modelID)
	}
	wg.Wait()

	return result
}
