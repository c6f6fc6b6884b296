package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

// BoardAPI is the part of the REST client the batch board needs.
type BoardAPI interface {
	ListBatches(ctx context.Context) ([]models.Batch, error)
	SetBatchStatus(ctx context.Context, id int64, target models.BatchTarget) (*models.BatchResolution, error)
}

// Confirmer asks the operator a yes or no question and blocks until answered.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// ConfirmPrompt is the question asked before moving a batch to target.
// Resetting to todo deletes the batch, so it gets its own warning.
func ConfirmPrompt(target models.BatchTarget) string {
	if target.Destructive() {
		return "Are you sure you want to delete this batch and reset requests to TODO?"
	}
	return fmt.Sprintf("Are you sure you want to mark this batch as %q and keep it?", string(target))
}

// BatchBoard is the batch list and its status actions.
type BatchBoard struct {
	api     BoardAPI
	confirm Confirmer
	refresh RefreshFunc

	mu       sync.Mutex
	batches  []models.Batch
	inFlight map[int64]bool
}

// NewBatchBoard creates a board. refresh runs after non-destructive status
// changes and may be nil.
func NewBatchBoard(api BoardAPI, confirm Confirmer, refresh RefreshFunc) *BatchBoard {
	return &BatchBoard{api: api, confirm: confirm, refresh: refresh, inFlight: make(map[int64]bool)}
}

// Load replaces the local batch list with the server's.
func (b *BatchBoard) Load(ctx context.Context) error {
	batches, err := b.api.ListBatches(ctx)
	if err != nil {
		return notice("Failed to load batch data", err)
	}
	b.mu.Lock()
	b.batches = batches
	b.mu.Unlock()
	return nil
}

// Batches returns a copy of the local batch list.
func (b *BatchBoard) Batches() []models.Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Batch(nil), b.batches...)
}

// Find returns the local copy of batch id.
func (b *BatchBoard) Find(id int64) (models.Batch, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, batch := range b.batches {
		if batch.ID == id {
			return batch, true
		}
	}
	return models.Batch{}, false
}

// UpdateStatus confirms with the operator and then applies target to batch
// id in one call. A todo reset removes the batch from the local list; other
// targets leave the list alone and trigger a refresh. Nothing local changes
// when the call fails.
func (b *BatchBoard) UpdateStatus(ctx context.Context, id int64, target models.BatchTarget) (*models.BatchResolution, error) {
	if !target.Valid() {
		return nil, ErrInvalidTarget
	}
	ok, err := b.confirm.Confirm(ctx, ConfirmPrompt(target))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDeclined
	}

	b.mu.Lock()
	if b.inFlight[id] {
		b.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	b.inFlight[id] = true
	b.mu.Unlock()

	result, err := b.api.SetBatchStatus(ctx, id, target)

	b.mu.Lock()
	delete(b.inFlight, id)
	if err != nil {
		b.mu.Unlock()
		return nil, notice("Failed to update batch. Please try again.", err)
	}
	if target.Destructive() {
		kept := make([]models.Batch, 0, len(b.batches))
		for _, batch := range b.batches {
			if batch.ID != id {
				kept = append(kept, batch)
			}
		}
		b.batches = kept
	}
	b.mu.Unlock()

	if !target.Destructive() && b.refresh != nil {
		b.refresh(ctx)
	}
	return result, nil
}

// SuccessMessage is the confirmation shown after a status change.
func SuccessMessage(target models.BatchTarget) string {
	if target.Destructive() {
		return "Batch deleted and requests set to TODO"
	}
	return fmt.Sprintf("Batch marked as %q successfully", string(target))
}
