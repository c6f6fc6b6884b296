package workflow

import (
	"context"
	"strings"
	"sync"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

// ComposerAPI is the part of the REST client the composer needs.
type ComposerAPI interface {
	ListBatchable(ctx context.Context) ([]models.Request, error)
	CreateBatch(ctx context.Context, form dto.BatchForm) (*models.Batch, error)
}

// RefreshFunc reloads whatever view owns the workflow.
type RefreshFunc func(ctx context.Context)

// BatchComposer holds batch mode state: the batchable requests, the selected
// ids and the batch name.
type BatchComposer struct {
	api     ComposerAPI
	refresh RefreshFunc

	mu         sync.Mutex
	active     bool
	groups     Groups
	selection  *Selection
	name       string
	submitting bool
}

// NewBatchComposer creates a composer. refresh may be nil.
func NewBatchComposer(api ComposerAPI, refresh RefreshFunc) *BatchComposer {
	return &BatchComposer{api: api, refresh: refresh, selection: NewSelection()}
}

// Enter switches to batch mode: it loads the batchable requests, groups them
// and selects the first request of every group.
func (b *BatchComposer) Enter(ctx context.Context) error {
	reqs, err := b.api.ListBatchable(ctx)
	if err != nil {
		return notice("Failed to load request data", err)
	}
	groups := GroupRequests(reqs)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = true
	b.groups = groups
	b.selection = NewSelection(groups.DefaultSelection()...)
	b.name = ""
	return nil
}

// Active reports whether batch mode is on.
func (b *BatchComposer) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Groups returns the grouped batchable requests.
func (b *BatchComposer) Groups() Groups {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.groups
}

// Selected returns the selected request ids.
func (b *BatchComposer) Selected() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.IDs()
}

// Name returns the batch name typed so far.
func (b *BatchComposer) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// Submitting reports whether a create call is in flight.
func (b *BatchComposer) Submitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitting
}

// Toggle flips one request in or out of the selection and reports whether it
// is selected afterwards.
func (b *BatchComposer) Toggle(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection.Toggle(id)
}

// SetName sets the batch name.
func (b *BatchComposer) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// Create submits the batch. A blank name or an empty selection fails without
// calling the server. On success batch mode ends and the owner refreshes; on
// failure the state is left untouched.
func (b *BatchComposer) Create(ctx context.Context) (*models.Batch, error) {
	b.mu.Lock()
	switch {
	case !b.active:
		b.mu.Unlock()
		return nil, ErrNotInBatchMode
	case b.submitting:
		b.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case strings.TrimSpace(b.name) == "":
		b.mu.Unlock()
		return nil, ErrEmptyBatchName
	case b.selection.Len() == 0:
		b.mu.Unlock()
		return nil, ErrEmptySelection
	}
	form := dto.BatchForm{Name: b.name, RequestIDs: b.selection.IDs()}
	b.submitting = true
	b.mu.Unlock()

	batch, err := b.api.CreateBatch(ctx, form)

	b.mu.Lock()
	b.submitting = false
	if err != nil {
		b.mu.Unlock()
		return nil, notice("Failed to create batch", err)
	}
	b.reset()
	b.mu.Unlock()

	b.reload(ctx)
	return batch, nil
}

// Cancel discards the name and selection, leaves batch mode and refreshes.
func (b *BatchComposer) Cancel(ctx context.Context) {
	b.mu.Lock()
	b.reset()
	b.mu.Unlock()
	b.reload(ctx)
}

func (b *BatchComposer) reset() {
	b.active = false
	b.name = ""
	b.selection = NewSelection()
	b.groups = Groups{}
}

func (b *BatchComposer) reload(ctx context.Context) {
	if b.refresh != nil {
		b.refresh(ctx)
	}
}
