package workflow

import (
	"context"
	"strings"
	"sync"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
)

// BatchEditorAPI is the part of the REST client the batch editor needs.
type BatchEditorAPI interface {
	ListBatchable(ctx context.Context) ([]models.Request, error)
	UpdateBatch(ctx context.Context, id int64, form dto.BatchForm) (*models.Batch, error)
}

// BatchEditor renames a batch and changes its membership.
type BatchEditor struct {
	api       BatchEditorAPI
	validator *validation.Validator
	onSaved   RefreshFunc
	batchID   int64

	mu         sync.Mutex
	name       string
	candidates []models.Request
	selection  *Selection
	errors     validation.FieldErrors
	loadErr    error
	submitting bool
}

// OpenBatchEditor prefills the editor from batch and loads the candidate
// requests: the batch's members first, then every batchable request not
// already listed. When the candidate load fails only the members are offered.
func OpenBatchEditor(ctx context.Context, api BatchEditorAPI, validator *validation.Validator, batch models.Batch, onSaved RefreshFunc) *BatchEditor {
	if validator == nil {
		validator = validation.New()
	}
	e := &BatchEditor{
		api:       api,
		validator: validator,
		onSaved:   onSaved,
		batchID:   batch.ID,
		name:      batch.Name,
		selection: NewSelection(batch.RequestIDs...),
		errors:    validation.FieldErrors{},
	}

	others, err := api.ListBatchable(ctx)
	e.loadErr = err
	e.candidates = MergeCandidates(batch.Requests, others)
	return e
}

// MergeCandidates lists assigned followed by the requests in others that are
// not assigned.
func MergeCandidates(assigned, others []models.Request) []models.Request {
	seen := make(map[int64]struct{}, len(assigned))
	out := make([]models.Request, 0, len(assigned)+len(others))
	for _, r := range assigned {
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	for _, r := range others {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Candidates returns the requests that can be selected.
func (e *BatchEditor) Candidates() []models.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Request(nil), e.candidates...)
}

// LoadErr is the error from loading candidates, if any.
func (e *BatchEditor) LoadErr() error {
	return e.loadErr
}

// Selected returns the selected request ids.
func (e *BatchEditor) Selected() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.IDs()
}

// Toggle flips one request in or out of the batch.
func (e *BatchEditor) Toggle(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Toggle(id)
}

// SetName sets the batch name.
func (e *BatchEditor) SetName(name string) {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
}

// Errors returns the field errors currently shown.
func (e *BatchEditor) Errors() validation.FieldErrors {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(validation.FieldErrors, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// Submit validates and saves the batch.
func (e *BatchEditor) Submit(ctx context.Context) (*models.Batch, error) {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	form := dto.BatchForm{Name: strings.TrimSpace(e.name), RequestIDs: e.selection.IDs()}
	errs := e.validator.Batch(form)
	e.errors = errs
	if !errs.Empty() {
		e.mu.Unlock()
		return nil, errs.Err()
	}
	e.submitting = true
	e.mu.Unlock()

	batch, err := e.api.UpdateBatch(ctx, e.batchID, form)

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		e.errors = validation.FieldErrors{KeySubmit: "Failed to update batch. Please try again."}
		e.mu.Unlock()
		return nil, notice("Failed to update batch. Please try again.", err)
	}
	e.mu.Unlock()

	if e.onSaved != nil {
		e.onSaved(ctx)
	}
	return batch, nil
}
