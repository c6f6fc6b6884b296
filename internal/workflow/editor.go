package workflow

import (
	"context"
	"sync"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	"github.com/noah-isme/miqaat-rms-api/pkg/client"
)

// Keys of the reference list errors and of the generic submit error in the
// editor's error map.
const (
	KeyFetchPermissions = "fetchPerms"
	KeyFetchCities      = "fetchCities"
	KeyFetchZones       = "fetchZones"
	KeySubmit           = "submit"
)

// EditorAPI is the part of the REST client the request editor needs.
type EditorAPI interface {
	Permissions(ctx context.Context) ([]models.Permission, error)
	Cities(ctx context.Context) ([]models.City, error)
	Zones(ctx context.Context) ([]models.Zone, error)
	CreateRequest(ctx context.Context, form dto.RequestForm) (*models.Request, error)
	UpdateRequest(ctx context.Context, id int64, form dto.RequestForm) (*models.Request, error)
}

// ListState tracks one reference list. Lists load independently, so one
// failing leaves the others usable.
type ListState[T any] struct {
	Items   []T
	Loading bool
	Err     error
}

// RequestEditor is the create or edit form for one request.
type RequestEditor struct {
	api       EditorAPI
	validator *validation.Validator
	onSaved   RefreshFunc
	mode      validation.Mode
	requestID int64

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu          sync.Mutex
	form        dto.RequestForm
	permissions ListState[models.Permission]
	cities      ListState[models.City]
	zones       ListState[models.Zone]
	errors      validation.FieldErrors
	submitting  bool
	closed      bool
}

// NewRequestEditor creates an empty create form.
func NewRequestEditor(api EditorAPI, validator *validation.Validator, onSaved RefreshFunc) *RequestEditor {
	if validator == nil {
		validator = validation.New()
	}
	return &RequestEditor{
		api:       api,
		validator: validator,
		onSaved:   onSaved,
		mode:      validation.ModeCreate,
		errors:    validation.FieldErrors{},
	}
}

// EditRequestEditor creates an edit form prefilled from request.
func EditRequestEditor(api EditorAPI, validator *validation.Validator, request models.Request, onSaved RefreshFunc) *RequestEditor {
	e := NewRequestEditor(api, validator, onSaved)
	e.mode = validation.ModeEdit
	e.requestID = request.ID
	e.form = dto.FormFromRequest(request)
	return e
}

// Open starts loading permissions, cities and zones concurrently. Results
// that arrive after Close are dropped.
func (e *RequestEditor) Open(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.cancel = cancel
	e.closed = false
	e.permissions = ListState[models.Permission]{Loading: true}
	e.cities = ListState[models.City]{Loading: true}
	e.zones = ListState[models.Zone]{Loading: true}
	e.mu.Unlock()

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		items, err := e.api.Permissions(ctx)
		e.settle(ctx, KeyFetchPermissions, "Failed to load permissions", err, func() {
			e.permissions = ListState[models.Permission]{Items: items, Err: err}
		})
	}()
	go func() {
		defer e.wg.Done()
		items, err := e.api.Cities(ctx)
		e.settle(ctx, KeyFetchCities, "Failed to load cities", err, func() {
			e.cities = ListState[models.City]{Items: items, Err: err}
		})
	}()
	go func() {
		defer e.wg.Done()
		items, err := e.api.Zones(ctx)
		e.settle(ctx, KeyFetchZones, "Failed to load zones", err, func() {
			e.zones = ListState[models.Zone]{Items: items, Err: err}
		})
	}()
}

func (e *RequestEditor) settle(ctx context.Context, key, message string, err error, apply func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || ctx.Err() != nil {
		return
	}
	apply()
	if err != nil {
		e.errors[key] = message
	}
}

// Wait blocks until every reference load started by Open has returned.
func (e *RequestEditor) Wait() {
	e.wg.Wait()
}

// Close cancels pending loads and discards their results.
func (e *RequestEditor) Close() {
	e.mu.Lock()
	e.closed = true
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Closed reports whether the editor has been closed.
func (e *RequestEditor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Form returns the current form values.
func (e *RequestEditor) Form() dto.RequestForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// SetForm replaces the form values.
func (e *RequestEditor) SetForm(form dto.RequestForm) {
	e.mu.Lock()
	e.form = form
	e.mu.Unlock()
}

// Permissions returns the request type options.
func (e *RequestEditor) Permissions() ListState[models.Permission] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.permissions
}

// Cities returns the city options.
func (e *RequestEditor) Cities() ListState[models.City] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cities
}

// Zones returns the zone options.
func (e *RequestEditor) Zones() ListState[models.Zone] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zones
}

// Errors returns the field and list errors currently shown.
func (e *RequestEditor) Errors() validation.FieldErrors {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(validation.FieldErrors, len(e.errors))
	for k, v := range e.errors {
		out[k] = v
	}
	return out
}

// Submit validates the form and sends it. Local failures block the call.
// Server failures merge the server's field errors into the error map next
// to a generic submit message. On success the owner refreshes and the
// editor closes.
func (e *RequestEditor) Submit(ctx context.Context) (*models.Request, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEditorClosed
	}
	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	errs := e.validator.Request(e.form, e.mode)
	e.clearFieldErrors()
	if !errs.Empty() {
		for k, v := range errs {
			e.errors[k] = v
		}
		e.mu.Unlock()
		return nil, errs.Err()
	}
	form := e.form.Normalized()
	e.submitting = true
	e.mu.Unlock()

	var (
		saved *models.Request
		err   error
	)
	if e.mode == validation.ModeEdit {
		saved, err = e.api.UpdateRequest(ctx, e.requestID, form)
	} else {
		saved, err = e.api.CreateRequest(ctx, form)
	}

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		message := e.submitMessage(err)
		if apiErr, ok := client.AsAPIError(err); ok {
			for k, v := range apiErr.Fields {
				e.errors[k] = v
			}
		}
		e.errors[KeySubmit] = message
		e.mu.Unlock()
		return nil, notice(message, err)
	}
	e.mu.Unlock()

	if e.onSaved != nil {
		e.onSaved(ctx)
	}
	e.Close()
	return saved, nil
}

func (e *RequestEditor) submitMessage(err error) string {
	_, structured := client.AsAPIError(err)
	switch {
	case e.mode == validation.ModeEdit && structured:
		return "Failed to update request. Check the fields."
	case e.mode == validation.ModeEdit:
		return "Failed to update request. Try again."
	case structured:
		return "Failed to create request. Check the form."
	default:
		return "Failed to create request. Try again."
	}
}

// clearFieldErrors drops everything but the reference list errors.
func (e *RequestEditor) clearFieldErrors() {
	for k := range e.errors {
		switch k {
		case KeyFetchPermissions, KeyFetchCities, KeyFetchZones:
		default:
			delete(e.errors, k)
		}
	}
}
