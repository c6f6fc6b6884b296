package workflow

import (
	"context"
	"sync"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

// fakeAPI records calls and serves canned responses. A non-nil gate blocks
// the matching call until it is closed or the context ends.
type fakeAPI struct {
	mu sync.Mutex

	batchable    []models.Request
	batchableErr error
	batches      []models.Batch
	listErr      error

	createBatchErr  error
	createBatchGate chan struct{}
	batchForms      []dto.BatchForm

	statusErr   error
	statusCalls []models.BatchTarget

	updateBatchErr error
	updatedBatches []dto.BatchForm

	permissions []models.Permission
	cities      []models.City
	citiesErr   error
	zones       []models.Zone
	zonesGate   chan struct{}

	requestErr   error
	createdForms []dto.RequestForm
	updatedForms []dto.RequestForm
	updatedIDs   []int64
	requestGate  chan struct{}
}

func (f *fakeAPI) wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) ListBatchable(ctx context.Context) ([]models.Request, error) {
	return f.batchable, f.batchableErr
}

func (f *fakeAPI) CreateBatch(ctx context.Context, form dto.BatchForm) (*models.Batch, error) {
	f.mu.Lock()
	f.batchForms = append(f.batchForms, form)
	gate := f.createBatchGate
	f.mu.Unlock()
	if err := f.wait(ctx, gate); err != nil {
		return nil, err
	}
	if f.createBatchErr != nil {
		return nil, f.createBatchErr
	}
	return &models.Batch{ID: 42, Name: form.Name, Status: models.BatchStatusOpen, RequestIDs: form.RequestIDs}, nil
}

func (f *fakeAPI) ListBatches(ctx context.Context) ([]models.Batch, error) {
	return f.batches, f.listErr
}

func (f *fakeAPI) SetBatchStatus(ctx context.Context, id int64, target models.BatchTarget) (*models.BatchResolution, error) {
	f.mu.Lock()
	f.statusCalls = append(f.statusCalls, target)
	f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.BatchResolution{BatchID: id, Status: target, Deleted: target.Destructive(), Changed: true}, nil
}

func (f *fakeAPI) UpdateBatch(ctx context.Context, id int64, form dto.BatchForm) (*models.Batch, error) {
	f.mu.Lock()
	f.updatedBatches = append(f.updatedBatches, form)
	f.mu.Unlock()
	if f.updateBatchErr != nil {
		return nil, f.updateBatchErr
	}
	return &models.Batch{ID: id, Name: form.Name, RequestIDs: form.RequestIDs}, nil
}

func (f *fakeAPI) Permissions(ctx context.Context) ([]models.Permission, error) {
	return f.permissions, nil
}

func (f *fakeAPI) Cities(ctx context.Context) ([]models.City, error) {
	return f.cities, f.citiesErr
}

func (f *fakeAPI) Zones(ctx context.Context) ([]models.Zone, error) {
	if err := f.wait(ctx, f.zonesGate); err != nil {
		return nil, err
	}
	return f.zones, nil
}

func (f *fakeAPI) CreateRequest(ctx context.Context, form dto.RequestForm) (*models.Request, error) {
	f.mu.Lock()
	f.createdForms = append(f.createdForms, form)
	gate := f.requestGate
	f.mu.Unlock()
	if err := f.wait(ctx, gate); err != nil {
		return nil, err
	}
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &models.Request{ID: 9, ITS: form.ITS, Type: form.Type, Status: models.RequestStatusTodo}, nil
}

func (f *fakeAPI) UpdateRequest(ctx context.Context, id int64, form dto.RequestForm) (*models.Request, error) {
	f.mu.Lock()
	f.updatedForms = append(f.updatedForms, form)
	f.updatedIDs = append(f.updatedIDs, id)
	f.mu.Unlock()
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &models.Request{ID: id, ITS: form.ITS, Type: form.Type, Status: models.RequestStatusTodo}, nil
}

func (f *fakeAPI) batchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batchForms)
}

func scenarioRequests() []models.Request {
	return []models.Request{
		{ID: 1, ITS: "11111111", Type: models.RequestTypePass, Status: models.RequestStatusTodo},
		{ID: 2, ITS: "11111111", Type: models.RequestTypePass, Status: models.RequestStatusTodo},
		{ID: 3, ITS: "22222222", Type: models.RequestTypeChangeCity, Status: models.RequestStatusTodo},
	}
}
