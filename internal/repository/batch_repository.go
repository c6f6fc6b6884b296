package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

// ErrBatchResolved is returned when a batch can no longer be changed.
var ErrBatchResolved = errors.New("batch already resolved")

// MembershipError lists requests that cannot become members of a batch.
type MembershipError struct {
	Missing     []int64
	Unavailable []int64
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("invalid batch membership: missing %v, unavailable %v", e.Missing, e.Unavailable)
}

// BatchRepository persists batches and their membership.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

type batchMember struct {
	BatchID   int64 `db:"batch_id"`
	RequestID int64 `db:"request_id"`
}

type lockedRequest struct {
	ID     int64                `db:"id"`
	Status models.RequestStatus `db:"status"`
}

// List returns every batch, newest first, with its request ids.
func (r *BatchRepository) List(ctx context.Context) ([]models.Batch, error) {
	const query = `SELECT id, name, status, created_by, created_at, updated_at FROM batches ORDER BY created_at DESC, id DESC`
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	if len(batches) == 0 {
		return batches, nil
	}

	ids := make([]int64, len(batches))
	for i := range batches {
		ids[i] = batches[i].ID
	}
	members, err := r.members(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range batches {
		batches[i].RequestIDs = members[batches[i].ID]
		if batches[i].RequestIDs == nil {
			batches[i].RequestIDs = []int64{}
		}
	}
	return batches, nil
}

// GetByID fetches one batch with its request ids.
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*models.Batch, error) {
	const query = `SELECT id, name, status, created_by, created_at, updated_at FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	members, err := r.members(ctx, r.db, []int64{id})
	if err != nil {
		return nil, err
	}
	batch.RequestIDs = members[id]
	if batch.RequestIDs == nil {
		batch.RequestIDs = []int64{}
	}
	return &batch, nil
}

// Create inserts an open batch and moves its members to is_batch in one transaction.
// Every member must exist and be todo, otherwise a *MembershipError is returned.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, err := lockRequests(ctx, tx, batch.RequestIDs)
	if err != nil {
		return err
	}
	if err = checkMembership(batch.RequestIDs, locked, nil); err != nil {
		return err
	}

	now := time.Now().UTC()
	batch.Status = models.BatchStatusOpen
	batch.CreatedAt, batch.UpdatedAt = now, now
	const insertQuery = `INSERT INTO batches (name, status, created_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertQuery, batch.Name, batch.Status, batch.CreatedBy, now, now).Scan(&batch.ID); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if err = insertMembers(ctx, tx, batch.ID, batch.RequestIDs); err != nil {
		return err
	}
	if err = setRequestStatus(ctx, tx, batch.RequestIDs, models.RequestStatusInBatch, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Update renames an open batch and replaces its membership. Removed members
// go back to todo, added members become is_batch.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := lockBatch(ctx, tx, batch.ID)
	if err != nil {
		return err
	}
	if current.Status != models.BatchStatusOpen {
		return ErrBatchResolved
	}

	members, err := r.members(ctx, tx, []int64{batch.ID})
	if err != nil {
		return err
	}
	previous := make(map[int64]struct{}, len(members[batch.ID]))
	for _, id := range members[batch.ID] {
		previous[id] = struct{}{}
	}

	locked, err := lockRequests(ctx, tx, batch.RequestIDs)
	if err != nil {
		return err
	}
	if err = checkMembership(batch.RequestIDs, locked, previous); err != nil {
		return err
	}

	kept := make(map[int64]struct{}, len(batch.RequestIDs))
	added := make([]int64, 0, len(batch.RequestIDs))
	for _, id := range batch.RequestIDs {
		kept[id] = struct{}{}
		if _, ok := previous[id]; !ok {
			added = append(added, id)
		}
	}
	removed := make([]int64, 0)
	for _, id := range members[batch.ID] {
		if _, ok := kept[id]; !ok {
			removed = append(removed, id)
		}
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `DELETE FROM batch_requests WHERE batch_id = $1`, batch.ID); err != nil {
		return fmt.Errorf("clear batch members: %w", err)
	}
	if err = setRequestStatus(ctx, tx, removed, models.RequestStatusTodo, now); err != nil {
		return err
	}
	if err = insertMembers(ctx, tx, batch.ID, batch.RequestIDs); err != nil {
		return err
	}
	if err = setRequestStatus(ctx, tx, added, models.RequestStatusInBatch, now); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE batches SET name = $1, updated_at = $2 WHERE id = $3`, batch.Name, now, batch.ID); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch update: %w", err)
	}
	batch.Status = current.Status
	batch.CreatedBy = current.CreatedBy
	batch.CreatedAt = current.CreatedAt
	batch.UpdatedAt = now
	return nil
}

// Resolve applies a terminal action to a batch and its members. The returned
// batch is the state before the action. changed is false when the batch
// already carried the requested terminal status.
func (r *BatchRepository) Resolve(ctx context.Context, id int64, target models.BatchTarget) (before *models.Batch, changed bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	before, err = lockBatch(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	members, err := r.members(ctx, tx, []int64{id})
	if err != nil {
		return nil, false, err
	}
	before.RequestIDs = members[id]

	if before.Status != models.BatchStatusOpen {
		if !target.Destructive() && before.Status == target.BatchStatus() {
			if err = tx.Commit(); err != nil {
				return nil, false, fmt.Errorf("commit batch resolve: %w", err)
			}
			return before, false, nil
		}
		return nil, false, ErrBatchResolved
	}

	now := time.Now().UTC()
	if err = setRequestStatus(ctx, tx, before.RequestIDs, target.RequestStatus(), now); err != nil {
		return nil, false, err
	}
	if target.Destructive() {
		if _, err = tx.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id); err != nil {
			return nil, false, fmt.Errorf("delete batch: %w", err)
		}
	} else {
		const updateQuery = `UPDATE batches SET status = $1, updated_at = $2 WHERE id = $3`
		if _, err = tx.ExecContext(ctx, updateQuery, target.BatchStatus(), now, id); err != nil {
			return nil, false, fmt.Errorf("update batch status: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit batch resolve: %w", err)
	}
	return before, true, nil
}

func (r *BatchRepository) members(ctx context.Context, q sqlx.QueryerContext, batchIDs []int64) (map[int64][]int64, error) {
	const query = `SELECT batch_id, request_id FROM batch_requests WHERE batch_id = ANY($1) ORDER BY batch_id, position`
	var rows []batchMember
	if err := sqlx.SelectContext(ctx, q, &rows, query, pq.Array(batchIDs)); err != nil {
		return nil, fmt.Errorf("list batch members: %w", err)
	}
	result := make(map[int64][]int64, len(batchIDs))
	for _, row := range rows {
		result[row.BatchID] = append(result[row.BatchID], row.RequestID)
	}
	return result, nil
}

func lockBatch(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Batch, error) {
	const query = `SELECT id, name, status, created_by, created_at, updated_at FROM batches WHERE id = $1 FOR UPDATE`
	var batch models.Batch
	if err := tx.GetContext(ctx, &batch, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock batch: %w", err)
	}
	return &batch, nil
}

func lockRequests(ctx context.Context, tx *sqlx.Tx, ids []int64) (map[int64]models.RequestStatus, error) {
	const query = `SELECT id, status FROM requests WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	var rows []lockedRequest
	if err := tx.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lock batch requests: %w", err)
	}
	result := make(map[int64]models.RequestStatus, len(rows))
	for _, row := range rows {
		result[row.ID] = row.Status
	}
	return result, nil
}

// checkMembership verifies every id exists and is todo, or already belongs to
// the batch being edited.
func checkMembership(ids []int64, locked map[int64]models.RequestStatus, current map[int64]struct{}) error {
	var missing, unavailable []int64
	for _, id := range ids {
		status, ok := locked[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if _, member := current[id]; member {
			continue
		}
		if status != models.RequestStatusTodo {
			unavailable = append(unavailable, id)
		}
	}
	if len(missing) > 0 || len(unavailable) > 0 {
		return &MembershipError{Missing: missing, Unavailable: unavailable}
	}
	return nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, batchID int64, ids []int64) error {
	const query = `INSERT INTO batch_requests (batch_id, request_id, position) VALUES ($1, $2, $3)`
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, query, batchID, id, i); err != nil {
			return fmt.Errorf("insert batch member: %w", err)
		}
	}
	return nil
}

func setRequestStatus(ctx context.Context, tx *sqlx.Tx, ids []int64, status models.RequestStatus, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE requests SET status = $1, updated_at = $2 WHERE id = ANY($3)`
	if _, err := tx.ExecContext(ctx, query, status, at, pq.Array(ids)); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}
