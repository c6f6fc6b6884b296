package models

import "time"

// BatchStatus captures the resolution state of a batch.
type BatchStatus string

const (
	BatchStatusOpen      BatchStatus = "open"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusDuplicate BatchStatus = "duplicate"
)

// Batch groups requests that are resolved together.
type Batch struct {
	ID         int64       `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	Status     BatchStatus `db:"status" json:"status"`
	CreatedBy  string      `db:"created_by" json:"created_by"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
	RequestIDs []int64     `db:"-" json:"request_ids"`
	Requests   []Request   `db:"-" json:"requests,omitempty"`
}

// BatchTarget is an operator action applied to a whole batch.
type BatchTarget string

const (
	// BatchTargetTodo deletes the batch and puts its requests back to todo.
	BatchTargetTodo      BatchTarget = "todo"
	BatchTargetCompleted BatchTarget = "completed"
	BatchTargetDuplicate BatchTarget = "duplicate"
)

// Valid reports whether t is a supported batch action.
func (t BatchTarget) Valid() bool {
	switch t {
	case BatchTargetTodo, BatchTargetCompleted, BatchTargetDuplicate:
		return true
	}
	return false
}

// Destructive reports whether applying t removes the batch record.
func (t BatchTarget) Destructive() bool {
	return t == BatchTargetTodo
}

// RequestStatus is the status member requests take when t is applied.
func (t BatchTarget) RequestStatus() RequestStatus {
	switch t {
	case BatchTargetCompleted:
		return RequestStatusCompleted
	case BatchTargetDuplicate:
		return RequestStatusDuplicate
	default:
		return RequestStatusTodo
	}
}

// BatchStatus is the status a surviving batch takes when t is applied.
func (t BatchTarget) BatchStatus() BatchStatus {
	switch t {
	case BatchTargetCompleted:
		return BatchStatusCompleted
	case BatchTargetDuplicate:
		return BatchStatusDuplicate
	default:
		return BatchStatusOpen
	}
}

// BatchResolution describes the outcome of a terminal batch action.
type BatchResolution struct {
	BatchID    int64       `json:"batch_id"`
	Status     BatchTarget `json:"status"`
	RequestIDs []int64     `json:"request_ids"`
	Deleted    bool        `json:"deleted"`
	Changed    bool        `json:"changed"`
}
