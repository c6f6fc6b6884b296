package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

const requestColumns = `r.id, r.its, r.type, r.status, r.city_id, c.name AS city_name, r.zone_id, z.name AS zone_name,
       r.toggle, to_char(r.pass_date, 'YYYY-MM-DD') AS pass_date, r.meta, r.created_by_id, r.created_by_username,
       r.created_at, r.updated_at`

const requestFrom = ` FROM requests r
LEFT JOIN cities c ON c.id = r.city_id
LEFT JOIN zones z ON z.id = r.zone_id`

// RequestRepository persists operator requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// List returns requests matching the filter (latest first) and the total match count.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error) {
	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("r.type = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("r.created_by_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM requests r"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	query := "SELECT " + requestColumns + requestFrom + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC, r.id DESC LIMIT %d OFFSET %d", size, (page-1)*size)

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	return requests, total, nil
}

// ListByStatus returns every request in the given status, oldest first.
func (r *RequestRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.Request, error) {
	query := "SELECT " + requestColumns + requestFrom + " WHERE r.status = $1 ORDER BY r.id ASC"
	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, status); err != nil {
		return nil, fmt.Errorf("list requests by status: %w", err)
	}
	return requests, nil
}

// ListByIDs returns the requests with the given ids, in id order.
func (r *RequestRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Request, error) {
	if len(ids) == 0 {
		return []models.Request{}, nil
	}
	query := "SELECT " + requestColumns + requestFrom + " WHERE r.id = ANY($1) ORDER BY r.id ASC"
	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list requests by ids: %w", err)
	}
	return requests, nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	query := "SELECT " + requestColumns + requestFrom + " WHERE r.id = $1"
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a request and fills in its generated columns.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.Status == "" {
		request.Status = models.RequestStatusTodo
	}
	now := time.Now().UTC()
	request.CreatedAt, request.UpdatedAt = now, now

	const query = `INSERT INTO requests
	(its, type, status, city_id, zone_id, toggle, pass_date, meta, created_by_id, created_by_username, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		request.ITS, request.Type, request.Status, request.City, request.Zone, request.Toggle, request.PassDate,
		request.Meta, request.CreatedByID, request.CreatedBy, request.CreatedAt, request.UpdatedAt,
	).Scan(&request.ID)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// UpdateTodo overwrites the editable columns of a request still in todo.
// It returns sql.ErrNoRows when the request is missing or no longer todo.
func (r *RequestRepository) UpdateTodo(ctx context.Context, request *models.Request) error {
	request.UpdatedAt = time.Now().UTC()
	const query = `UPDATE requests
	SET its = $1, type = $2, city_id = $3, zone_id = $4, toggle = $5, pass_date = $6, meta = $7, updated_at = $8
	WHERE id = $9 AND status = 'todo'`
	result, err := r.db.ExecContext(ctx, query,
		request.ITS, request.Type, request.City, request.Zone, request.Toggle, request.PassDate,
		request.Meta, request.UpdatedAt, request.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return expectAffected(result, "update request")
}

// DeleteTodo removes a request still in todo.
func (r *RequestRepository) DeleteTodo(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1 AND status = 'todo'`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return expectAffected(result, "delete request")
}

// FilterOptions collects the distinct values used by the list filters.
func (r *RequestRepository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{}
	if err := r.db.SelectContext(ctx, &opts.Statuses, `SELECT DISTINCT status FROM requests ORDER BY status`); err != nil {
		return nil, fmt.Errorf("list request statuses: %w", err)
	}
	if err := r.db.SelectContext(ctx, &opts.Types, `SELECT DISTINCT type FROM requests ORDER BY type`); err != nil {
		return nil, fmt.Errorf("list request types: %w", err)
	}
	const creatorsQuery = `SELECT DISTINCT created_by_id, created_by_username FROM requests ORDER BY created_by_username`
	if err := r.db.SelectContext(ctx, &opts.Creators, creatorsQuery); err != nil {
		return nil, fmt.Errorf("list request creators: %w", err)
	}
	return opts, nil
}

func expectAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
