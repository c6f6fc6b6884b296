package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

// Client talks to the request/batch REST API.
type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger logs every call at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for baseURL, which includes the API prefix
// (for example http://localhost:8080/api).
func NewClient(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session used for every call.
func (c *Client) Session() *Session {
	return c.session
}

// RequestQuery holds the optional list filters.
type RequestQuery struct {
	Status    string
	Type      string
	CreatedBy string
	Page      int
	PageSize  int
}

func (q RequestQuery) values() url.Values {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.CreatedBy != "" {
		params.Set("created_by", q.CreatedBy)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return params
}

type listResponse[T any] struct {
	Results    []T                `json:"results"`
	Count      int                `json:"count"`
	Pagination *models.Pagination `json:"pagination"`
}

// ListRequests retrieves the primary request list.
func (c *Client) ListRequests(ctx context.Context, query RequestQuery) ([]models.Request, *models.Pagination, error) {
	var out listResponse[models.Request]
	if err := c.do(ctx, http.MethodGet, "/requests/requests", query.values(), nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Results, out.Pagination, nil
}

// ListBatchable retrieves the flat list of requests eligible for batching.
func (c *Client) ListBatchable(ctx context.Context) ([]models.Request, error) {
	var out listResponse[models.Request]
	if err := c.do(ctx, http.MethodGet, "/requests/filter-requests/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetRequest retrieves one request.
func (c *Client) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/requests/requests/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestFilters retrieves the filter dropdown options.
func (c *Client) RequestFilters(ctx context.Context) (*models.FilterOptions, error) {
	var out models.FilterOptions
	if err := c.do(ctx, http.MethodGet, "/requests/filters", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest submits a new request.
func (c *Client) CreateRequest(ctx context.Context, form dto.RequestForm) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodPost, "/requests/create-request/", nil, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRequest edits a todo request with the full form payload.
func (c *Client) UpdateRequest(ctx context.Context, id int64, form dto.RequestForm) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/requests/requests/%d/edit/", id), nil, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRequest deletes a todo request.
func (c *Client) DeleteRequest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/requests/requests/%d/delete/", id), nil, nil, nil)
}

// ListBatches retrieves every batch with hydrated requests.
func (c *Client) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var out listResponse[models.Batch]
	if err := c.do(ctx, http.MethodGet, "/requests/batch/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetBatch retrieves one batch.
func (c *Client) GetBatch(ctx context.Context, id int64) (*models.Batch, error) {
	var out models.Batch
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/requests/batch/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBatch opens a batch over the given requests.
func (c *Client) CreateBatch(ctx context.Context, form dto.BatchForm) (*models.Batch, error) {
	var out models.Batch
	if err := c.do(ctx, http.MethodPost, "/requests/batch/", nil, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBatch renames a batch and replaces its members.
func (c *Client) UpdateBatch(ctx context.Context, id int64, form dto.BatchForm) (*models.Batch, error) {
	var out models.Batch
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/requests/batch/%d/edit/", id), nil, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetBatchStatus applies a terminal status to a batch.
func (c *Client) SetBatchStatus(ctx context.Context, id int64, target models.BatchTarget) (*models.BatchResolution, error) {
	params := url.Values{}
	params.Set("status", string(target))
	var out models.BatchResolution
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/requests/batches/%d/delete/", id), params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Permissions retrieves the request type options.
func (c *Client) Permissions(ctx context.Context) ([]models.Permission, error) {
	var out []models.Permission
	if err := c.do(ctx, http.MethodGet, "/users/permissions/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities retrieves the city list.
func (c *Client) Cities(ctx context.Context) ([]models.City, error) {
	var out listResponse[models.City]
	if err := c.do(ctx, http.MethodGet, "/requests/cities", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Zones retrieves the zone list.
func (c *Client) Zones(ctx context.Context) ([]models.Zone, error) {
	var out listResponse[models.Zone]
	if err := c.do(ctx, http.MethodGet, "/requests/zones", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.logger.Debug("api call", zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.expire()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError reads a non-2xx body. The server's {"error": {...}} envelope is
// preferred; a flat object is read as an optional "message"/"detail" plus
// field messages (string or list of strings), ignoring other values; anything
// else is kept as text.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.Status = resp.StatusCode
		return envelope.Error
	}
	if apiErr, ok := decodeFlatError(raw); ok {
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}

func decodeFlatError(raw []byte) (*APIError, bool) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil || len(body) == 0 {
		return nil, false
	}
	fields := make(map[string]string, len(body))
	for key, value := range body {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			fields[key] = text
			continue
		}
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			fields[key] = strings.Join(list, " ")
		}
	}
	if len(fields) == 0 {
		return nil, false
	}

	apiErr := &APIError{}
	for _, key := range []string{"message", "detail"} {
		if msg, ok := fields[key]; ok {
			if apiErr.Message == "" {
				apiErr.Message = msg
			}
			delete(fields, key)
		}
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
		if apiErr.Message == "" {
			keys := make([]string, 0, len(fields))
			for key := range fields {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			msgs := make([]string, 0, len(keys))
			for _, key := range keys {
				msgs = append(msgs, fields[key])
			}
			apiErr.Message = strings.Join(msgs, "; ")
		}
	}
	return apiErr, true
}
