package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

func newTestServer(t *testing.T, status int, payload string) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	calls := &[]recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*calls = append(*calls, recordedCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestCreateBatchSendsNameAndIDs(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusCreated, `{"id":7,"name":"Morning Run","status":"open","request_ids":[1,3]}`)
	c := NewClient(srv.URL+"/api/", NewSession("tok", nil))

	batch, err := c.CreateBatch(context.Background(), dto.BatchForm{Name: "Morning Run", RequestIDs: []int64{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), batch.ID)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/api/requests/batch/", call.Path)
	assert.Equal(t, "Bearer tok", call.Auth)
	assert.JSONEq(t, `{"name":"Morning Run","request_ids":[1,3]}`, call.Body)
}

func TestSetBatchStatusUsesDeleteWithStatusQuery(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"batch_id":42,"status":"duplicate","request_ids":[1],"deleted":false,"changed":true}`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	result, err := c.SetBatchStatus(context.Background(), 42, models.BatchTargetDuplicate)
	require.NoError(t, err)
	assert.False(t, result.Deleted)

	call := (*calls)[0]
	assert.Equal(t, http.MethodDelete, call.Method)
	assert.Equal(t, "/requests/batches/42/delete/", call.Path)
	assert.Equal(t, "status=duplicate", call.Query)
}

func TestListRequestsEncodesFilters(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"results":[{"id":1,"its":"11111111","type":"pass_request","status":"todo"}],"count":1,"pagination":{"page":1,"page_size":100,"total_count":1}}`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	items, pagination, err := c.ListRequests(context.Background(), RequestQuery{Status: "todo", CreatedBy: "u1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.RequestTypePass, items[0].Type)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, "created_by=u1&status=todo", (*calls)[0].Query)
}

func TestEditRequestSendsNullSlots(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `{"id":5}`)
	c := NewClient(srv.URL, NewSession("tok", nil))
	city := int64(3)

	_, err := c.UpdateRequest(context.Background(), 5, dto.RequestForm{ITS: "12345678", Type: models.RequestTypeChangeCity, City: &city})
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "/requests/requests/5/edit/", call.Path)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(call.Body), &body))
	assert.Nil(t, body["zone"])
	assert.Nil(t, body["toggle"])
	assert.Nil(t, body["pass_date"])
	assert.Equal(t, float64(3), body["city"])
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`)
	fired := 0
	session := NewSession("stale", func() { fired++ })
	c := NewClient(srv.URL, session)

	_, err := c.ListBatches(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, fired)
	assert.False(t, session.Active())
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"error":{"code":"VALIDATION_ERROR","message":"invalid payload","status":400,"fields":{"its":"ITS must be an 8-digit number."}}}`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	_, err := c.CreateRequest(context.Background(), dto.RequestForm{ITS: "1"})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid payload", apiErr.Message)
	assert.Equal(t, "ITS must be an 8-digit number.", apiErr.Fields["its"])
}

func TestDeleteRequestSurfacesPlainError(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusConflict, `only todo requests can be deleted`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	err := c.DeleteRequest(context.Background(), 9)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "only todo requests can be deleted", apiErr.Message)
	assert.Equal(t, "/requests/requests/9/delete/", (*calls)[0].Path)
}

func TestDeleteRequestPlainMessageBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"message":"Request is linked to a batch"}`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	err := c.DeleteRequest(context.Background(), 4)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Request is linked to a batch", apiErr.Message)
	assert.Empty(t, apiErr.Fields)
}

func TestCreateRequestFlatFieldErrors(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"its":"ITS already has an open request"}`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	_, err := c.CreateRequest(context.Background(), dto.RequestForm{ITS: "12345678", Type: models.RequestTypeChangeCity})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"its": "ITS already has an open request"}, apiErr.Fields)
	assert.Equal(t, "ITS already has an open request", apiErr.Message)
}

func TestFieldListErrorsJoined(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"detail":"Invalid input.","zone":["This field is required.","Must be positive."],"code":400,"city":null}`)
	c := NewClient(srv.URL, NewSession("tok", nil))

	_, err := c.CreateRequest(context.Background(), dto.RequestForm{ITS: "12345678", Type: models.RequestTypeChangeZone})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid input.", apiErr.Message)
	assert.Equal(t, map[string]string{"zone": "This field is required. Must be positive."}, apiErr.Fields)
}

func TestNonObjectErrorBodyKeptAsText(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, "  [1,2]\n")
	c := NewClient(srv.URL, NewSession("tok", nil))

	err := c.DeleteRequest(context.Background(), 4)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "[1,2]", apiErr.Message)
	assert.Nil(t, apiErr.Fields)
}

func TestReferenceLists(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[{"code":"pass_request","description":"Pass"}]`)
	c := NewClient(srv.URL, nil)

	perms, err := c.Permissions(context.Background())
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "pass_request", perms[0].Code)

	srv, calls := newTestServer(t, http.StatusOK, `{"results":[{"id":1,"name":"Mumbai"}]}`)
	c = NewClient(srv.URL, nil)
	cities, err := c.Cities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", cities[0].Name)
	assert.Empty(t, (*calls)[0].Auth)
}
