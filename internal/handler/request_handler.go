package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
	"github.com/noah-isme/miqaat-rms-api/pkg/response"
)

type requestService interface {
	List(ctx context.Context, query dto.RequestQuery) ([]models.Request, *models.Pagination, error)
	ListBatchable(ctx context.Context) ([]models.Request, error)
	Get(ctx context.Context, id int64) (*models.Request, error)
	Filters(ctx context.Context) (*models.FilterOptions, error)
	Create(ctx context.Context, form dto.RequestForm, actor *models.JWTClaims) (*models.Request, error)
	Update(ctx context.Context, id int64, form dto.RequestForm, actor *models.JWTClaims) (*models.Request, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
}

// RequestHandler exposes request endpoints.
type RequestHandler struct {
	service requestService
}

// NewRequestHandler builds a new handler.
func NewRequestHandler(service requestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// List godoc
// @Summary List requests
// @Tags Requests
// @Produce json
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param created_by query string false "Creator id"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.ListEnvelope
// @Failure 400 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var query dto.RequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	count := len(items)
	if pagination != nil {
		count = pagination.TotalCount
	}
	response.Results(c, items, count, pagination)
}

// ListBatchable godoc
// @Summary List requests that can be placed in a batch
// @Tags Requests
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Security BearerAuth
// @Router /requests/filter-requests/ [get]
func (h *RequestHandler) ListBatchable(c *gin.Context) {
	items, err := h.service.ListBatchable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Results(c, items, len(items), nil)
}

// Filters godoc
// @Summary Filter options for the request list
// @Tags Requests
// @Produce json
// @Success 200 {object} models.FilterOptions
// @Security BearerAuth
// @Router /requests/filters [get]
func (h *RequestHandler) Filters(c *gin.Context) {
	options, err := h.service.Filters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}

// Get godoc
// @Summary Get a request
// @Tags Requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} models.Request
// @Failure 404 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Create a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.RequestForm true "Request payload"
// @Success 201 {object} models.Request
// @Failure 400 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/create-request/ [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var form dto.RequestForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), form, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit a todo request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.RequestForm true "Request payload"
// @Success 200 {object} models.Request
// @Failure 409 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/requests/{id}/edit/ [patch]
func (h *RequestHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var form dto.RequestForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, form, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete a todo request
// @Tags Requests
// @Param id path int true "Request ID"
// @Success 204
// @Failure 409 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/requests/{id}/delete/ [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
