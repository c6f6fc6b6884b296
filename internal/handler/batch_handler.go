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

type batchService interface {
	List(ctx context.Context) ([]models.Batch, error)
	Get(ctx context.Context, id int64) (*models.Batch, error)
	Create(ctx context.Context, form dto.BatchForm, actor *models.JWTClaims) (*models.Batch, error)
	Update(ctx context.Context, id int64, form dto.BatchForm, actor *models.JWTClaims) (*models.Batch, error)
	Resolve(ctx context.Context, id int64, status string, actor *models.JWTClaims) (*models.BatchResolution, error)
}

// BatchHandler exposes batch endpoints.
type BatchHandler struct {
	service batchService
}

// NewBatchHandler builds a new handler.
func NewBatchHandler(service batchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// List godoc
// @Summary List batches with their requests
// @Tags Batches
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Security BearerAuth
// @Router /requests/batch/ [get]
func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Results(c, batches, len(batches), nil)
}

// Get godoc
// @Summary Get a batch
// @Tags Batches
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} models.Batch
// @Failure 404 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/batch/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	batch, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch)
}

// Create godoc
// @Summary Create a batch from todo requests
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body dto.BatchForm true "Batch payload"
// @Success 201 {object} models.Batch
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/batch/ [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var form dto.BatchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	batch, err := h.service.Create(c.Request.Context(), form, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// Update godoc
// @Summary Rename an open batch and replace its requests
// @Tags Batches
// @Accept json
// @Produce json
// @Param id path int true "Batch ID"
// @Param payload body dto.BatchForm true "Batch payload"
// @Success 200 {object} models.Batch
// @Failure 409 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/batch/{id}/edit/ [patch]
func (h *BatchHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var form dto.BatchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	batch, err := h.service.Update(c.Request.Context(), id, form, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch)
}

// Resolve godoc
// @Summary Apply a terminal status to a batch
// @Description todo deletes the batch and resets its requests; completed and duplicate keep it.
// @Tags Batches
// @Produce json
// @Param id path int true "Batch ID"
// @Param status query string true "todo, completed or duplicate"
// @Success 200 {object} models.BatchResolution
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Security BearerAuth
// @Router /requests/batches/{id}/delete/ [delete]
func (h *BatchHandler) Resolve(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Resolve(c.Request.Context(), id, c.Query("status"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
