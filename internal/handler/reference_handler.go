package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/middleware"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/pkg/response"
)

type referenceService interface {
	Permissions(ctx context.Context) ([]models.Permission, bool, error)
	Cities(ctx context.Context) ([]models.City, bool, error)
	Zones(ctx context.Context) ([]models.Zone, bool, error)
}

// ReferenceHandler serves the lookup lists used by the request form.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler builds a new handler.
func NewReferenceHandler(service referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// Permissions godoc
// @Summary List permission codes usable as request types
// @Tags Reference
// @Produce json
// @Success 200 {array} models.Permission
// @Security BearerAuth
// @Router /users/permissions/ [get]
func (h *ReferenceHandler) Permissions(c *gin.Context) {
	list, hit, err := h.service.Permissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, list)
}

// Cities godoc
// @Summary List cities
// @Tags Reference
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Security BearerAuth
// @Router /requests/cities [get]
func (h *ReferenceHandler) Cities(c *gin.Context) {
	list, hit, err := h.service.Cities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.Results(c, list, len(list), nil)
}

// Zones godoc
// @Summary List zones
// @Tags Reference
// @Produce json
// @Success 200 {object} response.ListEnvelope
// @Security BearerAuth
// @Router /requests/zones [get]
func (h *ReferenceHandler) Zones(c *gin.Context) {
	list, hit, err := h.service.Zones(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.Results(c, list, len(list), nil)
}
