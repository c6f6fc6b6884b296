package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

// ErrorEnvelope wraps failures so clients can read a message and optional field errors.
type ErrorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

// ListEnvelope is the list contract consumed by the dashboard: `{"results": [...]}`.
type ListEnvelope struct {
	Results    interface{}        `json:"results"`
	Count      int                `json:"count"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// JSON sends a success payload as is.
func JSON(c *gin.Context, status int, data interface{}) {
	noStore(c)
	c.JSON(status, data)
}

// Results sends a list payload with optional pagination metadata.
func Results(c *gin.Context, results interface{}, count int, pagination *models.Pagination) {
	noStore(c)
	c.JSON(http.StatusOK, ListEnvelope{Results: results, Count: count, Pagination: pagination})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	noStore(c)
	c.JSON(appErr.Status, ErrorEnvelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
