package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/miqaat-rms-api/internal/middleware"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	appErrors "github.com/noah-isme/miqaat-rms-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}

func parseID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.WithFields(appErrors.ErrValidation, "invalid id", map[string]string{"id": "id must be a positive integer"})
	}
	return id, nil
}
