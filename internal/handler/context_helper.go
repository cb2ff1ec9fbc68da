package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sales-daily-api/internal/middleware"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFrom(c)
}

// actorFromContext returns the authenticated actor, or an UNAUTHORIZED error when the JWT middleware did not run.
func actorFromContext(c *gin.Context) (models.Actor, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.StaffID == 0 {
		return models.Actor{}, appErrors.ErrUnauthorized
	}
	return claims.Actor(), nil
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Validation("invalid path parameter", map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// pageParams reads page and pageSize; malformed values fall back to the service defaults.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", c.Query("page_size")))
	return page, pageSize
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
