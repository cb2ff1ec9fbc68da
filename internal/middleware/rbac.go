package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
	"github.com/noah-isme/sales-daily-api/pkg/response"
)

// RequireRoles rejects requests whose token role is not listed.
// Hierarchy checks stay in the services; this only gates whole routes.
func RequireRoles(roles ...models.StaffRole) gin.HandlerFunc {
	allowed := make(map[models.StaffRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireManager is RequireRoles(models.RoleManager).
func RequireManager() gin.HandlerFunc {
	return RequireRoles(models.RoleManager)
}
