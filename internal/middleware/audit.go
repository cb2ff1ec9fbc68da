package middleware

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/models"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit log after successful requests. The resource id is taken from the
// :id path parameter, or from the "audit_resource_id" context key set by create handlers.
func Audit(repo auditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 || repo == nil {
			return
		}

		var staffID *int64
		if claims := ClaimsFrom(c); claims != nil {
			id := claims.StaffID
			staffID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		entry := &models.AuditLog{
			StaffID:    staffID,
			Action:     action,
			Resource:   resource,
			ResourceID: auditResourceID(c),
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			CreatedAt:  start,
		}
		if err := repo.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
		}
	}
}

// AuditResourceKey lets a handler report the id of a resource it just created.
const AuditResourceKey = "audit_resource_id"

func auditResourceID(c *gin.Context) *int64 {
	if value, ok := c.Get(AuditResourceKey); ok {
		if id, ok := value.(int64); ok {
			return &id
		}
	}
	if raw := c.Param("id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}
