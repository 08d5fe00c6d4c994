package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/barcode/internal/infrastructure/logger"
	"github.com/erp/barcode/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TenantIDKey is where the tenant ID string is stored in gin.Context.
	// The request logger reads it under the same key.
	TenantIDKey = "tenant_id"
	// TenantHeaderKey is the header the tenant is read from
	TenantHeaderKey = "X-Tenant-ID"

	tenantUUIDKey = "tenant_uuid"
)

// DevelopmentTenantID is used when a request carries no tenant header and
// the middleware is configured to fall back
var DevelopmentTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// TenantConfig holds configuration for the tenant middleware
type TenantConfig struct {
	// DefaultTenantID applies when the header is absent. uuid.Nil makes the header mandatory.
	DefaultTenantID uuid.UUID
	// SkipPaths don't need a tenant (health checks)
	SkipPaths []string
}

// DefaultTenantConfig falls back to the development tenant
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		DefaultTenantID: DevelopmentTenantID,
		SkipPaths:       []string{"/health"},
	}
}

// Tenant resolves the tenant from X-Tenant-ID and stores it in both the gin
// context and the request context
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID := cfg.DefaultTenantID
		if header := strings.TrimSpace(c.GetHeader(TenantHeaderKey)); header != "" {
			parsed, err := uuid.Parse(header)
			if err != nil {
				abortTenant(c, "Invalid tenant ID format")
				return
			}
			tenantID = parsed
		}
		if tenantID == uuid.Nil {
			abortTenant(c, "Tenant identification required")
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		c.Set(tenantUUIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))

		c.Next()
	}
}

func abortTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidTenant, message, GetRequestID(c)))
}

// GetTenantID returns the tenant resolved by Tenant, or false when the
// middleware did not run for this request
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantUUIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
