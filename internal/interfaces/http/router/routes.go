package router

import (
	"github.com/erp/barcode/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// BarcodeRoutes exposes the codec under /barcodes
func BarcodeRoutes(h *handler.BarcodeHandler) *DomainGroup {
	return NewDomainGroup("barcodes", "/barcodes").
		POST("/generate", h.Generate).
		POST("/validate", h.Validate).
		GET("/detect", h.Detect).
		GET("/format", h.Format).
		GET("/symbologies", h.Symbologies)
}

// CatalogRoutes exposes product barcode operations under /catalog/products
func CatalogRoutes(h *handler.ProductBarcodeHandler) *DomainGroup {
	return NewDomainGroup("catalog", "/catalog/products").
		POST("/:id/barcode", h.AssignBarcode).
		GET("/:id/barcode-label", h.GetLabel).
		GET("/by-barcode/:barcode", h.LookupByBarcode)
}

// RegisterHealth mounts the health check at the engine root
func RegisterHealth(engine *gin.Engine, h *handler.HealthHandler) {
	engine.GET("/health", h.Health)
}
