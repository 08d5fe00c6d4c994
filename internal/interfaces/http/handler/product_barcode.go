package handler

import (
	catalogapp "github.com/erp/barcode/internal/application/catalog"
	"github.com/erp/barcode/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ProductBarcodeHandler handles barcode operations on catalog products
type ProductBarcodeHandler struct {
	BaseHandler
	barcodeService *catalogapp.BarcodeService
}

// NewProductBarcodeHandler creates a new ProductBarcodeHandler
func NewProductBarcodeHandler(barcodeService *catalogapp.BarcodeService) *ProductBarcodeHandler {
	return &ProductBarcodeHandler{
		barcodeService: barcodeService,
	}
}

// AssignBarcode godoc
// @Summary      Assign a barcode to a product
// @Description  Sets the given barcode, or generates an unused one from the product code when the body carries none
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.AssignBarcodeRequest false "Barcode to assign"
// @Router       /catalog/products/{id}/barcode [post]
func (h *ProductBarcodeHandler) AssignBarcode(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	productID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req catalogapp.AssignBarcodeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	resp, err := h.barcodeService.AssignToProduct(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetLabel godoc
// @Summary      Get the barcode label of a product
// @Tags         catalog
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Product ID" format(uuid)
// @Router       /catalog/products/{id}/barcode-label [get]
func (h *ProductBarcodeHandler) GetLabel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	productID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.barcodeService.GetLabel(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LookupByBarcode godoc
// @Summary      Find a product by barcode
// @Description  Scanner lookup. Display spacing in the code is ignored.
// @Tags         catalog
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        barcode path string true "Barcode"
// @Router       /catalog/products/by-barcode/{barcode} [get]
func (h *ProductBarcodeHandler) LookupByBarcode(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	resp, err := h.barcodeService.LookupByBarcode(c.Request.Context(), tenantID, c.Param("barcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
