package handler

import (
	catalogapp "github.com/erp/barcode/internal/application/catalog"
	"github.com/erp/barcode/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BarcodeHandler handles the barcode codec endpoints
type BarcodeHandler struct {
	BaseHandler
	barcodeService *catalogapp.BarcodeService
}

// NewBarcodeHandler creates a new BarcodeHandler
func NewBarcodeHandler(barcodeService *catalogapp.BarcodeService) *BarcodeHandler {
	return &BarcodeHandler{
		barcodeService: barcodeService,
	}
}

// CodeQuery carries a barcode in the query string
type CodeQuery struct {
	Code string `form:"code" binding:"required,max=200"`
}

// FormatQuery carries a barcode and an optional symbology in the query string
type FormatQuery struct {
	Code      string `form:"code" binding:"required,max=200"`
	Symbology string `form:"symbology" binding:"omitempty,symbology"`
}

// Generate godoc
// @Summary      Generate a barcode
// @Description  Derives a barcode from a seed. With unique=true the code is unused within the tenant.
// @Tags         barcodes
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body catalogapp.GenerateBarcodeRequest true "Generation request"
// @Router       /barcodes/generate [post]
func (h *BarcodeHandler) Generate(c *gin.Context) {
	var req catalogapp.GenerateBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	resp, err := h.barcodeService.GenerateForTenant(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Validate godoc
// @Summary      Validate a barcode
// @Description  Checks length, digits and check digit. Without a symbology the detected one is used.
// @Tags         barcodes
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.ValidateBarcodeRequest true "Validation request"
// @Router       /barcodes/validate [post]
func (h *BarcodeHandler) Validate(c *gin.Context) {
	var req catalogapp.ValidateBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.barcodeService.Validate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Detect godoc
// @Summary      Detect the symbology of a barcode
// @Tags         barcodes
// @Produce      json
// @Param        code query string true "Barcode"
// @Router       /barcodes/detect [get]
func (h *BarcodeHandler) Detect(c *gin.Context) {
	var q CodeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.Success(c, h.barcodeService.Detect(q.Code))
}

// Format godoc
// @Summary      Format a barcode for display
// @Tags         barcodes
// @Produce      json
// @Param        code      query string true  "Barcode"
// @Param        symbology query string false "Symbology, detected when omitted"
// @Router       /barcodes/format [get]
func (h *BarcodeHandler) Format(c *gin.Context) {
	var q FormatQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.barcodeService.Format(q.Code, q.Symbology)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Symbologies godoc
// @Summary      List supported symbologies
// @Tags         barcodes
// @Produce      json
// @Router       /barcodes/symbologies [get]
func (h *BarcodeHandler) Symbologies(c *gin.Context) {
	h.Success(c, h.barcodeService.Symbologies())
}
