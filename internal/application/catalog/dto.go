package catalog

import (
	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateBarcodeRequest represents a request to derive a barcode from a seed
type GenerateBarcodeRequest struct {
	Seed      string `json:"seed" binding:"max=200"`
	Symbology string `json:"symbology" binding:"omitempty,symbology"`
	// Unique asks for a value no product of the tenant uses yet
	Unique bool `json:"unique"`
}

// ValidateBarcodeRequest represents a request to check a barcode
type ValidateBarcodeRequest struct {
	Barcode   string `json:"barcode" binding:"required,max=200"`
	Symbology string `json:"symbology" binding:"omitempty,symbology"`
}

// AssignBarcodeRequest represents a request to set a product's barcode.
// An empty Barcode generates one from the product code.
type AssignBarcodeRequest struct {
	Barcode   string `json:"barcode" binding:"max=50"`
	Symbology string `json:"symbology" binding:"omitempty,symbology"`
}

// BarcodeResponse represents a barcode value in API responses
type BarcodeResponse struct {
	Barcode   string `json:"barcode"`
	Symbology string `json:"symbology"`
	Display   string `json:"display"`
	Length    int    `json:"length"`
}

// BarcodeValidationResponse represents the outcome of a validation
type BarcodeValidationResponse struct {
	Barcode   string `json:"barcode"`
	Symbology string `json:"symbology"`
	Valid     bool   `json:"valid"`
	Detected  string `json:"detected"`
	Display   string `json:"display"`
}

// SymbologyResponse describes one supported symbology
type SymbologyResponse struct {
	Name    string `json:"name"`
	Numeric bool   `json:"numeric"`
	Length  int    `json:"length,omitempty"`
	// Accepted reports whether products may be assigned codes of this symbology
	Accepted bool `json:"accepted"`
}

// BarcodeLabelResponse carries what a shelf or product label prints
type BarcodeLabelResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Barcode      string          `json:"barcode"`
	Symbology    string          `json:"symbology"`
	Display      string          `json:"display"`
}

// ToBarcodeResponse converts a code and its symbology to a response DTO
func ToBarcodeResponse(code string, symbology catalog.Symbology) BarcodeResponse {
	return BarcodeResponse{
		Barcode:   code,
		Symbology: string(symbology),
		Display:   catalog.FormatBarcodeForDisplay(code, symbology),
		Length:    len(code),
	}
}

// ToBarcodeLabelResponse converts a product to a label DTO
func ToBarcodeLabelResponse(p *catalog.Product) BarcodeLabelResponse {
	return BarcodeLabelResponse{
		ProductID:    p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Unit:         p.Unit,
		SellingPrice: p.SellingPrice,
		Barcode:      p.Barcode,
		Symbology:    string(p.BarcodeSymbology),
		Display:      p.DisplayBarcode(),
	}
}
