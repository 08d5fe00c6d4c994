package catalog

import (
	"strings"
	"time"

	"github.com/erp/barcode/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxBarcodeLength is the widest barcode the products table can hold
const MaxBarcodeLength = 50

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product represents a product/SKU in the catalog
// It is the aggregate root for barcode assignment
type Product struct {
	shared.TenantAggregateRoot
	Code             string          `gorm:"type:varchar(50);not null;index"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Description      string          `gorm:"type:text"`
	Barcode          string          `gorm:"type:varchar(50);index"`
	BarcodeSymbology Symbology       `gorm:"type:varchar(20)"`
	Unit             string          `gorm:"type:varchar(20);not null"`             // Base unit (e.g., "pcs", "kg", "box")
	SellingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Printed on labels
	Status           ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(tenantID uuid.UUID, code, name, unit string) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		Unit:                unit,
		SellingPrice:        decimal.Zero,
		Status:              ProductStatusActive,
	}, nil
}

// AssignBarcode sets the product barcode after checking it against symbology.
// Assigning the current value again changes nothing.
func (p *Product) AssignBarcode(code string, symbology Symbology) error {
	if code == "" {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}
	if len(code) > MaxBarcodeLength {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 50 characters")
	}
	if !symbology.IsValid() {
		return shared.NewDomainError("INVALID_SYMBOLOGY", "Unsupported barcode symbology: "+string(symbology))
	}
	if !ValidateBarcode(code, symbology) {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode is not a valid "+string(symbology)+" value")
	}
	if p.Barcode == code && p.BarcodeSymbology == symbology {
		return nil
	}

	old := p.Barcode
	p.Barcode = code
	p.BarcodeSymbology = symbology
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductBarcodeAssignedEvent(p, old))

	return nil
}

// ClearBarcode removes the product barcode
func (p *Product) ClearBarcode() {
	if p.Barcode == "" {
		return
	}

	old := p.Barcode
	p.Barcode = ""
	p.BarcodeSymbology = ""
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductBarcodeAssignedEvent(p, old))
}

// HasBarcode returns true if a barcode is assigned
func (p *Product) HasBarcode() bool {
	return p.Barcode != ""
}

// DisplayBarcode returns the barcode in human-readable grouping
func (p *Product) DisplayBarcode() string {
	return FormatBarcodeForDisplay(p.Barcode, p.BarcodeSymbology)
}

// UpdateSellingPrice updates the selling price
func (p *Product) UpdateSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.SellingPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// validateProductCode validates the product code (SKU)
func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	// Code should be alphanumeric with underscores and hyphens
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

// validateUnit validates the unit
func validateUnit(unit string) error {
	if unit == "" {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if len(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}
	return nil
}
