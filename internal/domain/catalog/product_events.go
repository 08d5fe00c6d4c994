package catalog

import (
	"github.com/erp/barcode/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductBarcodeAssigned = "ProductBarcodeAssigned"
)

// ProductBarcodeAssignedEvent is published when a product's barcode changes.
// NewBarcode is empty when the barcode was cleared.
type ProductBarcodeAssignedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	Code       string    `json:"code"`
	OldBarcode string    `json:"old_barcode,omitempty"`
	NewBarcode string    `json:"new_barcode,omitempty"`
	Symbology  Symbology `json:"symbology,omitempty"`
}

// NewProductBarcodeAssignedEvent creates a new ProductBarcodeAssignedEvent
func NewProductBarcodeAssignedEvent(product *Product, oldBarcode string) *ProductBarcodeAssignedEvent {
	return &ProductBarcodeAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductBarcodeAssigned, AggregateTypeProduct, product.ID, product.TenantID),
		ProductID:       product.ID,
		Code:            product.Code,
		OldBarcode:      oldBarcode,
		NewBarcode:      product.Barcode,
		Symbology:       product.BarcodeSymbology,
	}
}
