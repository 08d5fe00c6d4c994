package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByIDForTenant finds a product by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByBarcode finds a product by its barcode within a tenant
	FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// ExistsByBarcode checks if a product with the given barcode exists in the tenant
	ExistsByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (bool, error)
}
