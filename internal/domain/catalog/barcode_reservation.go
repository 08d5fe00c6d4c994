package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BarcodeReservationStore holds short-lived claims on freshly generated
// barcodes so that concurrent generators do not hand out the same value
// before either has been saved
type BarcodeReservationStore interface {
	// Reserve claims code for the tenant with a TTL
	// Returns true if the claim is new, false if someone already holds it
	Reserve(ctx context.Context, tenantID uuid.UUID, code string, ttl time.Duration) (bool, error)

	// Release drops a claim before its TTL expires
	Release(ctx context.Context, tenantID uuid.UUID, code string) error

	// Close closes the store and releases resources
	Close() error
}

// DefaultReservationTTL bounds how long a generated barcode stays claimed
// without being saved to a product
const DefaultReservationTTL = 5 * time.Minute
