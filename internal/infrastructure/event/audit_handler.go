package event

import (
	"context"

	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/erp/barcode/internal/domain/shared"
	"github.com/erp/barcode/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// BarcodeAuditHandler writes an audit log entry for every product barcode change
type BarcodeAuditHandler struct {
	log *zap.Logger
}

// NewBarcodeAuditHandler creates a new BarcodeAuditHandler
func NewBarcodeAuditHandler(log *zap.Logger) *BarcodeAuditHandler {
	return &BarcodeAuditHandler{log: log.Named("barcode_audit")}
}

// EventTypes implements shared.EventHandler
func (h *BarcodeAuditHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductBarcodeAssigned}
}

// Handle implements shared.EventHandler
func (h *BarcodeAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*catalog.ProductBarcodeAssignedEvent)
	if !ok {
		return nil
	}

	action := "assigned"
	switch {
	case evt.NewBarcode == "":
		action = "cleared"
	case evt.OldBarcode != "":
		action = "replaced"
	}

	fields := []zap.Field{
		zap.String("event_id", evt.EventID().String()),
		zap.String("product_id", evt.ProductID.String()),
		zap.String("code", evt.Code),
		zap.String("old_barcode", evt.OldBarcode),
		zap.String("new_barcode", evt.NewBarcode),
		zap.String("symbology", string(evt.Symbology)),
		zap.Time("occurred_at", evt.OccurredAt()),
	}
	// request-scoped publishes already carry the tenant in ctx
	if logger.GetTenantID(ctx) == "" {
		fields = append(fields, zap.String("tenant_id", evt.TenantID().String()))
	}

	logger.ForLogger(ctx, h.log).Info("product barcode "+action, fields...)
	return nil
}

var _ shared.EventHandler = (*BarcodeAuditHandler)(nil)
