package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Attribute keys attached to barcode metrics
const (
	AttrSymbology = attribute.Key("barcode.symbology")
	AttrValid     = attribute.Key("barcode.valid")
)

// BarcodeMetrics counts barcode generation and validation activity.
type BarcodeMetrics struct {
	generated  *Counter
	validated  *Counter
	collisions *Counter
}

// NewBarcodeMetrics registers the barcode counters on meter.
func NewBarcodeMetrics(meter metric.Meter) (*BarcodeMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	generated, err := NewCounter(meter, "barcode.generated", "Barcodes generated", "{barcode}")
	if err != nil {
		return nil, err
	}
	validated, err := NewCounter(meter, "barcode.validated", "Barcodes validated", "{barcode}")
	if err != nil {
		return nil, err
	}
	collisions, err := NewCounter(meter, "barcode.collisions", "Generated barcodes already in use", "{barcode}")
	if err != nil {
		return nil, err
	}

	return &BarcodeMetrics{
		generated:  generated,
		validated:  validated,
		collisions: collisions,
	}, nil
}

// RecordGenerated counts a generated barcode.
func (m *BarcodeMetrics) RecordGenerated(ctx context.Context, symbology string) {
	m.generated.Inc(ctx, AttrSymbology.String(symbology))
}

// RecordValidated counts a validation and its outcome.
func (m *BarcodeMetrics) RecordValidated(ctx context.Context, symbology string, valid bool) {
	m.validated.Inc(ctx, AttrSymbology.String(symbology), AttrValid.Bool(valid))
}

// RecordCollision counts a generated candidate that was already taken.
func (m *BarcodeMetrics) RecordCollision(ctx context.Context, symbology string) {
	m.collisions.Inc(ctx, AttrSymbology.String(symbology))
}
