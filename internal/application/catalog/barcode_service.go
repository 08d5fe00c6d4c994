package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/erp/barcode/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxAttempts caps the collision-retry loop of GenerateUnique
const DefaultMaxAttempts = 10

// ErrGenerationExhausted is returned when every candidate barcode was taken
var ErrGenerationExhausted = shared.NewDomainError("BARCODE_GENERATION_EXHAUSTED", "Could not generate an unused barcode")

// BarcodeMetricsRecorder receives barcode activity counts
type BarcodeMetricsRecorder interface {
	RecordGenerated(ctx context.Context, symbology string)
	RecordValidated(ctx context.Context, symbology string, valid bool)
	RecordCollision(ctx context.Context, symbology string)
}

type noopBarcodeMetrics struct{}

func (noopBarcodeMetrics) RecordGenerated(context.Context, string)       {}
func (noopBarcodeMetrics) RecordValidated(context.Context, string, bool) {}
func (noopBarcodeMetrics) RecordCollision(context.Context, string)       {}

// BarcodeServiceConfig holds the barcode policy of the calling layer
type BarcodeServiceConfig struct {
	DefaultSymbology    catalog.Symbology
	MaxAttempts         int
	ReservationTTL      time.Duration
	AcceptedSymbologies []catalog.Symbology
}

// DefaultBarcodeServiceConfig returns the default barcode policy
func DefaultBarcodeServiceConfig() BarcodeServiceConfig {
	return BarcodeServiceConfig{
		DefaultSymbology: catalog.SymbologyEAN13,
		MaxAttempts:      DefaultMaxAttempts,
		ReservationTTL:   catalog.DefaultReservationTTL,
		AcceptedSymbologies: []catalog.Symbology{
			catalog.SymbologyEAN13,
			catalog.SymbologyEAN8,
			catalog.SymbologyUPCA,
			catalog.SymbologyITF14,
			catalog.SymbologyCode128,
		},
	}
}

// ParseBarcodeServiceConfig builds a policy from configured symbology names.
// Unknown names are rejected so a typo fails at startup instead of per request.
func ParseBarcodeServiceConfig(defaultSymbology string, maxAttempts int, ttl time.Duration, accepted []string) (BarcodeServiceConfig, error) {
	cfg := BarcodeServiceConfig{
		MaxAttempts:    maxAttempts,
		ReservationTTL: ttl,
	}

	if defaultSymbology != "" {
		sym, err := catalog.ParseSymbology(defaultSymbology)
		if err != nil {
			return cfg, fmt.Errorf("default symbology: %w", err)
		}
		cfg.DefaultSymbology = sym
	}
	for _, name := range accepted {
		sym, err := catalog.ParseSymbology(name)
		if err != nil {
			return cfg, fmt.Errorf("accepted symbologies: %w", err)
		}
		cfg.AcceptedSymbologies = append(cfg.AcceptedSymbologies, sym)
	}
	return cfg, nil
}

// BarcodeService handles barcode generation, validation and product assignment
type BarcodeService struct {
	productRepo  catalog.ProductRepository
	reservations catalog.BarcodeReservationStore
	metrics      BarcodeMetricsRecorder
	events       shared.EventPublisher
	logger       *zap.Logger
	cfg          BarcodeServiceConfig
	accepted     map[catalog.Symbology]bool
}

// NewBarcodeService creates a new BarcodeService
func NewBarcodeService(
	productRepo catalog.ProductRepository,
	reservations catalog.BarcodeReservationStore,
	cfg BarcodeServiceConfig,
	logger *zap.Logger,
) *BarcodeService {
	defaults := DefaultBarcodeServiceConfig()
	if !cfg.DefaultSymbology.IsValid() {
		cfg.DefaultSymbology = defaults.DefaultSymbology
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = defaults.ReservationTTL
	}
	if len(cfg.AcceptedSymbologies) == 0 {
		cfg.AcceptedSymbologies = defaults.AcceptedSymbologies
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	accepted := make(map[catalog.Symbology]bool, len(cfg.AcceptedSymbologies))
	for _, s := range cfg.AcceptedSymbologies {
		accepted[s] = true
	}

	return &BarcodeService{
		productRepo:  productRepo,
		reservations: reservations,
		metrics:      noopBarcodeMetrics{},
		logger:       logger,
		cfg:          cfg,
		accepted:     accepted,
	}
}

// WithMetrics sets the metrics recorder
func (s *BarcodeService) WithMetrics(metrics BarcodeMetricsRecorder) *BarcodeService {
	if metrics != nil {
		s.metrics = metrics
	}
	return s
}

// WithEventPublisher sets where product events go once the product is saved
func (s *BarcodeService) WithEventPublisher(publisher shared.EventPublisher) *BarcodeService {
	s.events = publisher
	return s
}

// Generate derives a barcode from the seed without checking uniqueness
func (s *BarcodeService) Generate(ctx context.Context, req GenerateBarcodeRequest) (*BarcodeResponse, error) {
	symbology, err := s.resolveSymbology(req.Symbology)
	if err != nil {
		return nil, err
	}

	code := catalog.GenerateBarcode(req.Seed, symbology)
	s.metrics.RecordGenerated(ctx, string(symbology))

	resp := ToBarcodeResponse(code, symbology)
	return &resp, nil
}

// GenerateForTenant serves a generate request on behalf of a tenant. With
// Unique set, the code is checked against the tenant's products and stays
// reserved for ReservationTTL so it can be assigned before anyone else takes it.
func (s *BarcodeService) GenerateForTenant(ctx context.Context, tenantID uuid.UUID, req GenerateBarcodeRequest) (*BarcodeResponse, error) {
	if !req.Unique {
		return s.Generate(ctx, req)
	}
	symbology, err := s.resolveSymbology(req.Symbology)
	if err != nil {
		return nil, err
	}
	return s.GenerateUnique(ctx, tenantID, req.Seed, symbology)
}

// Validate checks a barcode. Without a symbology the detected one is used.
func (s *BarcodeService) Validate(ctx context.Context, req ValidateBarcodeRequest) (*BarcodeValidationResponse, error) {
	detected := catalog.DetectSymbology(req.Barcode)

	symbology := detected
	if req.Symbology != "" {
		parsed, err := catalog.ParseSymbology(req.Symbology)
		if err != nil {
			return nil, err
		}
		symbology = parsed
	}

	valid := catalog.ValidateBarcode(req.Barcode, symbology)
	s.metrics.RecordValidated(ctx, string(symbology), valid)

	return &BarcodeValidationResponse{
		Barcode:   req.Barcode,
		Symbology: string(symbology),
		Valid:     valid,
		Detected:  string(detected),
		Display:   catalog.FormatBarcodeForDisplay(req.Barcode, symbology),
	}, nil
}

// Detect guesses the symbology of a code
func (s *BarcodeService) Detect(code string) *BarcodeResponse {
	resp := ToBarcodeResponse(code, catalog.DetectSymbology(code))
	return &resp
}

// Format returns the display form of a code. Without a symbology the
// detected one is used.
func (s *BarcodeService) Format(code, symbology string) (*BarcodeResponse, error) {
	sym := catalog.DetectSymbology(code)
	if symbology != "" {
		parsed, err := catalog.ParseSymbology(symbology)
		if err != nil {
			return nil, err
		}
		sym = parsed
	}

	resp := ToBarcodeResponse(code, sym)
	return &resp, nil
}

// Symbologies lists the supported symbologies and whether products accept them
func (s *BarcodeService) Symbologies() []SymbologyResponse {
	all := catalog.Symbologies()
	result := make([]SymbologyResponse, 0, len(all))
	for _, sym := range all {
		result = append(result, SymbologyResponse{
			Name:     string(sym),
			Numeric:  sym.IsNumeric(),
			Length:   sym.Length(),
			Accepted: s.accepted[sym],
		})
	}
	return result
}

// GenerateUnique derives a barcode that no product of the tenant uses and no
// concurrent caller holds. Attempt 0 uses the seed as is; attempt n prefixes
// it with the counter.
func (s *BarcodeService) GenerateUnique(ctx context.Context, tenantID uuid.UUID, seed string, symbology catalog.Symbology) (*BarcodeResponse, error) {
	if !symbology.IsValid() {
		return nil, shared.NewDomainError("INVALID_SYMBOLOGY", "Unsupported barcode symbology: "+string(symbology))
	}

	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate := seed
		if attempt > 0 {
			candidate = strconv.Itoa(attempt) + "-" + seed
		}
		code := catalog.GenerateBarcode(candidate, symbology)

		free, err := s.claim(ctx, tenantID, code)
		if err != nil {
			return nil, err
		}
		if !free {
			s.metrics.RecordCollision(ctx, string(symbology))
			s.logger.Debug("barcode collision",
				zap.String("tenant_id", tenantID.String()),
				zap.String("barcode", code),
				zap.Int("attempt", attempt),
			)
			continue
		}

		s.metrics.RecordGenerated(ctx, string(symbology))
		resp := ToBarcodeResponse(code, symbology)
		return &resp, nil
	}

	s.logger.Warn("barcode generation exhausted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("seed", seed),
		zap.String("symbology", string(symbology)),
		zap.Int("max_attempts", s.cfg.MaxAttempts),
	)
	return nil, ErrGenerationExhausted
}

// claim reserves code and then checks it against saved products
func (s *BarcodeService) claim(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	if s.reservations != nil {
		reserved, err := s.reservations.Reserve(ctx, tenantID, code, s.cfg.ReservationTTL)
		if err != nil {
			return false, fmt.Errorf("reserve barcode: %w", err)
		}
		if !reserved {
			return false, nil
		}
	}

	exists, err := s.productRepo.ExistsByBarcode(ctx, tenantID, code)
	if err != nil {
		s.release(ctx, tenantID, code)
		return false, fmt.Errorf("check barcode: %w", err)
	}
	return !exists, nil
}

func (s *BarcodeService) release(ctx context.Context, tenantID uuid.UUID, code string) {
	if s.reservations == nil {
		return
	}
	if err := s.reservations.Release(ctx, tenantID, code); err != nil {
		s.logger.Warn("failed to release barcode reservation",
			zap.String("barcode", code),
			zap.Error(err),
		)
	}
}

// AssignToProduct sets a product's barcode. An empty barcode in the request
// generates a unique one seeded by the product code.
func (s *BarcodeService) AssignToProduct(ctx context.Context, tenantID, productID uuid.UUID, req AssignBarcodeRequest) (*BarcodeLabelResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Barcode)
	symbology := catalog.DetectSymbology(code)
	if code == "" || req.Symbology != "" {
		symbology, err = s.resolveSymbology(req.Symbology)
		if err != nil {
			return nil, err
		}
	}

	if !s.accepted[symbology] {
		return nil, shared.NewDomainError("INVALID_SYMBOLOGY", "Symbology "+string(symbology)+" is not accepted for products")
	}

	generated := code == ""
	if generated {
		resp, err := s.GenerateUnique(ctx, tenantID, product.Code, symbology)
		if err != nil {
			return nil, err
		}
		code = resp.Barcode
	} else if !catalog.ValidateBarcode(code, symbology) {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode is not a valid "+string(symbology)+" value")
	} else if code != product.Barcode {
		exists, err := s.productRepo.ExistsByBarcode(ctx, tenantID, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this barcode already exists")
		}
	}

	if err := product.AssignBarcode(code, symbology); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	if generated {
		// saved, so the repository check covers it from here on
		s.release(ctx, tenantID, code)
	}
	s.publishEvents(ctx, product)

	s.logger.Info("barcode assigned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("barcode", code),
		zap.String("symbology", string(symbology)),
	)

	resp := ToBarcodeLabelResponse(product)
	return &resp, nil
}

// publishEvents hands pending product events to the publisher. Failures are
// logged only; the assignment is already persisted.
func (s *BarcodeService) publishEvents(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}

// LookupByBarcode finds the product a scanner or a typed-in display form refers to
func (s *BarcodeService) LookupByBarcode(ctx context.Context, tenantID uuid.UUID, code string) (*BarcodeLabelResponse, error) {
	code = strings.Join(strings.Fields(code), "")
	if code == "" {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot be empty")
	}

	product, err := s.productRepo.FindByBarcode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}

	resp := ToBarcodeLabelResponse(product)
	return &resp, nil
}

// GetLabel returns the label data of a product
func (s *BarcodeService) GetLabel(ctx context.Context, tenantID, productID uuid.UUID) (*BarcodeLabelResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.HasBarcode() {
		return nil, shared.NewDomainError("NO_BARCODE", "Product has no barcode assigned")
	}

	resp := ToBarcodeLabelResponse(product)
	return &resp, nil
}

func (s *BarcodeService) resolveSymbology(name string) (catalog.Symbology, error) {
	if name == "" {
		return s.cfg.DefaultSymbology, nil
	}
	return catalog.ParseSymbology(name)
}
