package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/erp/barcode/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) ExistsByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (bool, error) {
	args := m.Called(ctx, tenantID, barcode)
	return args.Bool(0), args.Error(1)
}

// MockReservationStore is a mock implementation of BarcodeReservationStore
type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) Reserve(ctx context.Context, tenantID uuid.UUID, code string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, tenantID, code, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationStore) Release(ctx context.Context, tenantID uuid.UUID, code string) error {
	args := m.Called(ctx, tenantID, code)
	return args.Error(0)
}

func (m *MockReservationStore) Close() error {
	return m.Called().Error(0)
}

// MockBarcodeMetrics is a mock implementation of BarcodeMetricsRecorder
type MockBarcodeMetrics struct {
	mock.Mock
}

func (m *MockBarcodeMetrics) RecordGenerated(ctx context.Context, symbology string) {
	m.Called(ctx, symbology)
}

func (m *MockBarcodeMetrics) RecordValidated(ctx context.Context, symbology string, valid bool) {
	m.Called(ctx, symbology, valid)
}

func (m *MockBarcodeMetrics) RecordCollision(ctx context.Context, symbology string) {
	m.Called(ctx, symbology)
}

func newTestBarcodeService(cfg BarcodeServiceConfig) (*BarcodeService, *MockProductRepository, *MockReservationStore) {
	repo := new(MockProductRepository)
	store := new(MockReservationStore)
	return NewBarcodeService(repo, store, cfg, zap.NewNop()), repo, store
}

func newTestProduct(t *testing.T, tenantID uuid.UUID) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(tenantID, "SKU-001", "Test Product", "pcs")
	require.NoError(t, err)
	return product
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func TestNewBarcodeService_Defaults(t *testing.T) {
	svc, _, _ := newTestBarcodeService(BarcodeServiceConfig{})

	assert.Equal(t, catalog.SymbologyEAN13, svc.cfg.DefaultSymbology)
	assert.Equal(t, DefaultMaxAttempts, svc.cfg.MaxAttempts)
	assert.Equal(t, catalog.DefaultReservationTTL, svc.cfg.ReservationTTL)
	assert.True(t, svc.accepted[catalog.SymbologyCode128])
	assert.False(t, svc.accepted[catalog.SymbologyUPCE])
}

func TestParseBarcodeServiceConfig(t *testing.T) {
	t.Run("parses aliases", func(t *testing.T) {
		cfg, err := ParseBarcodeServiceConfig("ean-8", 4, time.Minute, []string{"ean13", "UPC-A"})
		require.NoError(t, err)
		assert.Equal(t, catalog.SymbologyEAN8, cfg.DefaultSymbology)
		assert.Equal(t, 4, cfg.MaxAttempts)
		assert.Equal(t, time.Minute, cfg.ReservationTTL)
		assert.Equal(t, []catalog.Symbology{catalog.SymbologyEAN13, catalog.SymbologyUPCA}, cfg.AcceptedSymbologies)
	})

	t.Run("empty values fall back to defaults in the service", func(t *testing.T) {
		cfg, err := ParseBarcodeServiceConfig("", 0, 0, nil)
		require.NoError(t, err)
		svc := NewBarcodeService(new(MockProductRepository), nil, cfg, nil)
		assert.Equal(t, catalog.SymbologyEAN13, svc.cfg.DefaultSymbology)
		assert.Equal(t, DefaultMaxAttempts, svc.cfg.MaxAttempts)
	})

	t.Run("rejects unknown default", func(t *testing.T) {
		_, err := ParseBarcodeServiceConfig("PDF417", 1, 0, nil)
		requireDomainCode(t, err, "INVALID_SYMBOLOGY")
	})

	t.Run("rejects unknown accepted symbology", func(t *testing.T) {
		_, err := ParseBarcodeServiceConfig("EAN13", 1, 0, []string{"EAN13", "BOGUS"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepted symbologies")
	})
}

func TestBarcodeService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("uses default symbology", func(t *testing.T) {
		svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		metrics := new(MockBarcodeMetrics)
		metrics.On("RecordGenerated", ctx, "EAN13").Once()
		svc.WithMetrics(metrics)

		resp, err := svc.Generate(ctx, GenerateBarcodeRequest{Seed: "TEST-001"})
		require.NoError(t, err)
		assert.Equal(t, "2000000000015", resp.Barcode)
		assert.Equal(t, "EAN13", resp.Symbology)
		assert.Equal(t, "2 000000 000015", resp.Display)
		assert.Equal(t, 13, resp.Length)
		metrics.AssertExpectations(t)
	})

	t.Run("accepts alias spelling", func(t *testing.T) {
		svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		resp, err := svc.Generate(ctx, GenerateBarcodeRequest{Seed: "SKU-12345", Symbology: "upc-a"})
		require.NoError(t, err)
		assert.Equal(t, "000000123457", resp.Barcode)
		assert.Equal(t, "0 00000 12345 7", resp.Display)
	})

	t.Run("code128 keeps uppercase alphanumerics", func(t *testing.T) {
		svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		resp, err := svc.Generate(ctx, GenerateBarcodeRequest{Seed: "sku-9", Symbology: "CODE128"})
		require.NoError(t, err)
		assert.Equal(t, "PRDSKU9", resp.Barcode)
	})

	t.Run("rejects unknown symbology", func(t *testing.T) {
		svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		_, err := svc.Generate(ctx, GenerateBarcodeRequest{Seed: "x", Symbology: "PDF417"})
		requireDomainCode(t, err, "INVALID_SYMBOLOGY")
	})
}

func TestBarcodeService_GenerateForTenant(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("plain request skips uniqueness checks", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())

		resp, err := svc.GenerateForTenant(ctx, tenantID, GenerateBarcodeRequest{Seed: "TEST-001", Symbology: "EAN8"})
		require.NoError(t, err)
		assert.Equal(t, "20000011", resp.Barcode)
		repo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unique request reserves the code", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		store.On("Reserve", ctx, tenantID, "20000011", catalog.DefaultReservationTTL).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, "20000011").Return(false, nil).Once()

		resp, err := svc.GenerateForTenant(ctx, tenantID, GenerateBarcodeRequest{Seed: "TEST-001", Symbology: "EAN8", Unique: true})
		require.NoError(t, err)
		assert.Equal(t, "20000011", resp.Barcode)
		store.AssertExpectations(t)
		store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unique request rejects unknown symbology", func(t *testing.T) {
		svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		_, err := svc.GenerateForTenant(ctx, tenantID, GenerateBarcodeRequest{Seed: "x", Symbology: "PDF417", Unique: true})
		requireDomainCode(t, err, "INVALID_SYMBOLOGY")
	})
}

func TestBarcodeService_Validate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())

	t.Run("detects when no symbology given", func(t *testing.T) {
		resp, err := svc.Validate(ctx, ValidateBarcodeRequest{Barcode: "4006381333931"})
		require.NoError(t, err)
		assert.True(t, resp.Valid)
		assert.Equal(t, "EAN13", resp.Symbology)
		assert.Equal(t, "EAN13", resp.Detected)
		assert.Equal(t, "4 006381 333931", resp.Display)
	})

	t.Run("bad check digit", func(t *testing.T) {
		resp, err := svc.Validate(ctx, ValidateBarcodeRequest{Barcode: "4006381333932"})
		require.NoError(t, err)
		assert.False(t, resp.Valid)
	})

	t.Run("explicit symbology overrides detection", func(t *testing.T) {
		resp, err := svc.Validate(ctx, ValidateBarcodeRequest{Barcode: "96385074", Symbology: "EAN13"})
		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Equal(t, "EAN13", resp.Symbology)
		assert.Equal(t, "EAN8", resp.Detected)
	})

	t.Run("rejects unknown symbology", func(t *testing.T) {
		_, err := svc.Validate(ctx, ValidateBarcodeRequest{Barcode: "1", Symbology: "nope"})
		requireDomainCode(t, err, "INVALID_SYMBOLOGY")
	})
}

func TestBarcodeService_DetectAndFormat(t *testing.T) {
	svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())

	assert.Equal(t, "ITF14", svc.Detect("10012345678902").Symbology)
	assert.Equal(t, "CODE128", svc.Detect("ABC-123").Symbology)
	assert.Equal(t, "CUSTOM", svc.Detect("hello world").Symbology)

	resp, err := svc.Format("96385074", "")
	require.NoError(t, err)
	assert.Equal(t, "9638 5074", resp.Display)

	resp, err = svc.Format("96385074", "CODE128")
	require.NoError(t, err)
	assert.Equal(t, "96385074", resp.Display)

	_, err = svc.Format("96385074", "bogus")
	requireDomainCode(t, err, "INVALID_SYMBOLOGY")
}

func TestBarcodeService_Symbologies(t *testing.T) {
	svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
	list := svc.Symbologies()
	require.Len(t, list, len(catalog.Symbologies()))

	byName := map[string]SymbologyResponse{}
	for _, s := range list {
		byName[s.Name] = s
	}
	assert.Equal(t, SymbologyResponse{Name: "EAN8", Numeric: true, Length: 8, Accepted: true}, byName["EAN8"])
	assert.Equal(t, SymbologyResponse{Name: "QR"}, byName["QR"])
}

func TestBarcodeService_GenerateUnique(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	ttl := catalog.DefaultReservationTTL
	first := catalog.GenerateBarcode("TEST-001", catalog.SymbologyEAN13)
	second := catalog.GenerateBarcode("1-TEST-001", catalog.SymbologyEAN13)
	require.NotEqual(t, first, second)

	t.Run("first candidate free", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		store.On("Reserve", ctx, tenantID, first, ttl).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, first).Return(false, nil).Once()

		resp, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		require.NoError(t, err)
		assert.Equal(t, first, resp.Barcode)
		repo.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("retries after a saved collision", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		metrics := new(MockBarcodeMetrics)
		metrics.On("RecordCollision", ctx, "EAN13").Once()
		metrics.On("RecordGenerated", ctx, "EAN13").Once()
		svc.WithMetrics(metrics)

		store.On("Reserve", ctx, tenantID, first, ttl).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, first).Return(true, nil).Once()
		store.On("Reserve", ctx, tenantID, second, ttl).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, second).Return(false, nil).Once()

		resp, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		require.NoError(t, err)
		assert.Equal(t, second, resp.Barcode)
		assert.True(t, catalog.ValidateBarcode(resp.Barcode, catalog.SymbologyEAN13))
		metrics.AssertExpectations(t)
	})

	t.Run("retries after a held reservation", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		store.On("Reserve", ctx, tenantID, first, ttl).Return(false, nil).Once()
		store.On("Reserve", ctx, tenantID, second, ttl).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, second).Return(false, nil).Once()

		resp, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		require.NoError(t, err)
		assert.Equal(t, second, resp.Barcode)
		repo.AssertNotCalled(t, "ExistsByBarcode", ctx, tenantID, first)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		cfg := DefaultBarcodeServiceConfig()
		cfg.MaxAttempts = 3
		repo := new(MockProductRepository)
		store := new(MockReservationStore)
		core, logs := observer.New(zap.WarnLevel)
		svc := NewBarcodeService(repo, store, cfg, zap.New(core))

		store.On("Reserve", ctx, tenantID, mock.Anything, ttl).Return(true, nil)
		repo.On("ExistsByBarcode", ctx, tenantID, mock.Anything).Return(true, nil)

		_, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		assert.True(t, errors.Is(err, ErrGenerationExhausted))
		requireDomainCode(t, err, "BARCODE_GENERATION_EXHAUSTED")
		repo.AssertNumberOfCalls(t, "ExistsByBarcode", 3)
		assert.Equal(t, 1, logs.FilterMessage("barcode generation exhausted").Len())
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.GenerateUnique(cancelled, tenantID, "TEST-001", catalog.SymbologyEAN13)
		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		svc, _, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		store.On("Reserve", ctx, tenantID, first, ttl).Return(false, errors.New("connection refused")).Once()

		_, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reserve barcode")
	})

	t.Run("releases reservation when repository fails", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		store.On("Reserve", ctx, tenantID, first, ttl).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, first).Return(false, errors.New("db down")).Once()
		store.On("Release", ctx, tenantID, first).Return(nil).Once()

		_, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		require.Error(t, err)
		store.AssertExpectations(t)
	})

	t.Run("works without a reservation store", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewBarcodeService(repo, nil, DefaultBarcodeServiceConfig(), nil)
		repo.On("ExistsByBarcode", ctx, tenantID, first).Return(false, nil).Once()

		resp, err := svc.GenerateUnique(ctx, tenantID, "TEST-001", catalog.SymbologyEAN13)
		require.NoError(t, err)
		assert.Equal(t, first, resp.Barcode)
	})
}

func TestBarcodeService_AssignToProduct(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("assigns a supplied code", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		product := newTestProduct(t, tenantID)
		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, "4006381333931").Return(false, nil).Once()
		repo.On("Save", ctx, product).Return(nil).Once()

		resp, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: " 4006381333931 "})
		require.NoError(t, err)
		assert.Equal(t, "4006381333931", resp.Barcode)
		assert.Equal(t, "EAN13", resp.Symbology)
		assert.Equal(t, "4 006381 333931", resp.Display)
		assert.Equal(t, "SKU-001", resp.Code)
		repo.AssertExpectations(t)
	})

	t.Run("generates when no code supplied", func(t *testing.T) {
		svc, repo, store := newTestBarcodeService(DefaultBarcodeServiceConfig())
		product := newTestProduct(t, tenantID)
		expected := catalog.GenerateBarcode("SKU-001", catalog.SymbologyEAN8)

		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		store.On("Reserve", ctx, tenantID, expected, catalog.DefaultReservationTTL).Return(true, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, expected).Return(false, nil).Once()
		repo.On("Save", ctx, product).Return(nil).Once()
		store.On("Release", ctx, tenantID, expected).Return(nil).Once()

		resp, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Symbology: "EAN8"})
		require.NoError(t, err)
		assert.Equal(t, expected, resp.Barcode)
		assert.Equal(t, "EAN8", resp.Symbology)
		assert.Equal(t, expected, product.Barcode)
		repo.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("rejects symbology outside the accepted set", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		product := newTestProduct(t, tenantID)
		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()

		_, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: "hello world"})
		requireDomainCode(t, err, "INVALID_SYMBOLOGY")
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects bad check digit", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		product := newTestProduct(t, tenantID)
		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()

		_, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: "6901234567890"})
		requireDomainCode(t, err, "INVALID_BARCODE")
		repo.AssertNotCalled(t, "ExistsByBarcode", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects barcode used by another product", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		product := newTestProduct(t, tenantID)
		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, "96385074").Return(true, nil).Once()

		_, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: "96385074"})
		requireDomainCode(t, err, "ALREADY_EXISTS")
	})

	t.Run("product not found", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		id := uuid.New()
		repo.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, shared.ErrNotFound).Once()

		_, err := svc.AssignToProduct(ctx, tenantID, id, AssignBarcodeRequest{Barcode: "96385074"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBarcodeService_LookupByBarcode(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("strips display spacing", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		product := newTestProduct(t, tenantID)
		require.NoError(t, product.AssignBarcode("4006381333931", catalog.SymbologyEAN13))
		repo.On("FindByBarcode", ctx, tenantID, "4006381333931").Return(product, nil).Once()

		resp, err := svc.LookupByBarcode(ctx, tenantID, "4 006381 333931")
		require.NoError(t, err)
		assert.Equal(t, product.ID, resp.ProductID)
	})

	t.Run("rejects blank input", func(t *testing.T) {
		svc, _, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		_, err := svc.LookupByBarcode(ctx, tenantID, "   ")
		requireDomainCode(t, err, "INVALID_BARCODE")
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		repo.On("FindByBarcode", ctx, tenantID, "96385074").Return(nil, shared.ErrNotFound).Once()
		_, err := svc.LookupByBarcode(ctx, tenantID, "96385074")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBarcodeService_GetLabel(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())

	bare := newTestProduct(t, tenantID)
	repo.On("FindByIDForTenant", ctx, tenantID, bare.ID).Return(bare, nil).Once()
	_, err := svc.GetLabel(ctx, tenantID, bare.ID)
	requireDomainCode(t, err, "NO_BARCODE")

	labelled := newTestProduct(t, tenantID)
	require.NoError(t, labelled.AssignBarcode("036000291452", catalog.SymbologyUPCA))
	repo.On("FindByIDForTenant", ctx, tenantID, labelled.ID).Return(labelled, nil).Once()
	resp, err := svc.GetLabel(ctx, tenantID, labelled.ID)
	require.NoError(t, err)
	assert.Equal(t, "0 36000 29145 2", resp.Display)
	assert.Equal(t, "Test Product", resp.Name)
	assert.Equal(t, "pcs", resp.Unit)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func TestBarcodeService_AssignToProduct_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("publishes and clears barcode event after save", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		publisher := new(MockEventPublisher)
		svc.WithEventPublisher(publisher)
		product := newTestProduct(t, tenantID)

		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, "96385074").Return(false, nil).Once()
		repo.On("Save", ctx, product).Return(nil).Once()
		publisher.On("Publish", ctx, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			if len(events) != 1 {
				return false
			}
			evt, ok := events[0].(*catalog.ProductBarcodeAssignedEvent)
			return ok && evt.NewBarcode == "96385074" && evt.Symbology == catalog.SymbologyEAN8
		})).Return(nil).Once()

		_, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: "96385074"})
		require.NoError(t, err)
		assert.Empty(t, product.GetDomainEvents())
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the assignment", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		publisher := new(MockEventPublisher)
		svc.WithEventPublisher(publisher)
		product := newTestProduct(t, tenantID)

		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, "96385074").Return(false, nil).Once()
		repo.On("Save", ctx, product).Return(nil).Once()
		publisher.On("Publish", ctx, mock.Anything).Return(errors.New("bus down")).Once()

		resp, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: "96385074"})
		require.NoError(t, err)
		assert.Equal(t, "9638 5074", resp.Display)
	})

	t.Run("nothing published when save fails", func(t *testing.T) {
		svc, repo, _ := newTestBarcodeService(DefaultBarcodeServiceConfig())
		publisher := new(MockEventPublisher)
		svc.WithEventPublisher(publisher)
		product := newTestProduct(t, tenantID)

		repo.On("FindByIDForTenant", ctx, tenantID, product.ID).Return(product, nil).Once()
		repo.On("ExistsByBarcode", ctx, tenantID, "96385074").Return(false, nil).Once()
		repo.On("Save", ctx, product).Return(errors.New("db down")).Once()

		_, err := svc.AssignToProduct(ctx, tenantID, product.ID, AssignBarcodeRequest{Barcode: "96385074"})
		require.Error(t, err)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}
