package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/erp/barcode/internal/application/catalog"
	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/erp/barcode/internal/interfaces/http/dto"
	"github.com/erp/barcode/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

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

// newTestRouter wires both barcode handlers behind the request ID and tenant middleware
func newTestRouter(repo *MockProductRepository) *gin.Engine {
	svc := catalogapp.NewBarcodeService(repo, nil, catalogapp.DefaultBarcodeServiceConfig(), zap.NewNop())
	barcodes := NewBarcodeHandler(svc)
	products := NewProductBarcodeHandler(svc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Tenant(middleware.DefaultTenantConfig()))
	api := router.Group("/api/v1")
	api.POST("/barcodes/generate", barcodes.Generate)
	api.POST("/barcodes/validate", barcodes.Validate)
	api.GET("/barcodes/detect", barcodes.Detect)
	api.GET("/barcodes/format", barcodes.Format)
	api.GET("/barcodes/symbologies", barcodes.Symbologies)
	api.POST("/catalog/products/:id/barcode", products.AssignBarcode)
	api.GET("/catalog/products/:id/barcode-label", products.GetLabel)
	api.GET("/catalog/products/by-barcode/:barcode", products.LookupByBarcode)
	return router
}

func doRequest(router *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success response into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}
