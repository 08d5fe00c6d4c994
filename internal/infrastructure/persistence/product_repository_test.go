package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/barcode/internal/domain/catalog"
	"github.com/erp/barcode/internal/domain/shared"
	"github.com/erp/barcode/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

// newSQLiteProductRepository creates a repository over a migrated in-memory sqlite database
func newSQLiteProductRepository(t *testing.T) *GormProductRepository {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(&catalog.Product{}))
	return NewGormProductRepository(db.DB)
}

var productColumns = []string{"id", "tenant_id", "code", "name", "unit", "barcode", "barcode_symbology", "selling_price", "status", "version"}

func TestGormProductRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows(productColumns).
			AddRow(productID, tenantID, "SKU-001", "Widget", "pcs", "2000000000015", "EAN13", "9.90", "active", 1)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, 1).
			WillReturnRows(rows)

		product, err := repo.FindByIDForTenant(context.Background(), tenantID, productID)

		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "2000000000015", product.Barcode)
		assert.Equal(t, catalog.SymbologyEAN13, product.BarcodeSymbology)
		assert.True(t, product.SellingPrice.Equal(decimal.RequireFromString("9.90")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id = \$2`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("passes through database errors", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())

		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindByBarcode(t *testing.T) {
	t.Run("rejects empty barcode without querying", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		_, err := repo.FindByBarcode(context.Background(), uuid.New(), "")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_BARCODE", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("queries by tenant and barcode", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		rows := sqlmock.NewRows(productColumns).
			AddRow(uuid.New(), tenantID, "SKU-001", "Widget", "pcs", "96385074", "EAN8", "0", "active", 1)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND barcode = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "96385074", 1).
			WillReturnRows(rows)

		product, err := repo.FindByBarcode(context.Background(), tenantID, "96385074")

		require.NoError(t, err)
		assert.Equal(t, "SKU-001", product.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND barcode = \$2`).
			WillReturnRows(sqlmock.NewRows(productColumns))

		_, err := repo.FindByBarcode(context.Background(), uuid.New(), "96385074")

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_ExistsByBarcode(t *testing.T) {
	t.Run("counts matching rows", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE tenant_id = \$1 AND barcode = \$2`).
			WithArgs(tenantID, "4006381333931").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByBarcode(context.Background(), tenantID, "4006381333931")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByBarcode(context.Background(), uuid.New(), "4006381333931")

		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty barcode never exists", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		exists, err := repo.ExistsByBarcode(context.Background(), uuid.New(), "")

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns database errors", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
			WillReturnError(errors.New("timeout"))

		_, err := repo.ExistsByBarcode(context.Background(), uuid.New(), "4006381333931")

		assert.Error(t, err)
	})
}

func TestGormProductRepository_SQLiteRoundTrip(t *testing.T) {
	repo := newSQLiteProductRepository(t)
	ctx := context.Background()
	tenantID := uuid.New()

	product, err := catalog.NewProduct(tenantID, "SKU-100", "Scanner Test", "pcs")
	require.NoError(t, err)
	require.NoError(t, product.UpdateSellingPrice(decimal.NewFromFloat(12.5)))
	require.NoError(t, product.AssignBarcode("2000000000015", catalog.SymbologyEAN13))
	require.NoError(t, repo.Save(ctx, product))

	found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "SKU-100", found.Code)
	assert.Equal(t, "2000000000015", found.Barcode)
	assert.Equal(t, catalog.SymbologyEAN13, found.BarcodeSymbology)
	assert.True(t, found.SellingPrice.Equal(decimal.NewFromFloat(12.5)))

	byBarcode, err := repo.FindByBarcode(ctx, tenantID, "2000000000015")
	require.NoError(t, err)
	assert.Equal(t, product.ID, byBarcode.ID)

	exists, err := repo.ExistsByBarcode(ctx, tenantID, "2000000000015")
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("barcodes are scoped to tenant", func(t *testing.T) {
		exists, err := repo.ExistsByBarcode(ctx, uuid.New(), "2000000000015")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.FindByIDForTenant(ctx, uuid.New(), product.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save updates existing row", func(t *testing.T) {
		require.NoError(t, found.AssignBarcode("20000011", catalog.SymbologyEAN8))
		require.NoError(t, repo.Save(ctx, found))

		exists, err := repo.ExistsByBarcode(ctx, tenantID, "2000000000015")
		require.NoError(t, err)
		assert.False(t, exists)

		updated, err := repo.FindByBarcode(ctx, tenantID, "20000011")
		require.NoError(t, err)
		assert.Equal(t, product.ID, updated.ID)
		assert.Equal(t, catalog.SymbologyEAN8, updated.BarcodeSymbology)
	})
}
