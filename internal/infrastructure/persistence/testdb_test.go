package persistence

import (
	"context"
	"testing"

	"github.com/b2bshop/backend/internal/domain/catalog"
	"github.com/b2bshop/backend/internal/domain/partner"
	"github.com/b2bshop/backend/internal/domain/shared/valueobject"
	"github.com/b2bshop/backend/internal/domain/trade"
	"github.com/b2bshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), newGormConfig(gormlogger.Discard))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, valueobject.NewMoneyINR(decimal.NewFromInt(price)), stock, 1, 500)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func seedCustomer(t *testing.T, db *gorm.DB) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(uuid.New(), "Sharma Traders", "buyer@sharma.example")
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}

func newTestOrder(t *testing.T, customerID uuid.UUID, number string, products ...*catalog.Product) *trade.Order {
	t.Helper()
	addr, err := valueobject.NewShippingAddress("12 MG Road", "Bengaluru", "Karnataka", "560001", "9876543210", "")
	require.NoError(t, err)

	lines := make([]trade.OrderLine, len(products))
	for i, p := range products {
		lines[i] = trade.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  2,
			UnitPrice: p.Price,
		}
	}
	order, err := trade.NewOrder(trade.PlaceOrderParams{
		OrderNumber:     number,
		CustomerID:      customerID,
		Lines:           lines,
		ShippingAddress: addr,
		PaymentMethod:   trade.PaymentMethodCOD,
		Pricing:         trade.DefaultPricingPolicy(),
	})
	require.NoError(t, err)
	return order
}
