package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type shop struct {
	store     *memoryStore
	catalog   Catalog
	ledger    OrderLedger
	directory CustomerDirectory
	carts     CartService
	checkout  CheckoutService
	office    BackOffice
	notifier  *recordingNotifier
}

// openShop wires every service over store. maxRetries applies to all collections.
func openShop(t testing.TB, store *memoryStore, maxRetries int) *shop {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	catalog, err := NewCatalog(ctx, memoryProducts{store}, memorySequences{store}, maxRetries, logger)
	require.NoError(t, err)
	ledger, err := NewOrderLedger(ctx, memoryOrders{store}, memorySequences{store}, maxRetries, logger)
	require.NoError(t, err)
	directory, err := NewCustomerDirectory(ctx, memoryCustomers{store}, memorySequences{store}, maxRetries, logger)
	require.NoError(t, err)

	// A fixed clock keeps placed-at timestamps deterministic.
	ledger.(*orderLedger).now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

	notifier := &recordingNotifier{}
	carts := NewCartService(catalog)
	return &shop{
		store:     store,
		catalog:   catalog,
		ledger:    ledger,
		directory: directory,
		carts:     carts,
		checkout:  NewCheckoutService(carts, ledger, directory, notifier, "Jams Store", logger),
		office:    NewBackOffice(catalog, ledger, directory, notifier, logger),
		notifier:  notifier,
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustAddProduct(t testing.TB, c Catalog, name, p string) *domain.Product {
	t.Helper()
	product, err := c.Add(context.Background(), domain.ProductInput{Name: name, Price: price(p)})
	require.NoError(t, err)
	return product
}

func buyer(email string) domain.BuyerInfo {
	return domain.BuyerInfo{Name: "Ada", Email: email, Phone: "555-0100", Address: "1 Loop Rd"}
}
