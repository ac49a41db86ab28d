package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shopfront/internal/repos"
	"shopfront/internal/services"
)

const (
	alice = "u-alice"
	bob   = "u-bob"
)

var ctx = context.Background()

type fixture struct {
	db      *sqlx.DB
	cart    *services.CartService
	orders  *services.OrderService
	catalog *services.CatalogService
	admin   *services.AdminService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureAt(t, ":memory:")
}

// newFixtureAt opens dsn; a file path gives a pool of real connections.
func newFixtureAt(t *testing.T, dsn string) fixture {
	t.Helper()
	db, err := repos.OpenDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	orders := services.NewOrderService(db)
	return fixture{
		db:      db,
		cart:    services.NewCartService(db),
		orders:  orders,
		catalog: services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db)),
		admin:   services.NewAdminService(db, orders),
	}
}

func (f fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, `SELECT stock_quantity FROM products WHERE id = ?`, productID))
	return n
}

func (f fixture) setStock(t *testing.T, productID string, n int) {
	t.Helper()
	_, err := f.db.Exec(`UPDATE products SET stock_quantity = ? WHERE id = ?`, n, productID)
	require.NoError(t, err)
}

func (f fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, query, args...))
	return n
}

func (f fixture) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(t, err)
}

func mustMoney(s string) decimal.Decimal { return decimal.RequireFromString(s) }
