package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/services"
)

func TestAddToCartMergesIntoOneRow(t *testing.T) {
	f := newFixture(t)

	n, err := f.cart.AddToCart(ctx, alice, "mug-001", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.cart.AddToCart(ctx, alice, "mug-001", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM cart_items WHERE user_id = ? AND product_id = ?`, alice, "mug-001"))
	assert.Equal(t, 5, f.count(t, `SELECT quantity FROM cart_items WHERE user_id = ?`, alice))
}

func TestAddToCartRejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.cart.AddToCart(ctx, alice, "mug-001", 0)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	_, err = f.cart.AddToCart(ctx, alice, "walkman-001", 1)
	assert.ErrorIs(t, err, services.ErrNotFound, "inactive product")

	f.exec(t, `INSERT INTO products(id, category_id, name, price, stock_quantity, active, created_at)
		VALUES ('radio-001', 'archive', 'Transistor Radio', 15.00, 5, 1, CURRENT_TIMESTAMP)`)
	_, err = f.cart.AddToCart(ctx, alice, "radio-001", 1)
	assert.ErrorIs(t, err, services.ErrNotFound, "inactive category")

	_, err = f.cart.AddToCart(ctx, alice, "no-such-product", 1)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.cart.AddToCart(ctx, alice, "jacket-001", 1)
	assert.ErrorIs(t, err, services.ErrInsufficientStock, "zero stock")

	// kettle has 2 units: 2 fit, a third does not
	_, err = f.cart.AddToCart(ctx, alice, "kettle-001", 2)
	require.NoError(t, err)
	_, err = f.cart.AddToCart(ctx, alice, "kettle-001", 1)
	var se *services.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Electric Kettle", se.ProductName)
	assert.Equal(t, 3, se.Requested)
	assert.Equal(t, 2, f.count(t, `SELECT quantity FROM cart_items WHERE user_id = ? AND product_id = 'kettle-001'`, alice))
}

func TestUpdateQuantityUsesEffectivePrice(t *testing.T) {
	f := newFixture(t)
	_, err := f.cart.AddToCart(ctx, alice, "tshirt-001", 1)
	require.NoError(t, err)
	view, err := f.cart.View(ctx, alice)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	itemID := view.Items[0].ID

	total, err := f.cart.UpdateQuantity(ctx, alice, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, "24.00", total.StringFixed(2))

	_, err = f.cart.UpdateQuantity(ctx, alice, itemID, 0)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	_, err = f.cart.UpdateQuantity(ctx, alice, itemID, 41)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	_, err = f.cart.UpdateQuantity(ctx, bob, itemID, 1)
	assert.ErrorIs(t, err, services.ErrNotFound, "another user's line")

	assert.Equal(t, 3, f.count(t, `SELECT quantity FROM cart_items WHERE id = ?`, itemID))
}

func TestRemoveFromCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.cart.AddToCart(ctx, alice, "mug-001", 1)
	require.NoError(t, err)
	view, err := f.cart.View(ctx, alice)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	assert.ErrorIs(t, f.cart.RemoveFromCart(ctx, bob, itemID), services.ErrNotFound)
	require.NoError(t, f.cart.RemoveFromCart(ctx, alice, itemID))
	assert.ErrorIs(t, f.cart.RemoveFromCart(ctx, alice, itemID), services.ErrNotFound)

	n, err := f.cart.Count(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCartViewTotals(t *testing.T) {
	f := newFixture(t)
	_, err := f.cart.AddToCart(ctx, alice, "tshirt-001", 2) // 8.00 discounted
	require.NoError(t, err)
	_, err = f.cart.AddToCart(ctx, alice, "mug-001", 1) // 12.50
	require.NoError(t, err)

	view, err := f.cart.View(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "28.50", view.Total.StringFixed(2))

	n, err := f.cart.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n, "guests have no cart")
}
