package repos

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNoStock is returned when a conditional decrement finds too few units.
var ErrNoStock = errors.New("insufficient stock")

// InventoryRepo owns every write to products.stock_quantity.
type InventoryRepo struct{ db sqlx.ExtContext }

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{db: db} }

func (r *InventoryRepo) WithTx(tx *sqlx.Tx) *InventoryRepo { return &InventoryRepo{db: tx} }

// Qty returns current stock for a product.
// If no row exists, it returns sql.ErrNoRows.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `SELECT stock_quantity FROM products WHERE id = ?`, productID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// ShelfQty is Qty restricted to products customers can see: the product and
// its category are both active. Hidden products return sql.ErrNoRows.
func (r *InventoryRepo) ShelfQty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `
		SELECT p.stock_quantity
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = ? AND p.active = 1 AND c.active = 1
	`, productID)
	return qty, err
}

// Decrement atomically subtracts "by" units if enough stock exists.
// Returns ErrNoStock if there isn't sufficient stock.
func (r *InventoryRepo) Decrement(ctx context.Context, productID string, by int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE id = ? AND stock_quantity >= ?
	`, by, Now(), productID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNoStock
	}
	return nil
}

// Restore adds "by" units back.
func (r *InventoryRepo) Restore(ctx context.Context, productID string, by int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE id = ?
	`, by, Now(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("restore stock: product " + productID + " not found")
	}
	return nil
}
