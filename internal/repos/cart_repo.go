package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) WithTx(tx *sqlx.Tx) *CartRepo { return &CartRepo{db: tx} }

// cartSelect reports a line as active only while both the product and its
// category are active.
const cartSelect = `
  SELECT ci.id, ci.user_id, ci.product_id, p.name AS product_name, p.image_url, ci.quantity,
         p.price, p.discounted_price, p.stock_quantity,
         (p.active = 1 AND COALESCE(c.active, 0) = 1) AS active, ci.created_at
  FROM cart_items ci
  JOIN products p ON p.id = ci.product_id
  LEFT JOIN categories c ON c.id = p.category_id`

// Items returns the user's cart lines joined with current product data.
func (r *CartRepo) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := sqlx.SelectContext(ctx, r.db, &out, cartSelect+`
	  WHERE ci.user_id = ?
	  ORDER BY ci.created_at, ci.id
	`, userID)
	return out, err
}

// Item returns one line only if it belongs to userID.
func (r *CartRepo) Item(ctx context.Context, userID, itemID string) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.db, &it, cartSelect+` WHERE ci.id = ? AND ci.user_id = ?`, itemID, userID)
	return it, err
}

// QuantityOf returns how many units of productID the user already holds (0 if none).
func (r *CartRepo) QuantityOf(ctx context.Context, userID, productID string) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty,
		`SELECT quantity FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return qty, err
}

// Upsert adds qty to the existing row for (user, product) or creates it.
func (r *CartRepo) Upsert(ctx context.Context, userID, productID string, qty int) error {
	now := Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(id, user_id, product_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = ?
	`, uuid.NewString(), userID, productID, qty, now, now)
	return err
}

func (r *CartRepo) SetQuantity(ctx context.Context, userID, itemID string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ? AND user_id = ?
	`, qty, Now(), itemID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *CartRepo) Remove(ctx context.Context, userID, itemID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Count is the total number of units in the user's cart.
func (r *CartRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = ?`, userID)
	return n, err
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}
