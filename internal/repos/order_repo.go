package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopfront/internal/domain"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

const orderSelect = `
  SELECT o.id, o.user_id, COALESCE(u.email,'') AS customer_email, o.order_number, o.total_amount,
         o.status, o.shipping_address, o.shipping_city, o.shipping_postal_code, o.phone_number,
         o.created_at, o.updated_at,
         (SELECT COALESCE(SUM(oi.quantity),0) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
  FROM orders o
  LEFT JOIN users u ON u.id = o.user_id`

// OrderQuery filters the admin order list. From/To are YYYY-MM-DD bounds on
// created_at; To includes the whole day.
type OrderQuery struct {
	UserID string
	Status domain.OrderStatus
	From   string
	To     string
	Limit  int
	Offset int
}

// Create inserts a new order header.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, user_id, order_number, total_amount, status, shipping_address, shipping_city,
	     shipping_postal_code, phone_number, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.OrderNumber, o.TotalAmount, o.Status, o.ShippingAddress, o.ShippingCity,
		o.ShippingPostalCode, o.PhoneNumber, o.CreatedAt)
	return err
}

// InsertItem inserts a single line item.
func (r *OrderRepo) InsertItem(ctx context.Context, it domain.OrderItem) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO order_items(id, order_id, product_id, quantity, unit_price, total_price)
	  VALUES (?, ?, ?, ?, ?, ?)
	`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice)
	return err
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, orderSelect+` WHERE o.id = ?`, orderID); err != nil {
		return domain.Order{}, err
	}
	items, err := r.Items(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, r.db, &items, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name,'') AS product_name,
		       oi.quantity, oi.unit_price, oi.total_price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY p.name, oi.id
	`, orderID)
	return items, err
}

// List returns one page of orders, newest first, and the total match count.
func (r *OrderRepo) List(ctx context.Context, q OrderQuery) ([]domain.Order, int, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if q.UserID != "" {
		where = append(where, "o.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, q.Status)
	}
	if q.From != "" {
		where = append(where, "o.created_at >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		where = append(where, "o.created_at < date(?, '+1 day')")
		args = append(args, q.To)
	}
	clause := ` WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM orders o`+clause, args...); err != nil {
		return nil, 0, err
	}
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.db, &out,
		orderSelect+clause+` ORDER BY o.created_at DESC, o.rowid DESC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	return out, total, err
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out, _, err := r.List(ctx, OrderQuery{Limit: limit})
	return out, err
}

// UpdateStatus overwrites the status; it returns false if no row matched.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Transition moves an order from one status to another only if it is still in "from".
func (r *OrderRepo) Transition(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, to, Now(), id, from)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Stats aggregates the dashboard counters in one pass over orders.
type Stats struct {
	Orders  int             `db:"orders"`
	Pending int             `db:"pending"`
	Revenue decimal.Decimal `db:"revenue"`
}

func (r *OrderRepo) Stats(ctx context.Context, pending, revenue domain.OrderStatus) (Stats, error) {
	var s Stats
	err := sqlx.GetContext(ctx, r.db, &s, `
		SELECT COUNT(*) AS orders,
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
		       COALESCE(SUM(CASE WHEN status = ? THEN total_amount ELSE 0 END), 0) AS revenue
		FROM orders
	`, pending, revenue)
	return s, err
}
