package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db sqlx.ExtContext) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

const productSelect = `
  SELECT
    p.id, p.category_id, COALESCE(c.name,'') AS category_name, p.name, p.description, p.sku,
    p.price, p.discounted_price, p.stock_quantity, p.image_url, p.active,
    COALESCE(c.active, 0) AS category_active, p.created_at, COALESCE(p.updated_at,'') AS updated_at
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id`

// ProductQuery filters a product listing. Search is a case-insensitive
// substring matched against name and SKU, plus description when
// InDescription is set.
type ProductQuery struct {
	CategoryID    string
	Search        string
	InDescription bool
	ActiveOnly    bool
	Limit         int
	Offset        int
}

// List returns one page of products ordered by name and the total match count.
func (r *ProductRepo) List(ctx context.Context, q ProductQuery) ([]domain.Product, int, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if q.ActiveOnly {
		where = append(where, "p.active = 1", "c.active = 1")
	}
	if q.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, q.CategoryID)
	}
	if q.Search != "" {
		pat := LikePattern(q.Search)
		cond := `LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.sku) LIKE ? ESCAPE '\'`
		args = append(args, pat, pat)
		if q.InDescription {
			cond += ` OR LOWER(p.description) LIKE ? ESCAPE '\'`
			args = append(args, pat)
		}
		where = append(where, "("+cond+")")
	}
	clause := ` WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total,
		`SELECT COUNT(*) FROM products p LEFT JOIN categories c ON c.id = p.category_id`+clause, args...); err != nil {
		return nil, 0, err
	}

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out,
		productSelect+clause+` ORDER BY p.name COLLATE NOCASE, p.id LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	return out, total, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, productSelect+` WHERE p.id = ?`, id)
	return p, err
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id, category_id, name, description, sku, price, discounted_price,
		                     stock_quantity, image_url, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CategoryID, p.Name, p.Description, p.SKU, p.Price, p.DiscountedPrice,
		p.StockQuantity, p.ImageURL, p.Active, Now())
	return err
}

// Update overwrites the editable fields; it returns false if no row matched.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = ?, name = ?, description = ?, sku = ?, price = ?, discounted_price = ?,
		    stock_quantity = ?, image_url = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, p.CategoryID, p.Name, p.Description, p.SKU, p.Price, p.DiscountedPrice,
		p.StockQuantity, p.ImageURL, p.Active, Now(), p.ID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProductRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET active = 0, updated_at = ? WHERE id = ?`, Now(), id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}

// LikePattern lowercases s, escapes LIKE wildcards and wraps it in %.
func LikePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
