package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type CategoryRepo struct{ db sqlx.ExtContext }

func NewCategoryRepo(db sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, description, image_url, active, created_at`

// List returns categories ordered by name; activeOnly hides deactivated ones.
func (r *CategoryRepo) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	q := `SELECT ` + categoryCols + ` FROM categories`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY name`
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.db, &out, q)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.db, &c, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(id, name, description, image_url, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Description, c.ImageURL, c.Active, Now())
	return err
}
