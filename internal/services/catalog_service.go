package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

// CatalogPageSize is the storefront listing page size.
const CatalogPageSize = 12

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

type ProductFilter struct {
	CategoryID string
	Search     string
	Page       int
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx, true)
}

// ListProducts pages through active products in active categories, by name.
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) (Page[domain.Product], error) {
	page := normalizePage(f.Page)
	items, total, err := s.Prods.List(ctx, repos.ProductQuery{
		CategoryID:    f.CategoryID,
		Search:        strings.TrimSpace(f.Search),
		InDescription: true,
		ActiveOnly:    true,
		Limit:         CatalogPageSize,
		Offset:        (page - 1) * CatalogPageSize,
	})
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return Page[domain.Product]{Items: items, Number: page, Size: CatalogPageSize, Total: total}, nil
}

// GetProduct returns a visible product; a product that is inactive or sits in
// an inactive category is reported as not found.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Visible()) {
		return domain.Product{}, errors.Wrapf(ErrNotFound, "product %s", id)
	}
	return p, err
}
