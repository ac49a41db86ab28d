package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

const (
	AdminPageSize    = 20
	RecentOrderCount = 10
)

type AdminService struct {
	DB       *sqlx.DB
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	Orders   *repos.OrderRepo
	Users    *repos.UserRepo
	Workflow *OrderService
}

func NewAdminService(db *sqlx.DB, workflow *OrderService) *AdminService {
	return &AdminService{
		DB:       db,
		Cats:     repos.NewCategoryRepo(db),
		Prods:    repos.NewProductRepo(db),
		Orders:   repos.NewOrderRepo(db),
		Users:    repos.NewUserRepo(db),
		Workflow: workflow,
	}
}

type Dashboard struct {
	TotalProducts int
	TotalOrders   int
	TotalUsers    int
	PendingOrders int
	// TotalRevenue sums orders in domain.RevenueStatus.
	TotalRevenue decimal.Decimal
	RecentOrders []domain.Order
}

// Dashboard loads the counters concurrently; each query is independent.
func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalProducts, err = s.Prods.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalUsers, err = s.Users.Count(gctx)
		return err
	})
	g.Go(func() error {
		st, err := s.Orders.Stats(gctx, domain.StatusPending, domain.RevenueStatus)
		if err != nil {
			return err
		}
		d.TotalOrders, d.PendingOrders, d.TotalRevenue = st.Orders, st.Pending, st.Revenue.Round(2)
		return nil
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.Orders.ListLatest(gctx, RecentOrderCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, errors.Wrap(err, "dashboard")
	}
	return d, nil
}

// ---------- Products ----------

type AdminProductFilter struct {
	CategoryID string
	Search     string // name or SKU
	Page       int
}

// ListProducts includes inactive products.
func (s *AdminService) ListProducts(ctx context.Context, f AdminProductFilter) (Page[domain.Product], error) {
	page := normalizePage(f.Page)
	items, total, err := s.Prods.List(ctx, repos.ProductQuery{
		CategoryID: f.CategoryID,
		Search:     strings.TrimSpace(f.Search),
		Limit:      AdminPageSize,
		Offset:     (page - 1) * AdminPageSize,
	})
	if err != nil {
		return Page[domain.Product]{}, err
	}
	return Page[domain.Product]{Items: items, Number: page, Size: AdminPageSize, Total: total}, nil
}

func (s *AdminService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, errors.Wrapf(ErrNotFound, "product %s", id)
	}
	return p, err
}

// ProductInput carries the editable product fields. An empty ImageURL on
// update keeps the current image.
type ProductInput struct {
	CategoryID      string
	Name            string
	Description     string
	SKU             string
	Price           decimal.Decimal
	DiscountedPrice decimal.NullDecimal
	StockQuantity   int
	ImageURL        string
	Active          bool
}

// validateProduct reports every bad field at once so the form can be fixed in
// a single round trip.
func (s *AdminService) validateProduct(ctx context.Context, in ProductInput) error {
	var merr *multierror.Error
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 200 {
		merr = multierror.Append(merr, errors.Wrap(ErrInvalidArgument, "name is required (max 200 characters)"))
	}
	if in.Price.IsNegative() {
		merr = multierror.Append(merr, errors.Wrap(ErrInvalidArgument, "price must not be negative"))
	}
	if in.DiscountedPrice.Valid && in.DiscountedPrice.Decimal.IsNegative() {
		merr = multierror.Append(merr, errors.Wrap(ErrInvalidArgument, "discounted price must not be negative"))
	}
	if in.StockQuantity < 0 {
		merr = multierror.Append(merr, errors.Wrap(ErrInvalidArgument, "stock must not be negative"))
	}
	cat, err := s.Cats.Get(ctx, in.CategoryID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		merr = multierror.Append(merr, errors.Wrap(ErrInvalidArgument, "unknown category"))
	case err != nil:
		return err
	case in.Active && !cat.Active:
		merr = multierror.Append(merr, errors.Wrap(ErrInvalidArgument, "active products need an active category"))
	}
	if merr != nil {
		merr.ErrorFormat = fieldList
	}
	return merr.ErrorOrNil()
}

// fieldList joins validation problems into one sentence-like line.
func fieldList(es []error) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = strings.TrimSuffix(e.Error(), ": "+ErrInvalidArgument.Error())
	}
	return strings.Join(parts, "; ")
}

func (s *AdminService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := s.validateProduct(ctx, in); err != nil {
		return domain.Product{}, err
	}
	p := productFromInput(uuid.NewString(), in)
	if err := s.Prods.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	if err := s.validateProduct(ctx, in); err != nil {
		return domain.Product{}, err
	}
	cur, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if in.ImageURL == "" {
		in.ImageURL = cur.ImageURL
	}
	p := productFromInput(id, in)
	ok, err := s.Prods.Update(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	if !ok {
		return domain.Product{}, errors.Wrapf(ErrNotFound, "product %s", id)
	}
	return p, nil
}

// DeleteProduct deactivates the product; its row stays for historical orders.
func (s *AdminService) DeleteProduct(ctx context.Context, id string) error {
	ok, err := s.Prods.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "product %s", id)
	}
	return nil
}

func productFromInput(id string, in ProductInput) domain.Product {
	discounted := in.DiscountedPrice
	if discounted.Valid {
		discounted.Decimal = discounted.Decimal.Round(2)
	}
	return domain.Product{
		ID:              id,
		CategoryID:      in.CategoryID,
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		SKU:             strings.TrimSpace(in.SKU),
		Price:           in.Price.Round(2),
		DiscountedPrice: discounted,
		StockQuantity:   in.StockQuantity,
		ImageURL:        in.ImageURL,
		Active:          in.Active,
	}
}

// ---------- Categories ----------

func (s *AdminService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx, false)
}

func (s *AdminService) ActiveCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx, true)
}

func (s *AdminService) CreateCategory(ctx context.Context, name, description string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return domain.Category{}, errors.Wrap(ErrInvalidArgument, "name is required (max 100 characters)")
	}
	if len(description) > 500 {
		return domain.Category{}, errors.Wrap(ErrInvalidArgument, "description is too long")
	}
	c := domain.Category{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description), Active: true}
	if err := s.Cats.Create(ctx, c); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.Category{}, errors.Wrap(ErrInvalidArgument, "a category with this name already exists")
		}
		return domain.Category{}, err
	}
	return c, nil
}

// ---------- Orders ----------

type OrderFilter struct {
	Status domain.OrderStatus
	From   string // YYYY-MM-DD
	To     string // YYYY-MM-DD, inclusive
	Page   int
}

func (s *AdminService) ListOrders(ctx context.Context, f OrderFilter) (Page[domain.Order], error) {
	page := normalizePage(f.Page)
	items, total, err := s.Orders.List(ctx, repos.OrderQuery{
		Status: f.Status,
		From:   f.From,
		To:     f.To,
		Limit:  AdminPageSize,
		Offset: (page - 1) * AdminPageSize,
	})
	if err != nil {
		return Page[domain.Order]{}, err
	}
	return Page[domain.Order]{Items: items, Number: page, Size: AdminPageSize, Total: total}, nil
}

func (s *AdminService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, errors.Wrapf(ErrNotFound, "order %s", id)
	}
	return o, err
}

// UpdateOrderStatus sets an order's status. The value must be a known status,
// Cancelled orders never change again, and a move to Cancelled restores stock
// through the same path as a customer cancellation.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, id, status string) error {
	to, ok := domain.ParseStatus(status)
	if !ok {
		return errors.Wrapf(ErrInvalidArgument, "unknown status %q", status)
	}
	return s.Workflow.inTx(ctx, "update status", func(tx *sqlx.Tx) error {
		orders := s.Orders.WithTx(tx)
		o, err := orders.Get(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "order %s", id)
		}
		if err != nil {
			return err
		}
		switch {
		case o.Status == to:
			return nil
		case o.Status.Terminal():
			return errors.Wrap(ErrInvalidState, "cancelled orders cannot change status")
		case to == domain.StatusCancelled:
			return s.Workflow.cancelTx(ctx, tx, o)
		}
		_, err = orders.UpdateStatus(ctx, id, to)
		return err
	})
}
