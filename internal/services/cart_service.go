package services

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

type CartService struct {
	DB    *sqlx.DB
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(db *sqlx.DB) *CartService {
	return &CartService{DB: db, Carts: repos.NewCartRepo(db), Prods: repos.NewProductRepo(db)}
}

// AddToCart adds qty units of a product, merging with an existing line, and
// returns the user's new total item count.
func (s *CartService) AddToCart(ctx context.Context, userID, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, errors.Wrap(ErrInvalidArgument, "quantity must be greater than zero")
	}
	var count int
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts, prods := s.Carts.WithTx(tx), s.Prods.WithTx(tx)

		p, err := prods.Get(ctx, productID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Visible()) {
			return errors.Wrapf(ErrNotFound, "product %s", productID)
		}
		if err != nil {
			return err
		}
		have, err := carts.QuantityOf(ctx, userID, productID)
		if err != nil {
			return err
		}
		if p.StockQuantity < have+qty {
			return &StockError{ProductID: p.ID, ProductName: p.Name, Requested: have + qty, Available: p.StockQuantity}
		}
		if err := carts.Upsert(ctx, userID, productID, qty); err != nil {
			return err
		}
		count, err = carts.Count(ctx, userID)
		return err
	})
	return count, err
}

// UpdateQuantity overwrites a line's quantity and returns the new line total.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, cartItemID string, qty int) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, errors.Wrap(ErrInvalidArgument, "quantity must be greater than zero")
	}
	var total decimal.Decimal
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := s.Carts.WithTx(tx)
		it, err := carts.Item(ctx, userID, cartItemID)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "cart item %s", cartItemID)
		}
		if err != nil {
			return err
		}
		if it.StockQuantity < qty {
			return &StockError{ProductID: it.ProductID, ProductName: it.ProductName, Requested: qty, Available: it.StockQuantity}
		}
		if _, err := carts.SetQuantity(ctx, userID, cartItemID, qty); err != nil {
			return err
		}
		it.Quantity = qty
		total = it.LineTotal()
		return nil
	})
	return total, err
}

// RemoveFromCart deletes a line. ErrNotFound only tells the caller nothing was removed.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, cartItemID string) error {
	ok, err := s.Carts.Remove(ctx, userID, cartItemID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "cart item %s", cartItemID)
	}
	return nil
}

func (s *CartService) Count(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	return s.Carts.Count(ctx, userID)
}

type CartView struct {
	Items []domain.CartItem
	Total decimal.Decimal
}

func (v CartView) Empty() bool { return len(v.Items) == 0 }

func (s *CartService) View(ctx context.Context, userID string) (CartView, error) {
	items, err := s.Carts.Items(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Items: items, Total: cartTotal(items)}, nil
}

func cartTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}
