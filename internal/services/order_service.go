package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"shopfront/internal/domain"
	"shopfront/internal/repos"
)

// HistoryPageSize is the number of orders per page in a customer's history.
const HistoryPageSize = 10

type Shipping struct {
	Address    string
	City       string
	PostalCode string
	Phone      string
}

type OrderService struct {
	DB     *sqlx.DB
	Carts  *repos.CartRepo
	Inv    *repos.InventoryRepo
	Orders *repos.OrderRepo
	Users  *repos.UserRepo
}

func NewOrderService(db *sqlx.DB) *OrderService {
	return &OrderService{
		DB:     db,
		Carts:  repos.NewCartRepo(db),
		Inv:    repos.NewInventoryRepo(db),
		Orders: repos.NewOrderRepo(db),
		Users:  repos.NewUserRepo(db),
	}
}

type CheckoutView struct {
	Items    []domain.CartItem
	Total    decimal.Decimal
	Shipping Shipping
}

// Preview is the advisory pass run when the checkout page renders. Place
// repeats every check inside its transaction.
func (s *OrderService) Preview(ctx context.Context, userID string) (CheckoutView, error) {
	items, err := s.Carts.Items(ctx, userID)
	if err != nil {
		return CheckoutView{}, err
	}
	if err := checkLines(items); err != nil {
		return CheckoutView{}, err
	}
	v := CheckoutView{Items: items, Total: cartTotal(items)}
	if u, err := s.Users.ByID(ctx, userID); err == nil {
		v.Shipping = Shipping{Address: u.Address, City: u.City, PostalCode: u.PostalCode}
	}
	return v, nil
}

// Place converts the user's cart into a Pending order. Stock validation,
// order and line creation, stock decrement and cart clearing commit together
// or not at all.
func (s *OrderService) Place(ctx context.Context, userID string, ship Shipping) (domain.Order, error) {
	var order domain.Order
	err := s.inTx(ctx, "checkout", func(tx *sqlx.Tx) error {
		carts, inv, orders := s.Carts.WithTx(tx), s.Inv.WithTx(tx), s.Orders.WithTx(tx)

		items, err := carts.Items(ctx, userID)
		if err != nil {
			return err
		}
		if err := checkLines(items); err != nil {
			return err
		}

		order = domain.Order{
			ID:                 uuid.NewString(),
			UserID:             userID,
			OrderNumber:        newOrderNumber(time.Now()),
			TotalAmount:        cartTotal(items),
			Status:             domain.StatusPending,
			ShippingAddress:    ship.Address,
			ShippingCity:       ship.City,
			ShippingPostalCode: ship.PostalCode,
			PhoneNumber:        ship.Phone,
			CreatedAt:          repos.Now(),
		}
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		for _, it := range items {
			line := domain.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice(),
				TotalPrice:  it.LineTotal(),
			}
			if err := orders.InsertItem(ctx, line); err != nil {
				return err
			}
			if err := inv.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repos.ErrNoStock) {
					// stock moved after the check above
					avail, qerr := inv.Qty(ctx, it.ProductID)
					if qerr != nil {
						return qerr
					}
					return &StockError{ProductID: it.ProductID, ProductName: it.ProductName, Requested: it.Quantity, Available: avail}
				}
				return err
			}
			order.Items = append(order.Items, line)
			order.ItemCount += line.Quantity
		}
		return carts.Clear(ctx, userID)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Cancel returns a Pending order's quantities to stock and marks it Cancelled.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) error {
	return s.inTx(ctx, "cancel", func(tx *sqlx.Tx) error {
		o, err := s.Orders.WithTx(tx).Get(ctx, orderID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && o.UserID != userID) {
			return errors.Wrapf(ErrNotFound, "order %s", orderID)
		}
		if err != nil {
			return err
		}
		return s.cancelTx(ctx, tx, o)
	})
}

func (s *OrderService) cancelTx(ctx context.Context, tx *sqlx.Tx, o domain.Order) error {
	if !o.Status.Cancellable() {
		return errors.Wrap(ErrInvalidState, "only pending orders can be cancelled")
	}
	inv := s.Inv.WithTx(tx)
	for _, it := range o.Items {
		if err := inv.Restore(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	ok, err := s.Orders.WithTx(tx).Transition(ctx, o.ID, domain.StatusPending, domain.StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(ErrInvalidState, "only pending orders can be cancelled")
	}
	return nil
}

// History lists a user's orders, newest first.
func (s *OrderService) History(ctx context.Context, userID string, page int) (Page[domain.Order], error) {
	page = normalizePage(page)
	items, total, err := s.Orders.List(ctx, repos.OrderQuery{
		UserID: userID,
		Limit:  HistoryPageSize,
		Offset: (page - 1) * HistoryPageSize,
	})
	if err != nil {
		return Page[domain.Order]{}, err
	}
	return Page[domain.Order]{Items: items, Number: page, Size: HistoryPageSize, Total: total}, nil
}

// Detail returns an order with its lines if it belongs to userID.
func (s *OrderService) Detail(ctx context.Context, userID, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && o.UserID != userID) {
		return domain.Order{}, errors.Wrapf(ErrNotFound, "order %s", orderID)
	}
	return o, err
}

func (s *OrderService) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	err := repos.InTx(ctx, s.DB, fn)
	if err == nil || expected(err) {
		return err
	}
	return &TxError{Op: op, Err: err}
}

// checkLines rejects an empty cart, unavailable products and lines over stock.
func checkLines(items []domain.CartItem) error {
	if len(items) == 0 {
		return ErrCartEmpty
	}
	for _, it := range items {
		if !it.Active {
			return errors.Wrapf(ErrNotFound, "product %s is no longer available", it.ProductName)
		}
		if it.StockQuantity < it.Quantity {
			return &StockError{ProductID: it.ProductID, ProductName: it.ProductName, Requested: it.Quantity, Available: it.StockQuantity}
		}
	}
	return nil
}

func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "SO" + t.UTC().Format("20060102") + "-" + suffix
}
