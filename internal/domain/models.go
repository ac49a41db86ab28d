package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	ImageURL    string `db:"image_url"`
	Active      bool   `db:"active"`
	CreatedAt   string `db:"created_at"`
}

type Product struct {
	ID              string              `db:"id"`
	CategoryID      string              `db:"category_id"`
	CategoryName    string              `db:"category_name"`
	Name            string              `db:"name"`
	Description     string              `db:"description"`
	SKU             string              `db:"sku"`
	Price           decimal.Decimal     `db:"price"`
	DiscountedPrice decimal.NullDecimal `db:"discounted_price"`
	StockQuantity   int                 `db:"stock_quantity"`
	ImageURL        string              `db:"image_url"`
	Active          bool                `db:"active"`
	CategoryActive  bool                `db:"category_active"`
	CreatedAt       string              `db:"created_at"`
	UpdatedAt       string              `db:"updated_at"`
}

// Visible reports whether storefront customers may see and buy the product:
// both it and its category must be active.
func (p Product) Visible() bool { return p.Active && p.CategoryActive }

// EffectivePrice is the discounted price when set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.DiscountedPrice)
}

func (p Product) HasDiscount() bool { return p.DiscountedPrice.Valid }

// EffectivePrice applies the pricing rule shared by cart, checkout and order lines.
func EffectivePrice(price decimal.Decimal, discounted decimal.NullDecimal) decimal.Decimal {
	if discounted.Valid {
		return discounted.Decimal
	}
	return price
}

// LineTotal is unit price times quantity, rounded to cents.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

type CartItem struct {
	ID              string              `db:"id"`
	UserID          string              `db:"user_id"`
	ProductID       string              `db:"product_id"`
	ProductName     string              `db:"product_name"`
	ImageURL        string              `db:"image_url"`
	Quantity        int                 `db:"quantity"`
	Price           decimal.Decimal     `db:"price"`
	DiscountedPrice decimal.NullDecimal `db:"discounted_price"`
	StockQuantity   int                 `db:"stock_quantity"`
	Active          bool                `db:"active"`
	CreatedAt       string              `db:"created_at"`
}

func (it CartItem) UnitPrice() decimal.Decimal {
	return EffectivePrice(it.Price, it.DiscountedPrice)
}

func (it CartItem) LineTotal() decimal.Decimal { return LineTotal(it.UnitPrice(), it.Quantity) }

type Order struct {
	ID                 string          `db:"id"`
	UserID             string          `db:"user_id"`
	CustomerEmail      string          `db:"customer_email"`
	OrderNumber        string          `db:"order_number"`
	TotalAmount        decimal.Decimal `db:"total_amount"`
	Status             OrderStatus     `db:"status"`
	ShippingAddress    string          `db:"shipping_address"`
	ShippingCity       string          `db:"shipping_city"`
	ShippingPostalCode string          `db:"shipping_postal_code"`
	PhoneNumber        string          `db:"phone_number"`
	CreatedAt          string          `db:"created_at"`
	UpdatedAt          sql.NullString  `db:"updated_at"`
	ItemCount          int             `db:"item_count"`

	Items []OrderItem `db:"-"`
}

type OrderItem struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	TotalPrice  decimal.Decimal `db:"total_price"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
