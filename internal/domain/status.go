package domain

// OrderStatus is stored as its name in orders.status.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// RevenueStatus is the status whose orders count towards dashboard revenue.
const RevenueStatus = StatusDelivered

var AllStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func ParseStatus(s string) (OrderStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) String() string { return string(s) }

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool { return s == StatusCancelled }

func (s OrderStatus) Cancellable() bool { return s == StatusPending }
