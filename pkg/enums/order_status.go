package enums

// OrderStatus tracks the lifecycle of a reservation order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = newSet("order status", OrderStatusPending, OrderStatusFulfilled, OrderStatusCancelled)

func (o OrderStatus) String() string { return string(o) }

func (o OrderStatus) IsValid() bool { return OrderStatuses.has(o) }

func ParseOrderStatus(value string) (OrderStatus, error) {
	return OrderStatuses.parse(value)
}

// IsTerminal reports whether no further transition is allowed.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusFulfilled || o == OrderStatusCancelled
}
