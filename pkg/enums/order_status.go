package enums

// OrderStatus is assigned by the order service when an order is created.
// This system never computes or transitions it locally.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}
