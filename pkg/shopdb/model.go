package shopdb

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID      int64     `bun:"user_id,pk"`
	Username    string    `bun:"username,notnull"`
	Email       string    `bun:"email,unique,notnull"`
	Phone       string    `bun:"phone"`
	Address     string    `bun:"address"`
	MemberGrade string    `bun:"member_grade,default:'BRONZE'"`
	JoinDate    time.Time `bun:"join_date,nullzero"`
	TotalOrders int       `bun:"total_orders"`
	TotalAmount int64     `bun:"total_amount"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID         string    `bun:"order_id,pk"`
	UserID          int64     `bun:"user_id"`
	OrderDate       time.Time `bun:"order_date,nullzero"`
	Status          string    `bun:"status"`
	TrackingNumber  string    `bun:"tracking_number,nullzero"`
	DeliveryCompany string    `bun:"delivery_company,nullzero"`
	TotalAmount     int64     `bun:"total_amount"`
	ShippingAddress string    `bun:"shipping_address"`

	Items []OrderItem `bun:"rel:has-many,join:order_id=order_id"`
}

// IsInTransit reports whether the order is still moving towards the customer.
func (o Order) IsInTransit() bool {
	switch o.Status {
	case StatusShipping, StatusPreparing:
		return true
	default:
		return false
	}
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID          int64  `bun:"id,pk,autoincrement"`
	OrderID     string `bun:"order_id"`
	ProductID   string `bun:"product_id"`
	ProductName string `bun:"product_name"`
	Quantity    int    `bun:"quantity"`
	Price       int64  `bun:"price"`
}

// Product keeps specifications, features and keywords as raw JSON text.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ProductID      string `bun:"product_id,pk"`
	Name           string `bun:"name,notnull"`
	Category       string `bun:"category"`
	Description    string `bun:"description"`
	Specifications string `bun:"specifications"`
	Features       string `bun:"features"`
	Keywords       string `bun:"keywords"`
	Price          int64  `bun:"price"`
	Stock          int    `bun:"stock"`
}

// Order status values stored in orders.status.
const (
	StatusPreparing = "preparing"
	StatusShipping  = "shipping"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)
