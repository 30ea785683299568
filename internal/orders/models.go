package orders

import "time"

type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name" validate:"notblank,max=250"`
	Price float64 `json:"price" validate:"gt=0"`
	Stock int     `json:"stock" validate:"gte=0,lte=2147483647"`
}

type Order struct {
	ID       int64     `json:"id"`
	DateTime time.Time `json:"date_time"`
}

// OrderDetail is one line-item: a quantity of one product attached to one order.
type OrderDetail struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order"`
	ProductID int64 `json:"product"`
	Quantity  int   `json:"quantity"`
}

// Line is the slice of a line-item the total calculator needs.
type Line struct {
	Quantity int
	Price    float64
}

// OrderView is an order as served to clients, with the derived totals.
// TotalUSD is nil when the quote could not be obtained.
type OrderView struct {
	Order
	Total    float64  `json:"total"`
	TotalUSD *float64 `json:"total_usd,omitempty"`
}

// ProductInput is the writable field set of a product; nil means "not supplied".
type ProductInput struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
}

type OrderInput struct {
	DateTime *time.Time `json:"date_time"`
}

type DetailInput struct {
	OrderID   *int64 `json:"order"`
	ProductID *int64 `json:"product"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1,max=999"`
}
