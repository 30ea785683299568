package orders

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a second line-item for the same (order, product) pair.
	ErrConflict = errors.New("order already has a line-item for this product")
)

// Tx is the unit of work for stock mutation. Lock* reads hold the row until the
// transaction ends, so the read-modify-write of stock cannot lose updates.
type Tx interface {
	LockProduct(ctx context.Context, id int64) (Product, error)
	SetStock(ctx context.Context, id int64, stock int) error
	OrderExists(ctx context.Context, id int64) (bool, error)
	LockDetail(ctx context.Context, id int64) (OrderDetail, error)
	InsertDetail(ctx context.Context, d OrderDetail) (OrderDetail, error)
	UpdateDetail(ctx context.Context, d OrderDetail) error
	DeleteDetail(ctx context.Context, id int64) error
}

// Store persists products, orders and line-items.
type Store interface {
	// WithTx runs fn in one transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	CreateProduct(ctx context.Context, p Product) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateOrder(ctx context.Context, o Order) (Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrder(ctx context.Context, o Order) error
	// DeleteOrder removes the order and its line-items without touching stock.
	DeleteOrder(ctx context.Context, id int64) error

	GetDetail(ctx context.Context, id int64) (OrderDetail, error)
	// ListDetails returns line-items ordered by id; orderID 0 means all orders.
	ListDetails(ctx context.Context, orderID int64) ([]OrderDetail, error)
	// OrderLines returns quantity and current product price per line-item, ordered by id.
	OrderLines(ctx context.Context, orderID int64) ([]Line, error)
}
