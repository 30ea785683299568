package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := r.DB.QueryRow(ctx, `INSERT INTO products(name, price, stock) VALUES ($1,$2,$3) RETURNING id`,
		p.Name, p.Price, p.Stock).Scan(&p.ID)
	return p, err
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, name, price, stock FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	return p, notFound(err)
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, price, stock FROM products ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET name=$2, price=$3, stock=$4 WHERE id=$1`,
		p.ID, p.Name, p.Price, p.Stock)
	return affected(ct, err)
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return affected(ct, err)
}

func (r *Repo) CreateOrder(ctx context.Context, o Order) (Order, error) {
	err := r.DB.QueryRow(ctx, `INSERT INTO orders(date_time) VALUES ($1) RETURNING id`, o.DateTime).Scan(&o.ID)
	return o, err
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `SELECT id, date_time FROM orders WHERE id=$1`, id).Scan(&o.ID, &o.DateTime)
	return o, notFound(err)
}

func (r *Repo) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, date_time FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.DateTime); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateOrder(ctx context.Context, o Order) error {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET date_time=$2 WHERE id=$1`, o.ID, o.DateTime)
	return affected(ct, err)
}

// order_details.order_id is ON DELETE CASCADE.
func (r *Repo) DeleteOrder(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	return affected(ct, err)
}

func (r *Repo) GetDetail(ctx context.Context, id int64) (OrderDetail, error) {
	var d OrderDetail
	err := r.DB.QueryRow(ctx, `SELECT id, order_id, product_id, quantity FROM order_details WHERE id=$1`, id).
		Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity)
	return d, notFound(err)
}

func (r *Repo) ListDetails(ctx context.Context, orderID int64) ([]OrderDetail, error) {
	q := `SELECT id, order_id, product_id, quantity FROM order_details`
	args := []any{}
	if orderID != 0 {
		q += ` WHERE order_id=$1`
		args = append(args, orderID)
	}
	rows, err := r.DB.Query(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OrderDetail{}
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) OrderLines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT d.quantity, p.price
		FROM order_details d JOIN products p ON p.id = d.product_id
		WHERE d.order_id=$1
		ORDER BY d.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Quantity, &l.Price); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) LockProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := t.tx.QueryRow(ctx, `SELECT id, name, price, stock FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	return p, notFound(err)
}

func (t *pgTx) SetStock(ctx context.Context, id int64, stock int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE products SET stock=$2 WHERE id=$1`, id, stock)
	return affected(ct, err)
}

func (t *pgTx) OrderExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (t *pgTx) LockDetail(ctx context.Context, id int64) (OrderDetail, error) {
	var d OrderDetail
	err := t.tx.QueryRow(ctx, `SELECT id, order_id, product_id, quantity FROM order_details WHERE id=$1 FOR UPDATE`, id).
		Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity)
	return d, notFound(err)
}

func (t *pgTx) InsertDetail(ctx context.Context, d OrderDetail) (OrderDetail, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_details(order_id, product_id, quantity)
		VALUES ($1,$2,$3) RETURNING id`, d.OrderID, d.ProductID, d.Quantity).Scan(&d.ID)
	return d, conflict(err)
}

func (t *pgTx) UpdateDetail(ctx context.Context, d OrderDetail) error {
	ct, err := t.tx.Exec(ctx, `UPDATE order_details SET order_id=$2, product_id=$3, quantity=$4 WHERE id=$1`,
		d.ID, d.OrderID, d.ProductID, d.Quantity)
	return affected(ct, conflict(err))
}

func (t *pgTx) DeleteDetail(ctx context.Context, id int64) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM order_details WHERE id=$1`, id)
	return affected(ct, err)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affected(ct pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const uniqueViolation = "23505"

func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
