package inventory

import (
	"context"
	"time"

	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Movement struct {
	EventID    string              `json:"event_id"`
	ProductID  int64               `json:"product"`
	DetailID   int64               `json:"order_detail"`
	Kind       orders.MovementKind `json:"kind"`
	Delta      int                 `json:"delta"`
	Stock      int                 `json:"stock"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type Ledger interface {
	// Append is idempotent on EventID.
	Append(ctx context.Context, m Movement) error
	ListByProduct(ctx context.Context, productID int64) ([]Movement, error)
}

type Repo struct{ DB *pgxpool.Pool }

var _ Ledger = (*Repo)(nil)

func (r *Repo) Append(ctx context.Context, m Movement) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO stock_movements(event_id, product_id, detail_id, kind, delta, stock, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (event_id) DO NOTHING`,
		m.EventID, m.ProductID, m.DetailID, string(m.Kind), m.Delta, m.Stock, m.OccurredAt)
	return err
}

func (r *Repo) ListByProduct(ctx context.Context, productID int64) ([]Movement, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT event_id::text, product_id, detail_id, kind, delta, stock, occurred_at
		FROM stock_movements WHERE product_id=$1
		ORDER BY occurred_at, recorded_at`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Movement{}
	for rows.Next() {
		var m Movement
		var kind string
		if err := rows.Scan(&m.EventID, &m.ProductID, &m.DetailID, &kind, &m.Delta, &m.Stock, &m.OccurredAt); err != nil {
			return nil, err
		}
		m.Kind = orders.MovementKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}
