package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/go-orders-api/internal/kafka"
	"github.com/ariefcatur/go-orders-api/internal/validation"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Publisher is the async event sink; *kafka.Producer satisfies it.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service is the single place where line-items and stock change together.
type Service struct {
	Store       Store
	Calc        *Calculator
	Publisher   Publisher // optional
	ServiceName string
	Log         *zap.Logger
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ---- products ----

// CreateProduct requires every field.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	if err := requireFields(map[string]bool{"name": in.Name == nil, "price": in.Price == nil, "stock": in.Stock == nil}); err != nil {
		return Product{}, err
	}
	p := Product{Name: *in.Name, Price: *in.Price, Stock: *in.Stock}
	if err := ValidateProduct(p); err != nil {
		return Product{}, err
	}
	return s.Store.CreateProduct(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.Store.ListProducts(ctx)
}

// UpdateProduct merges the supplied fields over the stored product.
// With partial=false every field must be supplied.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput, partial bool) (Product, error) {
	if !partial {
		if err := requireFields(map[string]bool{"name": in.Name == nil, "price": in.Price == nil, "stock": in.Stock == nil}); err != nil {
			return Product{}, err
		}
	}
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if err := ValidateProduct(p); err != nil {
		return Product{}, err
	}
	if err := s.Store.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.Store.DeleteProduct(ctx, id)
}

// ---- orders ----

func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (OrderView, error) {
	o := Order{DateTime: s.now()}
	if in.DateTime != nil {
		o.DateTime = *in.DateTime
	}
	o, err := s.Store.CreateOrder(ctx, o)
	if err != nil {
		return OrderView{}, err
	}
	return s.view(ctx, o, s.Calc.Rate(ctx))
}

func (s *Service) GetOrder(ctx context.Context, id int64) (OrderView, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return OrderView{}, err
	}
	return s.view(ctx, o, s.Calc.Rate(ctx))
}

// ListOrders fetches the exchange rate once for the whole page.
func (s *Service) ListOrders(ctx context.Context) ([]OrderView, error) {
	list, err := s.Store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OrderView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	rate := s.Calc.Rate(ctx)
	for _, o := range list {
		v, err := s.view(ctx, o, rate)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// UpdateOrder only carries date_time; a PUT without it is rejected.
func (s *Service) UpdateOrder(ctx context.Context, id int64, in OrderInput, partial bool) (OrderView, error) {
	if !partial && in.DateTime == nil {
		return OrderView{}, validation.Field("date_time", msgRequired)
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return OrderView{}, err
	}
	if in.DateTime != nil {
		o.DateTime = *in.DateTime
		if err := s.Store.UpdateOrder(ctx, o); err != nil {
			return OrderView{}, err
		}
	}
	return s.view(ctx, o, s.Calc.Rate(ctx))
}

// DeleteOrder cascades to the order's line-items. Stock is not restored on this path.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.Store.DeleteOrder(ctx, id)
}

func (s *Service) view(ctx context.Context, o Order, rate *decimal.Decimal) (OrderView, error) {
	lines, err := s.Store.OrderLines(ctx, o.ID)
	if err != nil {
		return OrderView{}, fmt.Errorf("order lines: %w", err)
	}
	return s.Calc.View(o, lines, rate), nil
}

// ---- order details ----

func (s *Service) GetDetail(ctx context.Context, id int64) (OrderDetail, error) {
	return s.Store.GetDetail(ctx, id)
}

func (s *Service) ListDetails(ctx context.Context, orderID int64) ([]OrderDetail, error) {
	return s.Store.ListDetails(ctx, orderID)
}

// CreateDetail books a new line-item and takes its quantity from the product's stock.
func (s *Service) CreateDetail(ctx context.Context, in DetailInput) (OrderDetail, error) {
	if err := requireFields(map[string]bool{"order": in.OrderID == nil, "product": in.ProductID == nil, "quantity": in.Quantity == nil}); err != nil {
		return OrderDetail{}, err
	}
	if err := ValidateDetail(in); err != nil {
		return OrderDetail{}, err
	}
	d := OrderDetail{OrderID: *in.OrderID, ProductID: *in.ProductID, Quantity: *in.Quantity}

	var adj []Adjustment
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		if err := checkOrder(ctx, tx, d.OrderID); err != nil {
			return err
		}
		p, err := lockProduct(ctx, tx, d.ProductID)
		if err != nil {
			return err
		}
		taken, err := TakeStock(p, d.Quantity)
		if err != nil {
			return err
		}
		if d, err = tx.InsertDetail(ctx, d); err != nil {
			return conflictErr(err)
		}
		if err := tx.SetStock(ctx, taken.ID, taken.Stock); err != nil {
			return err
		}
		adj = []Adjustment{{Kind: MovementCreate, ProductID: p.ID, DetailID: d.ID, Delta: -d.Quantity, Stock: taken.Stock}}
		return nil
	})
	if err != nil {
		return OrderDetail{}, err
	}
	s.publish(ctx, adj)
	return d, nil
}

// UpdateDetail rebooks a line-item. Changing the product returns the old
// quantity to the old product and takes the new quantity from the new one.
func (s *Service) UpdateDetail(ctx context.Context, id int64, in DetailInput, partial bool) (OrderDetail, error) {
	if !partial {
		if err := requireFields(map[string]bool{"order": in.OrderID == nil, "product": in.ProductID == nil, "quantity": in.Quantity == nil}); err != nil {
			return OrderDetail{}, err
		}
	}
	if err := ValidateDetail(in); err != nil {
		return OrderDetail{}, err
	}

	var (
		out OrderDetail
		adj []Adjustment
	)
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		old, err := tx.LockDetail(ctx, id)
		if err != nil {
			return err
		}
		next := old
		if in.OrderID != nil {
			next.OrderID = *in.OrderID
		}
		if in.ProductID != nil {
			next.ProductID = *in.ProductID
		}
		if in.Quantity != nil {
			next.Quantity = *in.Quantity
		}
		if next.OrderID != old.OrderID {
			if err := checkOrder(ctx, tx, next.OrderID); err != nil {
				return err
			}
		}

		oldP, newP, err := lockPair(ctx, tx, old.ProductID, next.ProductID)
		if err != nil {
			return err
		}
		rows, err := MoveStock(oldP, old.Quantity, newP, next.Quantity)
		if err != nil {
			return err
		}
		if err := tx.UpdateDetail(ctx, next); err != nil {
			return conflictErr(err)
		}
		before := map[int64]int{oldP.ID: oldP.Stock, newP.ID: newP.Stock}
		for _, p := range rows {
			if p.Stock == before[p.ID] {
				continue
			}
			if err := tx.SetStock(ctx, p.ID, p.Stock); err != nil {
				return err
			}
			adj = append(adj, Adjustment{Kind: MovementUpdate, ProductID: p.ID, DetailID: id, Delta: p.Stock - before[p.ID], Stock: p.Stock})
		}
		out = next
		return nil
	})
	if err != nil {
		return OrderDetail{}, err
	}
	s.publish(ctx, adj)
	return out, nil
}

// DeleteDetail removes a line-item and returns its quantity to the product.
// This is the only path that restores stock for a removed line-item.
func (s *Service) DeleteDetail(ctx context.Context, id int64) error {
	var adj []Adjustment
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		d, err := tx.LockDetail(ctx, id)
		if err != nil {
			return err
		}
		p, err := tx.LockProduct(ctx, d.ProductID)
		if err != nil {
			return err
		}
		if p, err = ReturnStock(p, d.Quantity); err != nil {
			return err
		}
		if err := tx.SetStock(ctx, p.ID, p.Stock); err != nil {
			return err
		}
		if err := tx.DeleteDetail(ctx, id); err != nil {
			return err
		}
		adj = []Adjustment{{Kind: MovementDelete, ProductID: p.ID, DetailID: id, Delta: d.Quantity, Stock: p.Stock}}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, adj)
	return nil
}

func checkOrder(ctx context.Context, tx Tx, id int64) error {
	ok, err := tx.OrderExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errMissingRef("order", id)
	}
	return nil
}

func lockProduct(ctx context.Context, tx Tx, id int64) (Product, error) {
	p, err := tx.LockProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return p, errMissingRef("product", id)
	}
	return p, err
}

// lockPair locks both products in id order so concurrent swaps cannot deadlock.
func lockPair(ctx context.Context, tx Tx, oldID, newID int64) (Product, Product, error) {
	if oldID == newID {
		p, err := lockProduct(ctx, tx, oldID)
		return p, p, err
	}
	first, second := oldID, newID
	if second < first {
		first, second = second, first
	}
	a, err := lockProduct(ctx, tx, first)
	if err != nil {
		return Product{}, Product{}, err
	}
	b, err := lockProduct(ctx, tx, second)
	if err != nil {
		return Product{}, Product{}, err
	}
	if a.ID == oldID {
		return a, b, nil
	}
	return b, a, nil
}

func conflictErr(err error) error {
	if errors.Is(err, ErrConflict) {
		return validation.Field(validation.NonField, "the fields order, product must make a unique set.")
	}
	return err
}

func requireFields(missing map[string]bool) error {
	errs := validation.Errors{}
	for f, m := range missing {
		if m {
			errs.Add(f, msgRequired)
		}
	}
	return errs.Err()
}

func (s *Service) publish(ctx context.Context, adj []Adjustment) {
	if s.Publisher == nil {
		return
	}
	for _, a := range adj {
		ev := Envelope{
			EventID:       uuid.NewString(),
			EventType:     EventStockAdjusted,
			EventVersion:  1,
			OccurredAt:    s.now(),
			Producer:      s.ServiceName,
			TraceID:       traceID(ctx),
			CorrelationID: strconv.FormatInt(a.DetailID, 10),
			Payload: kafkax.MustMarshal(StockAdjustedPayload{
				ProductID: a.ProductID, DetailID: a.DetailID, Kind: a.Kind, Delta: a.Delta, Stock: a.Stock,
			}),
		}
		s.Publisher.Publish(PartitionKey(a.ProductID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(EventStockAdjusted)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
		if s.Log != nil {
			s.Log.Debug("stock adjusted",
				zap.Int64("product_id", a.ProductID),
				zap.String("kind", strings.ToLower(string(a.Kind))),
				zap.Int("delta", a.Delta),
				zap.Int("stock", a.Stock),
			)
		}
	}
}
