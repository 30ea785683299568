package orders

import (
	"context"
	"maps"
	"sort"
	"sync"
)

// MemStore is a process-local Store. A single mutex serialises every
// transaction, which is what makes its stock updates atomic.
type MemStore struct {
	mu       sync.Mutex
	products map[int64]Product
	orders   map[int64]Order
	details  map[int64]OrderDetail
	seq      struct{ product, order, detail int64 }
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		products: map[int64]Product{},
		orders:   map[int64]Order{},
		details:  map[int64]OrderDetail{},
	}
}

// WithTx stages writes on copies and swaps them in only when fn succeeds.
func (s *MemStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:        s,
		products: maps.Clone(s.products),
		details:  maps.Clone(s.details),
		seq:      s.seq.detail,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.products, s.details, s.seq.detail = tx.products, tx.details, tx.seq
	return nil
}

func (s *MemStore) CreateProduct(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.product++
	p.ID = s.seq.product
	s.products[p.ID] = p
	return p, nil
}

func (s *MemStore) GetProduct(_ context.Context, id int64) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) ListProducts(_ context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) UpdateProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return ErrNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	for did, d := range s.details {
		if d.ProductID == id {
			delete(s.details, did)
		}
	}
	return nil
}

func (s *MemStore) CreateOrder(_ context.Context, o Order) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.order++
	o.ID = s.seq.order
	s.orders[o.ID] = o
	return o, nil
}

func (s *MemStore) GetOrder(_ context.Context, id int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *MemStore) ListOrders(_ context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) UpdateOrder(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return ErrNotFound
	}
	s.orders[o.ID] = o
	return nil
}

func (s *MemStore) DeleteOrder(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	for did, d := range s.details {
		if d.OrderID == id {
			delete(s.details, did)
		}
	}
	return nil
}

func (s *MemStore) GetDetail(_ context.Context, id int64) (OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[id]
	if !ok {
		return OrderDetail{}, ErrNotFound
	}
	return d, nil
}

func (s *MemStore) ListDetails(_ context.Context, orderID int64) ([]OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detailsOf(orderID), nil
}

func (s *MemStore) OrderLines(_ context.Context, orderID int64) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Line
	for _, d := range s.detailsOf(orderID) {
		out = append(out, Line{Quantity: d.Quantity, Price: s.products[d.ProductID].Price})
	}
	return out, nil
}

// callers hold s.mu
func (s *MemStore) detailsOf(orderID int64) []OrderDetail {
	out := []OrderDetail{}
	for _, d := range s.details {
		if orderID == 0 || d.OrderID == orderID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memTx struct {
	s        *MemStore
	products map[int64]Product
	details  map[int64]OrderDetail
	seq      int64
}

func (t *memTx) LockProduct(_ context.Context, id int64) (Product, error) {
	p, ok := t.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (t *memTx) SetStock(_ context.Context, id int64, stock int) error {
	p, ok := t.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock = stock
	t.products[id] = p
	return nil
}

func (t *memTx) OrderExists(_ context.Context, id int64) (bool, error) {
	_, ok := t.s.orders[id]
	return ok, nil
}

func (t *memTx) LockDetail(_ context.Context, id int64) (OrderDetail, error) {
	d, ok := t.details[id]
	if !ok {
		return OrderDetail{}, ErrNotFound
	}
	return d, nil
}

func (t *memTx) InsertDetail(_ context.Context, d OrderDetail) (OrderDetail, error) {
	if t.duplicate(d) {
		return d, ErrConflict
	}
	t.seq++
	d.ID = t.seq
	t.details[d.ID] = d
	return d, nil
}

func (t *memTx) UpdateDetail(_ context.Context, d OrderDetail) error {
	if _, ok := t.details[d.ID]; !ok {
		return ErrNotFound
	}
	if t.duplicate(d) {
		return ErrConflict
	}
	t.details[d.ID] = d
	return nil
}

func (t *memTx) DeleteDetail(_ context.Context, id int64) error {
	if _, ok := t.details[id]; !ok {
		return ErrNotFound
	}
	delete(t.details, id)
	return nil
}

func (t *memTx) duplicate(d OrderDetail) bool {
	for _, o := range t.details {
		if o.ID != d.ID && o.OrderID == d.OrderID && o.ProductID == d.ProductID {
			return true
		}
	}
	return false
}
