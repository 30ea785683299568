package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-orders-api/internal/kafka"
	"github.com/ariefcatur/go-orders-api/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Deduper claims event ids; *redisx.Dedup satisfies it.
type Deduper interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

// Service records StockAdjusted events into the ledger.
type Service struct {
	Ledger Ledger
	Dedup  Deduper // optional fast path; the ledger insert is idempotent on its own
	Log    *zap.Logger
}

// HandleStockAdjusted is installed as the consumer handler.
func (s *Service) HandleStockAdjusted(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Error("invalid envelope, skipping", zap.ByteString("key", m.Key), zap.Error(err))
		return nil // poison message: commit and move on
	}
	if env.EventType != orders.EventStockAdjusted {
		return nil
	}

	// 2) dedup via redis (event_id)
	if s.Dedup != nil {
		first, err := s.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			s.Log.Warn("dedup unavailable, relying on ledger", zap.Error(err))
		} else if !first {
			return nil
		}
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.StockAdjustedPayload](env.Payload)
	if err != nil {
		s.Log.Error("invalid payload, skipping", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if !p.Kind.Valid() {
		s.Log.Error("unknown movement kind, skipping", zap.String("event_id", env.EventID), zap.String("kind", string(p.Kind)))
		return nil
	}

	// 4) append
	err = s.Ledger.Append(ctx, Movement{
		EventID:    env.EventID,
		ProductID:  p.ProductID,
		DetailID:   p.DetailID,
		Kind:       p.Kind,
		Delta:      p.Delta,
		Stock:      p.Stock,
		OccurredAt: env.OccurredAt,
	})
	if err != nil {
		// release the claim so redelivery is not swallowed
		if s.Dedup != nil {
			_ = s.Dedup.Forget(ctx, env.EventID)
		}
		return fmt.Errorf("append movement %s: %w", env.EventID, err)
	}
	s.Log.Info("movement recorded",
		zap.String("event_id", env.EventID),
		zap.Int64("product_id", p.ProductID),
		zap.String("kind", string(p.Kind)),
		zap.Int("delta", p.Delta),
	)
	return nil
}
