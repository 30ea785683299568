package orders

import (
	"encoding/json"
	"time"
)

const EventStockAdjusted = "StockAdjusted"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order-detail id
	Payload       json.RawMessage `json:"payload"`
}

type StockAdjustedPayload struct {
	ProductID int64        `json:"product_id"`
	DetailID  int64        `json:"detail_id"`
	Kind      MovementKind `json:"kind"`
	Delta     int          `json:"delta"`
	Stock     int          `json:"stock"`
}
