package inventory

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Direct hands published messages straight to the ledger service. It stands in
// for Kafka when the API runs as a single process.
type Direct struct{ Service *Service }

func (d Direct) Publish(key, value []byte, headers ...kafkago.Header) {
	m := kafkago.Message{Key: key, Value: value, Headers: headers, Time: time.Now()}
	if err := d.Service.HandleStockAdjusted(context.Background(), m); err != nil {
		d.Service.Log.Error("direct ledger append failed", zap.Error(err))
	}
}
