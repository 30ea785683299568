package redisx

import "time"

const (
	// Last known quote per label: rates:quote:{label} -> sale price as a decimal string
	KeyQuote = "rates:quote:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var TTLDedup = 48 * time.Hour
