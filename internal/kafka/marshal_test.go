package kafka

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

func TestUnwrapPayload(t *testing.T) {
	raw := json.RawMessage(MustMarshal(sample{ID: 7, Label: "blue"}))
	got, err := UnwrapPayload[sample](raw)
	require.NoError(t, err)
	assert.Equal(t, sample{ID: 7, Label: "blue"}, got)

	_, err = UnwrapPayload[sample](json.RawMessage(`{"id":"x"}`))
	assert.ErrorContains(t, err, "decode payload")
}

func TestMustMarshalPanicsOnUnsupported(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(make(chan int)) })
}

func TestHeaderValue(t *testing.T) {
	hs := []kafka.Header{{Key: "x-event-type", Value: []byte("StockAdjusted")}}
	assert.Equal(t, "StockAdjusted", HeaderValue(hs, "x-event-type"))
	assert.Equal(t, "", HeaderValue(hs, "x-event-version"))
}
