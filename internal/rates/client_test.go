package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const feed = `[
 {"casa":{"nombre":"Dolar Oficial","compra":"180,50","venta":"190,50"}},
 {"casa":{"nombre":"Dolar Blue","compra":"340,00","venta":"350,50"}},
 {"casa":{"nombre":"Dolar Bolsa","compra":"1.340,00","venta":"1.350,25"}}
]`

type memCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  time.Duration
}

func (m *memCache) GetQuote(_ context.Context, label string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[label]
	return v, ok, nil
}

func (m *memCache) SetQuote(_ context.Context, label, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[label] = value
	m.ttl = ttl
	return nil
}

func serve(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBlueRate(t *testing.T) {
	srv := serve(t, http.StatusOK, feed, nil)
	c := New(srv.URL, "Dolar Blue", time.Second, zap.NewNop())

	got, err := c.BlueRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "350.5", got.String())
}

func TestBlueRateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		label  string
	}{
		{"server error", http.StatusBadGateway, "", "Dolar Blue"},
		{"malformed json", http.StatusOK, `{"casa":`, "Dolar Blue"},
		{"missing label", http.StatusOK, feed, "Dolar Turista"},
		{"unparsable price", http.StatusOK, `[{"casa":{"nombre":"Dolar Blue","venta":"n/d"}}]`, "Dolar Blue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body, nil)
			c := New(srv.URL, tt.label, time.Second, zap.NewNop())
			_, err := c.BlueRate(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestBlueRateMissingLabelIsSentinel(t *testing.T) {
	srv := serve(t, http.StatusOK, feed, nil)
	c := New(srv.URL, "Dolar Turista", time.Second, zap.NewNop())
	_, err := c.BlueRate(context.Background())
	assert.True(t, errors.Is(err, ErrLabelNotFound))
}

func TestBlueRateUnreachable(t *testing.T) {
	srv := serve(t, http.StatusOK, feed, nil)
	url := srv.URL
	srv.Close()

	c := New(url, "Dolar Blue", time.Second, zap.NewNop())
	_, err := c.BlueRate(context.Background())
	assert.Error(t, err)
}

func TestBlueRateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "Dolar Blue", 50*time.Millisecond, zap.NewNop())
	start := time.Now()
	_, err := c.BlueRate(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestBlueRateUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := serve(t, http.StatusOK, feed, &hits)
	cache := &memCache{}
	c := New(srv.URL, "Dolar Blue", time.Second, zap.NewNop())
	c.Cache, c.CacheTTL = cache, time.Minute

	for i := 0; i < 3; i++ {
		got, err := c.BlueRate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "350.5", got.String())
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, time.Minute, cache.ttl)
}

func TestParsePrice(t *testing.T) {
	tests := map[string]string{
		"350,50":   "350.5",
		" 190,5 ":  "190.5",
		"1.350,25": "1350.25",
		"351.75":   "351.75",
		"1000":     "1000",
	}
	for in, want := range tests {
		got, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
	_, err := ParsePrice("")
	assert.Error(t, err)
}
