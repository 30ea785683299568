package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-orders-api/internal/accounts"
	"github.com/ariefcatur/go-orders-api/internal/inventory"
	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRates struct {
	rate decimal.Decimal
	err  error
}

func (s stubRates) BlueRate(context.Context) (decimal.Decimal, error) { return s.rate, s.err }

type testAPI struct {
	t      *testing.T
	srv    *httptest.Server
	token  string
	calc   *orders.Calculator
	ledger *inventory.MemLedger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	ledger := inventory.NewMemLedger()
	calc := &orders.Calculator{Mode: orders.TotalSum, Log: log}
	osvc := &orders.Service{
		Store:       orders.NewMemStore(),
		Calc:        calc,
		Publisher:   inventory.Direct{Service: &inventory.Service{Ledger: ledger, Log: log}},
		ServiceName: "test",
		Log:         log,
	}
	asvc := &accounts.Service{
		Store:  accounts.NewMemStore(),
		Tokens: &accounts.Tokens{Secret: []byte("test"), AccessTTL: time.Minute, RefreshTTL: time.Hour},
		Log:    log,
	}
	require.NoError(t, asvc.EnsureAdmin(context.Background(), "usuario", "muysegura"))

	srv := httptest.NewServer(API{Orders: osvc, Accounts: asvc, Ledger: ledger, Log: log}.Handler())
	t.Cleanup(srv.Close)

	a := &testAPI{t: t, srv: srv, calc: calc, ledger: ledger}
	var pair accounts.TokenPair
	code := a.do(http.MethodPost, "/token/", map[string]string{"username": "usuario", "password": "muysegura"}, &pair)
	require.Equal(t, http.StatusOK, code)
	a.token = pair.Access
	return a
}

// do sends body as JSON with the bearer token and decodes the response into out.
func (a *testAPI) do(method, path string, body, out any) int {
	a.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) product(name string, price float64, stock int) orders.Product {
	a.t.Helper()
	var p orders.Product
	code := a.do(http.MethodPost, "/products/", map[string]any{"name": name, "price": price, "stock": stock}, &p)
	require.Equal(a.t, http.StatusCreated, code)
	return p
}

func (a *testAPI) order() orders.OrderView {
	a.t.Helper()
	var o orders.OrderView
	code := a.do(http.MethodPost, "/orders/", map[string]any{"date_time": "2024-05-01T12:00:00Z"}, &o)
	require.Equal(a.t, http.StatusCreated, code)
	return o
}

func (a *testAPI) stock(id int64) int {
	a.t.Helper()
	var p orders.Product
	require.Equal(a.t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/products/%d/", id), nil, &p))
	return p.Stock
}

func TestUnauthenticated(t *testing.T) {
	a := newTestAPI(t)
	a.token = ""
	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/products/", nil, &body))
	assert.Equal(t, "Authentication credentials were not provided.", body["detail"])

	a.token = "garbage"
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/orders/", nil, nil))
}

func TestTokenEndpoints(t *testing.T) {
	a := newTestAPI(t)
	a.token = ""

	var body map[string]any
	code := a.do(http.MethodPost, "/token/", map[string]string{"username": "usuario", "password": "nope"}, &body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code = a.do(http.MethodPost, "/token/", map[string]string{}, &body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "username")

	var pair accounts.TokenPair
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/token/", map[string]string{"username": "usuario", "password": "muysegura"}, &pair))

	var refreshed map[string]string
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/token/refresh/", map[string]string{"refresh": pair.Refresh}, &refreshed))
	assert.NotEmpty(t, refreshed["access"])

	// a refresh token is not an access token
	a.token = pair.Refresh
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/products/", nil, nil))
	a.token = refreshed["access"]
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/products/", nil, nil))
}

func TestCreateProduct(t *testing.T) {
	a := newTestAPI(t)

	var got map[string]any
	code := a.do(http.MethodPost, "/products/", map[string]any{"id": 77, "name": "Widget", "price": 9.99, "stock": 10}, &got)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]any{"id": 1.0, "name": "Widget", "price": 9.99, "stock": 10.0}, got)

	var list []orders.Product
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/products", nil, &list))
	assert.Len(t, list, 1)
}

func TestCreateProductRejected(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"negative stock", map[string]any{"name": "W", "price": 1.0, "stock": -1}, "stock"},
		{"zero price", map[string]any{"name": "W", "price": 0, "stock": 1}, "price"},
		{"negative price", map[string]any{"name": "W", "price": -2.5, "stock": 1}, "price"},
		{"wrong type", map[string]any{"name": "W", "price": "cheap", "stock": 1}, "price"},
		{"stock beyond storage", map[string]any{"name": "W", "price": 1.0, "stock": 3_000_000_000}, "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string][]string
			assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/products/", tt.body, &body))
			assert.Contains(t, body, tt.field)
		})
	}
	var list []orders.Product
	a.do(http.MethodGet, "/products/", nil, &list)
	assert.Empty(t, list)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	a := newTestAPI(t)
	p := a.product("Widget", 9.99, 10)

	var got orders.Product
	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, fmt.Sprintf("/products/%d/", p.ID), map[string]any{"stock": 3}, &got))
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 9.99, got.Price)

	var errBody map[string][]string
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, fmt.Sprintf("/products/%d/", p.ID), map[string]any{"stock": 3}, &errBody))
	assert.Contains(t, errBody, "name")

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/products/%d/", p.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, fmt.Sprintf("/products/%d/", p.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/products/abc/", nil, nil))
}

func TestOrderDetailLifecycle(t *testing.T) {
	a := newTestAPI(t)
	p := a.product("Widget", 5.0, 10)
	o := a.order()

	var errBody map[string][]string
	code := a.do(http.MethodPost, "/order-detail/", map[string]any{"order": o.ID, "product": p.ID, "quantity": 11}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []string{"quantity exceeds available stock: 10"}, errBody["quantity"])
	assert.Equal(t, 10, a.stock(p.ID))

	for _, q := range []int{0, -3, 1000} {
		errBody = nil
		assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/order-detail/", map[string]any{"order": o.ID, "product": p.ID, "quantity": q}, &errBody))
		assert.Contains(t, errBody, "quantity")
	}
	assert.Equal(t, 10, a.stock(p.ID))

	var d orders.OrderDetail
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/order-detail/", map[string]any{"order": o.ID, "product": p.ID, "quantity": 2}, &d))
	assert.Equal(t, orders.OrderDetail{ID: d.ID, OrderID: o.ID, ProductID: p.ID, Quantity: 2}, d)
	assert.Equal(t, 8, a.stock(p.ID))

	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, fmt.Sprintf("/order-detail/%d/", d.ID), map[string]any{"quantity": 6}, &d))
	assert.Equal(t, 4, a.stock(p.ID))

	var ds []orders.OrderDetail
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/order-detail/?order=%d", o.ID), nil, &ds))
	assert.Len(t, ds, 1)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/order-detail/%d/", d.ID), nil, nil))
	assert.Equal(t, 10, a.stock(p.ID), "restored exactly once")
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, fmt.Sprintf("/order-detail/%d/", d.ID), nil, nil))
	assert.Equal(t, 10, a.stock(p.ID))

	var ms []inventory.Movement
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/products/%d/movements/", p.ID), nil, &ms))
	require.Len(t, ms, 3)
	deltas := []int{}
	for _, m := range ms {
		deltas = append(deltas, m.Delta)
	}
	assert.ElementsMatch(t, []int{-2, -4, 6}, deltas)
}

func TestOrderTotals(t *testing.T) {
	a := newTestAPI(t)
	p := a.product("Widget", 5.0, 10)
	o := a.order()
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/order-detail/", map[string]any{"order": o.ID, "product": p.ID, "quantity": 2}, nil))

	a.calc.Rates = stubRates{rate: decimal.RequireFromString("350.5")}
	var got map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/orders/%d/", o.ID), nil, &got))
	assert.Equal(t, 10.0, got["total"])
	assert.Equal(t, 3505.0, got["total_usd"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got["date_time"])
}

func TestOrderTotalUSDAbsentWhenRatesFail(t *testing.T) {
	a := newTestAPI(t)
	p := a.product("Widget", 5.0, 10)
	o := a.order()
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/order-detail/", map[string]any{"order": o.ID, "product": p.ID, "quantity": 2}, nil))

	a.calc.Rates = stubRates{err: errors.New("connection refused")}
	var got map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, fmt.Sprintf("/orders/%d/", o.ID), nil, &got))
	assert.Equal(t, 10.0, got["total"])
	assert.NotContains(t, got, "total_usd")

	var list []map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/orders/", nil, &list))
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "total_usd")
}

func TestDeleteOrderKeepsStockTaken(t *testing.T) {
	a := newTestAPI(t)
	p := a.product("Widget", 5.0, 10)
	o := a.order()
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/order-detail/", map[string]any{"order": o.ID, "product": p.ID, "quantity": 4}, nil))

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/orders/%d/", o.ID), nil, nil))
	var ds []orders.OrderDetail
	a.do(http.MethodGet, "/order-detail/", nil, &ds)
	assert.Empty(t, ds)
	assert.Equal(t, 6, a.stock(p.ID))
}

func TestUsersAndGroups(t *testing.T) {
	a := newTestAPI(t)

	var g accounts.Group
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/groups/", map[string]any{"name": "staff"}, &g))

	var u map[string]any
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/users/", map[string]any{
		"username": "ana", "email": "ana@example.com", "groups": []int64{g.ID}, "password": "secret",
	}, &u))
	assert.Equal(t, "ana", u["username"])
	assert.NotContains(t, u, "password")
	assert.NotContains(t, u, "PasswordHash")

	var users []accounts.User
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/users/", nil, &users))
	assert.Len(t, users, 2)

	var errBody map[string][]string
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/users/", map[string]any{"username": "ana"}, &errBody))
	assert.Contains(t, errBody, "username")

	errBody = nil
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/users/", map[string]any{
		"username": "long", "password": strings.Repeat("p", 73),
	}, &errBody))
	assert.Equal(t, []string{"ensure this field has no more than 72 bytes."}, errBody["password"])

	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, fmt.Sprintf("/groups/%d/", g.ID), map[string]any{"name": "ops"}, &g))
	assert.Equal(t, "ops", g.Name)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/groups/%d/", g.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, fmt.Sprintf("/groups/%d/", g.ID), nil, nil))
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	resp, err := http.Get(a.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
