package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-orders-api/internal/accounts"
	"github.com/ariefcatur/go-orders-api/internal/inventory"
	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(traceRequest)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// traceRequest carries the request id into published stock events.
func traceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(orders.WithTraceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// API bundles the services behind the HTTP surface.
type API struct {
	Orders   *orders.Service
	Accounts *accounts.Service
	Ledger   inventory.Ledger // optional
	Log      *zap.Logger
}

// Handler mounts the public token routes and the authenticated resources.
func (a API) Handler() http.Handler {
	r := NewRouter()
	(&TokenHandler{Service: a.Accounts, Log: a.Log}).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(a.Accounts, a.Log))
		(&AccountsHandler{Service: a.Accounts, Log: a.Log}).Register(r)
		(&ProductsHandler{Service: a.Orders, Ledger: a.Ledger, Log: a.Log}).Register(r)
		(&OrdersHandler{Service: a.Orders, Log: a.Log}).Register(r)
	})
	return r
}
