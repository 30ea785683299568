package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/ariefcatur/go-orders-api/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrdersHandler serves /orders and /order-detail.
type OrdersHandler struct {
	Service *orders.Service
	Log     *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.updateOrder)
		r.Patch("/{id}", h.updateOrder)
		r.Delete("/{id}", h.deleteOrder)
	})
	r.Route("/order-detail", func(r chi.Router) {
		r.Get("/", h.listDetails)
		r.Post("/", h.createDetail)
		r.Get("/{id}", h.getDetail)
		r.Put("/{id}", h.updateDetail)
		r.Patch("/{id}", h.updateDetail)
		r.Delete("/{id}", h.deleteDetail)
	})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Service.ListOrders(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.OrderInput
	if r.ContentLength != 0 {
		if err := decode(r, &in); err != nil {
			writeError(w, h.Log, err)
			return
		}
	}
	o, err := h.Service.CreateOrder(r.Context(), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	o, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var in orders.OrderInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	o, err := h.Service.UpdateOrder(r.Context(), id, in, partial(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Service.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) listDetails(w http.ResponseWriter, r *http.Request) {
	var orderID int64
	if v := r.URL.Query().Get("order"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, h.Log, validation.Field("order", "a valid integer is required."))
			return
		}
		orderID = id
	}
	ds, err := h.Service.ListDetails(r.Context(), orderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *OrdersHandler) createDetail(w http.ResponseWriter, r *http.Request) {
	var in orders.DetailInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := h.Service.CreateDetail(ctx, in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *OrdersHandler) getDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	d, err := h.Service.GetDetail(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *OrdersHandler) updateDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var in orders.DetailInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	d, err := h.Service.UpdateDetail(ctx, id, in, partial(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// deleteDetail leaves stock restoration to the service.
func (h *OrdersHandler) deleteDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.DeleteDetail(ctx, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
