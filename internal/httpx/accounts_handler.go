package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-orders-api/internal/accounts"
	"github.com/ariefcatur/go-orders-api/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TokenHandler serves the public token endpoints.
type TokenHandler struct {
	Service *accounts.Service
	Log     *zap.Logger
}

func (h *TokenHandler) Register(r chi.Router) {
	r.Post("/token", h.obtain)
	r.Post("/token/refresh", h.refresh)
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *TokenHandler) obtain(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	errs := validation.Errors{}
	if req.Username == "" {
		errs.Add("username", "this field is required.")
	}
	if req.Password == "" {
		errs.Add("password", "this field is required.")
	}
	if err := errs.Err(); err != nil {
		writeError(w, h.Log, err)
		return
	}
	pair, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *TokenHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if req.Refresh == "" {
		writeError(w, h.Log, validation.Field("refresh", "this field is required."))
		return
	}
	access, err := h.Service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// AccountsHandler serves /users and /groups.
type AccountsHandler struct {
	Service *accounts.Service
	Log     *zap.Logger
}

func (h *AccountsHandler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Get("/{id}", h.getUser)
		r.Put("/{id}", h.updateUser)
		r.Patch("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})
	r.Route("/groups", func(r chi.Router) {
		r.Get("/", h.listGroups)
		r.Post("/", h.createGroup)
		r.Get("/{id}", h.getGroup)
		r.Put("/{id}", h.updateGroup)
		r.Patch("/{id}", h.updateGroup)
		r.Delete("/{id}", h.deleteGroup)
	})
}

func (h *AccountsHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *AccountsHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var in accounts.UserInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.Service.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AccountsHandler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountsHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var in accounts.UserInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	u, err := h.Service.UpdateUser(r.Context(), id, in, partial(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountsHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountsHandler) listGroups(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Service.ListGroups(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *AccountsHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	var in accounts.GroupInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	g, err := h.Service.CreateGroup(r.Context(), in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *AccountsHandler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	g, err := h.Service.GetGroup(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *AccountsHandler) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var in accounts.GroupInput
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	g, err := h.Service.UpdateGroup(r.Context(), id, in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *AccountsHandler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Service.DeleteGroup(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
