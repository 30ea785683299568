package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-orders-api/internal/accounts"
	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/ariefcatur/go-orders-api/internal/validation"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if v, ok := validation.As(err); ok {
		writeJSON(w, http.StatusBadRequest, v)
		return
	}
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, accounts.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, accounts.ErrInvalidCredentials.Error())
	case errors.Is(err, accounts.ErrInvalidToken):
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// decode reads a JSON body into dst. Unknown and read-only fields are ignored.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return validation.Field(validation.NonField, "request body is empty.")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return validation.Field(typeErr.Field, fmt.Sprintf("a valid %s is required.", typeErr.Type.String()))
	default:
		return validation.Field(validation.NonField, "JSON parse error - "+err.Error())
	}
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, orders.ErrNotFound
	}
	return id, nil
}

func partial(r *http.Request) bool { return r.Method == http.MethodPatch }
