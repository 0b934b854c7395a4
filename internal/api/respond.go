package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"food-order-backend/internal/auth"
	"food-order-backend/internal/models"
	"food-order-backend/internal/orders"
)

const maxBodyBytes = 1 << 20

type detail struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

// writeError maps domain errors onto HTTP responses. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr models.ValidationError
		terr *auth.ThrottledError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, models.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, orders.ErrTerminalStatus):
		writeDetail(w, http.StatusConflict, "Order is closed and its status can no longer change.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, models.NewValidationError("non_field_errors", "Invalid credentials"))
	case errors.As(err, &terr):
		w.Header().Set("Retry-After", strconv.Itoa(terr.Seconds()))
		writeDetail(w, http.StatusTooManyRequests, "Too many failed login attempts. Try again in "+strconv.Itoa(terr.Seconds())+" seconds.")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewValidationError("non_field_errors", "No data provided.")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return models.NewValidationError(typeErr.Field, "Incorrect type. Expected "+typeErr.Type.String()+".")
		}
		return models.NewValidationError("non_field_errors", "JSON parse error - "+err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ErrNotFound
	}
	return id, nil
}
