package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/premiumshop-backend/internal/services"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": code} plus any extra fields at the top level.
func WriteError(w http.ResponseWriter, status int, code string, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["error"] = code
	WriteJSON(w, status, body)
}

// WriteErr maps a service error to its response. Anything that is not a *services.Error
// is logged and answered with 500 internal_error.
func WriteErr(w http.ResponseWriter, log *slog.Logger, err error) {
	var se *services.Error
	if errors.As(err, &se) {
		if se.Status >= http.StatusInternalServerError {
			log.Error("request failed", "code", se.Code, "err", err)
		}
		WriteError(w, se.Status, se.Code, se.Fields)
		return
	}
	log.Error("request failed", "err", err)
	WriteError(w, http.StatusInternalServerError, "internal_error", nil)
}

// ReadBody returns at most 1 MiB of the request body.
func ReadBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// DecodeLoose decodes a JSON body into T. A missing or malformed body gives the zero
// value, so bad input surfaces as the domain error for missing fields.
func DecodeLoose[T any](r *http.Request) T {
	var zero, v T
	b, err := ReadBody(r)
	if err != nil || len(b) == 0 {
		return zero
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return zero
	}
	return v
}
