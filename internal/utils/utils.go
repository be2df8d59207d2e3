package utils

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// WriteJSON encodes v before writing the header so that an encoding failure
// still produces a well-formed 500 instead of a truncated 200.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode JSON", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal Server Error","message":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
