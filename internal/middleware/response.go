package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError emits the structured rejection body shared by all
// pipeline-terminating middleware: a stable machine-readable key plus a
// human-readable message.
func writeError(w http.ResponseWriter, status int, key, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   key,
		"message": msg,
	})
}
