package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v with the given status. Encoding failures at this point
// can only be reported by the status line already sent, so they are dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard error envelope. The description is omitted
// when empty so internal details never leak by default.
func WriteError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	WriteJSON(w, status, body)
}
