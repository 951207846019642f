package utils

import (
	"encoding/json"
	"net/http"
)

// JSONError writes a short human-readable reason; store-internal error text
// never reaches the caller.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
