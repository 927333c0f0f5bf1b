package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// urlParam returns a URL-decoded chi route parameter.
func urlParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return strings.Trim(decoded, "/")
}
