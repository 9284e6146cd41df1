package server

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/teranos/homepage/errors"
)

// writeHTML writes an HTML fragment with the given status code
func writeHTML(w http.ResponseWriter, status int, body template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// isHTMXRequest reports whether the request came from htmx and wants only the page content
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}
