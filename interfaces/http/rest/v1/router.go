// Package v1 keeps the retired API surface alive as permanent
// redirects onto /api/v2.
package v1

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// NewRouter creates the v1 redirect router
func NewRouter() *mux.Router {
	router := mux.NewRouter()

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.PathPrefix("/").HandlerFunc(redirectToV2)
	v1.HandleFunc("", redirectToV2)

	return router
}

func redirectToV2(w http.ResponseWriter, r *http.Request) {
	target := strings.Replace(r.URL.Path, "/api/v1", "/api/v2", 1)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}
