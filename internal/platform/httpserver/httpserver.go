package httpserver

import (
	"net/http"
	"time"
)

// New returns an *http.Server with sane timeouts for a small API service.
// Write timeout stays above the per-request middleware timeout so the
// middleware responds first with a proper body.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
