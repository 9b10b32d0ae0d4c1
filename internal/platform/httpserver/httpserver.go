// Package httpserver constructs the shared http.Server used by cmd/server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with conservative timeouts. Per-route deadlines come
// from the timeout middleware; these only bound slow or stalled clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
