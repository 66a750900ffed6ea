// Package httpserver builds the process HTTP server with shared timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the given handler. ReadHeaderTimeout bounds
// slow-header clients; handler-level timeouts cover the rest.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
