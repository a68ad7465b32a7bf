// Package httpserver builds the *http.Server with production timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with conservative header/read/idle timeouts.
// WriteTimeout is left unset because websocket connections are long-lived;
// ordinary routes are bounded by the request Timeout middleware instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
