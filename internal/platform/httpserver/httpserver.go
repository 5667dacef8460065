package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Timeouts stay tight; every route is a small
// JSON exchange, there is no streaming or long polling.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
