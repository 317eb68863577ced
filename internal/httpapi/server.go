package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewServer wraps h in an http.Server whose request contexts are cancelled
// when Shutdown starts, so long-lived responses such as /v1/account/stream
// return instead of holding Shutdown until its deadline.
func NewServer(addr string, h http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: /v1/account/stream holds the response open
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
