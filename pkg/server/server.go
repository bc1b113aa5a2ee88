// Package server exposes the device over HTTP.
//
// Endpoints:
//
//	GET  /state        - snapshot of the device state
//	POST /command      - dispatch a command, replies {"id":..,"error":..}
//	GET  /state/stream - websocket pushing a snapshot on every change
//	GET  /batt         - battery summary in text
//	GET  /red, /green, /blue, /off - set the indicator
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"github.com/robotalks/rrr.go/pkg/command"
	"github.com/robotalks/rrr.go/pkg/framework"
	"github.com/robotalks/rrr.go/pkg/hal"
	"github.com/robotalks/rrr.go/pkg/state"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":80"

// MaxCommandSize limits the body of POST /command.
const MaxCommandSize = 4096

// Server is the HTTP transport.
type Server struct {
	Addr       string
	Store      *state.Store
	Dispatcher *command.Dispatcher
	Indicator  *hal.GuardedIndicator
	// StreamInterval is the longest time between two stream snapshots.
	StreamInterval time.Duration

	listener net.Listener
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "http"
}

// Handler builds the request handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Path("/state").Methods(http.MethodGet).HandlerFunc(s.getState)
	router.Path("/state/stream").Methods(http.MethodGet).Handler(s.streamHandler())
	router.Path("/command").Methods(http.MethodPost).HandlerFunc(s.postCommand)
	router.Path("/batt").Methods(http.MethodGet).HandlerFunc(s.getBattery)
	for _, route := range legacyColors {
		router.Path(route.path).Methods(http.MethodGet).HandlerFunc(s.setColor(route))
	}
	router.Methods(http.MethodOptions).HandlerFunc(preflight)

	var handler http.Handler = router
	handler = loggingHandler{Handler: handler}
	handler = recoverHandler{Handler: handler}
	return corsHandler{Handler: handler}
}

// Listen binds the listen address. It is optional before Run and lets the
// caller learn the bound address.
func (s *Server) Listen() (net.Addr, error) {
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	srv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	glog.Infof("HTTP server listening on %s", s.listener.Addr())
	return framework.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}, func() error {
		err := srv.Serve(s.listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
}
