package server

import (
	"net/http"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/rrr.go/pkg/telemetry"
)

func (s *Server) streamHandler() websocket.Server {
	return websocket.Server{
		// Any origin, as for the rest of the API.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   s.stream,
	}
}

// stream sends a snapshot right away, then after every change but at
// least once per StreamInterval, until the peer goes away.
func (s *Server) stream(conn *websocket.Conn) {
	defer conn.Close()
	interval := s.StreamInterval
	if interval <= 0 {
		interval = telemetry.DefaultInterval
	}
	changed, stop := s.Store.Watch()
	defer stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := conn.Request().Context()
	for {
		if err := websocket.JSON.Send(conn, s.Store.Read()); err != nil {
			glog.V(2).Infof("state stream %s closed: %v", conn.Request().RemoteAddr, err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-changed:
		case <-ticker.C:
		}
	}
}
