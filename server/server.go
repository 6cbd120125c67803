package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// Server はゲームサーバーのHTTPリスナーです。
type Server struct {
	HTTP *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		HTTP: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Serve はShutdownまたはCloseが呼ばれるまでブロックします。正常終了時はnilを返します。
func (s *Server) Serve() error {
	return ignoreClosed(s.HTTP.ListenAndServe())
}

// ServeListener は既に開いているリスナーで待ち受けます。
func (s *Server) ServeListener(l net.Listener) error {
	return ignoreClosed(s.HTTP.Serve(l))
}

func (s *Server) Shutdown(ctx context.Context) error { return s.HTTP.Shutdown(ctx) }
func (s *Server) Close() error                       { return s.HTTP.Close() }
func (s *Server) Addr() string                       { return s.HTTP.Addr }

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
