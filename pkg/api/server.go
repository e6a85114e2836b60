package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	bagcontext "github.com/danielkrainas/gobag/context"
	"github.com/urfave/negroni"
	"go.uber.org/zap"

	v1 "github.com/danielkrainas/lapse/pkg/api/v1"
	"github.com/danielkrainas/lapse/pkg/service"
	"github.com/danielkrainas/lapse/pkg/util/log"
)

const shutdownGrace = 5 * time.Second

type ServerConfig struct {
	Addr string
}

func NewServer(ctx context.Context, mux http.Handler, config ServerConfig) (srv *Server, err error) {
	n := negroni.New()
	n.Use(contextHandler(ctx))
	n.UseFunc(loggingHandler)
	recovery := negroni.NewRecovery()
	recovery.Logger = negroni.ALogger(bagcontext.GetLogger(ctx))
	recovery.PrintStack = false
	n.Use(recovery)

	n.Use(aliveHandler("/"))
	n.UseFunc(trackErrorsHandler)
	n.UseHandler(mux)

	srv = &Server{
		Context: ctx,
		config:  config,
		handler: n,
	}

	srv.server = &http.Server{
		Addr:              config.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

type Server struct {
	context.Context

	config  ServerConfig
	server  *http.Server
	handler http.Handler
}

var _ service.Component = (*Server)(nil)

func (srv *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", srv.config.Addr)
	if err != nil {
		return err
	}

	log.Info("listening", zap.Stringer("addr", ln.Addr()))
	return srv.server.Serve(ln)
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add(v1.VersionHeader.Name, bagcontext.GetVersion(srv.Context))
	srv.handler.ServeHTTP(w, r)
}

func (srv *Server) ComponentName() string {
	return "api"
}

// Run serves until the component manager shuts down.
func (srv *Server) Run(ctx service.ComponentRunContext) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.QuitCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
