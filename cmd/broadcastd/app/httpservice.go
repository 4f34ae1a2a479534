package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caddyserver/certmagic"
)

const shutdownGrace = 10 * time.Second

// httpServerService adapts an http.Server to suture.Service so the HTTP
// surface is supervised alongside the schedule and channel layers: a panic
// recovered by chi's Recoverer keeps the process up, but an actual listener
// crash now restarts under the same policy as everything else. TLS setup
// is a three-way switch: Let's Encrypt via certmagic given
// domains, a static cert/key pair, or plain HTTP.
type httpServerService struct {
	server *Server
	cfg    *ServerConfig
}

func (h httpServerService) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", h.cfg.Port), Handler: h.server.Router}

	errCh := make(chan error, 1)
	go func() {
		var err error
		switch {
		case h.cfg.Domains != "":
			err = certmagic.HTTPS(strings.Split(h.cfg.Domains, ","), h.server.Router)
		case h.cfg.CertPath != "" && h.cfg.KeyPath != "":
			err = srv.ListenAndServeTLS(h.cfg.CertPath, h.cfg.KeyPath)
		default:
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
