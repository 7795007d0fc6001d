package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"notable/internal/logging"
	"notable/internal/store"
)

// Server hosts the note API over plain HTTP on a local address.
type Server struct {
	addr    string
	version string
	notes   store.NoteStore
	log     logging.Logger
	server  *http.Server
}

func New(addr, version string, notes store.NoteStore, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		addr:    addr,
		version: version,
		notes:   notes,
		log:     log,
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	api := &API{
		Version: s.version,
		Service: NewNoteService(s.notes),
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", logging.F("addr", "http://"+s.addr))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
