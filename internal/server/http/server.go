package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/chute-dev/chute/internal/broker"
	"github.com/chute-dev/chute/internal/server/http/controllers"
	"github.com/chute-dev/chute/pkg/log"
)

// Server serves the queue API for one broker runtime.
type Server struct {
	rt     *broker.Runtime
	logger log.Logger
	srv    *http.Server
	lis    net.Listener
}

// New builds the server and registers all routes.
func New(rt *broker.Runtime, logger log.Logger) *Server {
	s := &Server{
		rt:     rt,
		logger: logger.With(log.Component("http")),
	}
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt).RegisterAllRoutes(mux)
	mux.Handle("/metrics", rt.Metrics().Handler())
	s.srv = &http.Server{
		Handler:  s.instrument(mux),
		ErrorLog: log.ToStdLogger(s.logger, log.ErrorLevel),
	}
	return s
}

// ListenAndServe binds addr and serves until ctx is done or the
// listener fails. Shutdown waits up to 5s for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("api listening", log.Str("addr", l.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr reports the bound address, or "" before ListenAndServe.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

// Close tears the listener down without waiting for in-flight
// requests.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Handler returns the full middleware-wrapped handler. Used by tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// statusRecorder captures the response code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records per-request metrics and a debug log line.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.rt.Metrics().RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), elapsed)
		s.logger.Debug("request served",
			log.Str("method", r.Method),
			log.Str("path", r.URL.Path),
			log.Int("status", rec.status),
			log.Dur("elapsed", elapsed),
		)
	})
}
