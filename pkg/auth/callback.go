package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CallbackPath is the loopback redirect path registered with the provider.
const CallbackPath = "/callback"

const shutdownGrace = 5 * time.Second

const (
	successPage = "<h1>Authentication successful!</h1><p>You can now close this window.</p>"
	failurePage = "<h1>Authentication failed</h1><p>The authentication session may have timed out. Please try again.</p>"
)

// CallbackServer is a one-shot loopback HTTP listener that receives the
// provider redirect and hands the authorization code to the waiting caller.
// Exactly one instance exists per login attempt; it owns its port from
// Start until Await (or Close) returns.
type CallbackServer struct {
	host  string
	port  int
	state string
	log   *zap.SugaredLogger

	ln       net.Listener
	srv      *http.Server
	codeCh   chan string
	serveErr chan error
}

// NewCallbackServer prepares a listener for localhost:port. A non-empty
// state is required to match in the callback query before a code is
// accepted. Port 0 picks a free port (tests).
func NewCallbackServer(port int, state string, log *zap.SugaredLogger) *CallbackServer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CallbackServer{
		host:     "localhost",
		port:     port,
		state:    state,
		log:      log,
		codeCh:   make(chan string, 1),
		serveErr: make(chan error, 1),
	}
}

// Start binds the loopback port and begins serving in the background. A
// bind failure is reported here, before any authorization URL is shown to
// the user.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("failed to bind callback listener on %s:%d: %w", s.host, s.port, err)
	}
	s.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)
	s.srv = &http.Server{Handler: mux}

	go func() {
		s.serveErr <- s.srv.Serve(ln)
	}()

	s.log.Debugw("callback listener bound", "url", s.RedirectURL())
	return nil
}

// Port returns the bound port. Only valid after Start.
func (s *CallbackServer) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// RedirectURL returns the redirect URI to register with the provider. Only
// valid after Start.
func (s *CallbackServer) RedirectURL() string {
	return fmt.Sprintf("http://%s:%d%s", s.host, s.Port(), CallbackPath)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	code := r.URL.Query().Get("code")
	if code == "" {
		s.log.Debugw("callback request without code", "query", r.URL.RawQuery)
		_, _ = fmt.Fprint(w, failurePage)
		return
	}
	if s.state != "" && r.URL.Query().Get("state") != s.state {
		s.log.Debugw("callback state mismatch")
		_, _ = fmt.Fprint(w, failurePage)
		return
	}

	select {
	case s.codeCh <- code:
		_, _ = fmt.Fprint(w, successPage)
	default:
		// A code was already delivered for this attempt.
		_, _ = fmt.Fprint(w, failurePage)
	}
}

// Await blocks until one authorization code arrives, then gracefully shuts
// the listener down and returns the code. The shutdown waits for in-flight
// responses (the success page) to complete and for the port to be released
// before Await returns.
//
// If the listener stops before a code arrives, Await returns
// ErrCallbackClosed, or a wrapped error when serving failed abnormally.
// Context cancellation aborts the wait and tears the listener down.
func (s *CallbackServer) Await(ctx context.Context) (string, error) {
	select {
	case code := <-s.codeCh:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Debugw("callback listener shutdown incomplete", "error", err)
		}
		if err := <-s.serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return "", fmt.Errorf("callback listener failed: %w", err)
		}
		s.log.Debugw("callback listener stopped")
		return code, nil

	case err := <-s.serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return "", fmt.Errorf("callback listener failed: %w", err)
		}
		return "", ErrCallbackClosed

	case <-ctx.Done():
		_ = s.srv.Close()
		<-s.serveErr
		return "", ctx.Err()
	}
}

// Close stops the listener immediately. Safe to call after Await has
// already shut it down.
func (s *CallbackServer) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}
