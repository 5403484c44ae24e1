package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAuthTimeout bounds how long the consent flow waits for the redirect.
const DefaultAuthTimeout = 5 * time.Minute

const callbackPath = "/oauth2/callback"

// Authorizer obtains a fresh token through user interaction.
type Authorizer interface {
	Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)
}

// LoopbackAuthorizer runs the installed-app consent flow: it listens on a
// loopback address, prints the consent URL and exchanges the code delivered
// to the redirect.
type LoopbackAuthorizer struct {
	// ListenAddr is the loopback listen address. Port 0 picks a free port.
	ListenAddr string

	// Timeout defaults to DefaultAuthTimeout.
	Timeout time.Duration

	// Logger receives the consent URL when OnAuthURL is nil. It must not
	// write to stdout.
	Logger *slog.Logger

	// OnAuthURL, when set, is called with the consent URL after the listener
	// is ready, instead of logging it.
	OnAuthURL func(url string)
}

type callbackResult struct {
	code string
	err  error
}

// Authorize implements Authorizer.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	listenAddr := a.ListenAddr
	if listenAddr == "" {
		listenAddr = "127.0.0.1:0"
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	state, err := randomState()
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	flowConf := *conf
	flowConf.RedirectURL = "http://" + ln.Addr().String() + callbackPath

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusForbidden)
			deliver(results, callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			return
		case q.Get("code") == "":
			http.Error(w, "code missing", http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprint(w, "Authorization received. You can close this tab.")
		deliver(results, callbackResult{code: q.Get("code")})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("authorization listener stopped", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := flowConf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if a.OnAuthURL != nil {
		a.OnAuthURL(authURL)
	} else {
		logger.Info("open this URL in a browser to authorize Gmail access", slog.String("url", authURL))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-results:
	case <-timer.C:
		return nil, fmt.Errorf("authorization timed out after %s", timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization cancelled: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := flowConf.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// deliver keeps the first callback result and drops later ones.
func deliver(ch chan<- callbackResult, res callbackResult) {
	select {
	case ch <- res:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
