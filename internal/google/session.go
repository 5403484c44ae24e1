package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/axnasim/mcp-server/internal/logging"
)

// Scopes requested for the Gmail session. Access is read-only.
var Scopes = []string{gmail.GmailReadonlyScope}

// Result labels passed to AuthRecorder.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AuthRecorder receives authorization and refresh outcomes.
type AuthRecorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
	RecordOAuthTokenRefresh(ctx context.Context, result string)
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	CredentialsFile string
	TokenFile       string

	// Authorizer runs the consent flow. Nil disables interactive authorization.
	Authorizer Authorizer

	// Recorder is optional.
	Recorder AuthRecorder

	Logger *slog.Logger

	// DebugHTTP logs every Gmail API request at debug level.
	DebugHTTP bool
}

// Session is an authorized Gmail HTTP session.
type Session struct {
	client      *http.Client
	tokenSource oauth2.TokenSource
}

// HTTPClient returns a client that attaches and refreshes the OAuth token.
func (s *Session) HTTPClient() *http.Client {
	return s.client
}

// Token returns the current token, refreshing it if needed.
func (s *Session) Token() (*oauth2.Token, error) {
	return s.tokenSource.Token()
}

// SessionManager owns the process-wide Gmail session.
type SessionManager struct {
	cfg    SessionConfig
	store  *TokenStore
	logger *slog.Logger

	mu      sync.Mutex
	session *Session
}

// NewSessionManager creates a manager. No files are read until ActiveSession is called.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		cfg:    cfg,
		store:  NewTokenStore(cfg.TokenFile),
		logger: logging.WithService(logger, "google-auth"),
	}
}

// TokenStore returns the store backing this manager.
func (m *SessionManager) TokenStore() *TokenStore {
	return m.store
}

// ActiveSession returns the memoized session, creating it on first use.
//
// A valid stored token is reused without reading the client registration
// file. An expired token with a refresh token is refreshed and persisted.
// Otherwise the Authorizer is run; without one the call fails with
// ErrMissingCredentials.
func (m *SessionManager) ActiveSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}

	tok, conf, err := m.usableToken(ctx)
	if err != nil {
		return nil, err
	}

	// The session outlives the request that created it.
	baseCtx := context.WithoutCancel(ctx)
	refresher := &clientTokenSource{ctx: baseCtx, tok: tok, load: m.oauthConfig}
	if conf != nil {
		refresher.ts = conf.TokenSource(baseCtx, tok)
	}
	ts := oauth2.ReuseTokenSource(tok, &persistingTokenSource{
		base:     refresher,
		store:    m.store,
		last:     tok.AccessToken,
		recorder: m.cfg.Recorder,
		logger:   m.logger,
	})

	var base http.RoundTripper
	if c, ok := baseCtx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		base = c.Transport
	}
	if m.cfg.DebugHTTP {
		base = &loggingTransport{base: base, logger: m.logger}
	}

	m.session = &Session{
		client:      &http.Client{Transport: &oauth2.Transport{Source: ts, Base: base}},
		tokenSource: ts,
	}
	return m.session, nil
}

// Authorize runs the consent flow unconditionally and persists the new token.
// Any memoized session is dropped.
func (m *SessionManager) Authorize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Authorizer == nil {
		return noUsableToken(m.store.Path())
	}

	conf, err := m.oauthConfig()
	if err != nil {
		return err
	}
	if _, err := m.authorize(ctx, conf); err != nil {
		return err
	}
	m.session = nil
	return nil
}

// CredentialsPresent reports whether the client registration file exists.
func (m *SessionManager) CredentialsPresent() bool {
	_, err := os.Stat(m.cfg.CredentialsFile)
	return err == nil
}

// HasToken reports whether a token file exists and parses.
func (m *SessionManager) HasToken() bool {
	_, err := m.store.Load()
	return err == nil
}

// Reset drops the memoized session.
func (m *SessionManager) Reset() {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
}

func (m *SessionManager) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(m.cfg.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, missingClientFile(m.cfg.CredentialsFile, err)
		}
		return nil, fmt.Errorf("failed to read client credentials: %w", err)
	}

	conf, err := googleoauth.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client credentials %s: %w", m.cfg.CredentialsFile, err)
	}
	return conf, nil
}

// usableToken returns a token for a new session. The client config is only
// loaded, and returned, when the stored token cannot be used as is.
func (m *SessionManager) usableToken(ctx context.Context) (*oauth2.Token, *oauth2.Config, error) {
	tok, err := m.store.Load()
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		m.logger.Debug("no stored token", logging.Path(m.store.Path()))
	default:
		m.logger.Warn("ignoring unreadable token file", logging.Path(m.store.Path()), logging.Err(err))
	}

	if tok != nil && tok.Valid() {
		return tok, nil, nil
	}

	conf, err := m.oauthConfig()
	if err != nil {
		return nil, nil, err
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := m.refresh(ctx, conf, tok)
		if err == nil {
			return refreshed, conf, nil
		}
		m.logger.Warn("token refresh failed", logging.Err(err))
	}

	if m.cfg.Authorizer == nil {
		return nil, nil, noUsableToken(m.store.Path())
	}
	tok, err = m.authorize(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return tok, conf, nil
}

func (m *SessionManager) refresh(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	refreshed, err := conf.TokenSource(ctx, tok).Token()
	if err != nil {
		m.record(ctx, false, ResultFailure)
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	m.record(ctx, false, ResultSuccess)

	if err := m.store.Save(refreshed); err != nil {
		return nil, err
	}
	m.logger.Info("refreshed Gmail token",
		logging.Path(m.store.Path()),
		slog.String("access_token", logging.SanitizeToken(refreshed.AccessToken)))
	return refreshed, nil
}

func (m *SessionManager) authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	tok, err := m.cfg.Authorizer.Authorize(ctx, conf)
	if err != nil {
		m.record(ctx, true, ResultFailure)
		return nil, err
	}
	m.record(ctx, true, ResultSuccess)

	if err := m.store.Save(tok); err != nil {
		return nil, err
	}
	m.logger.Info("stored new Gmail token", logging.Path(m.store.Path()))
	return tok, nil
}

func (m *SessionManager) record(ctx context.Context, interactive bool, result string) {
	if m.cfg.Recorder == nil {
		return
	}
	if interactive {
		m.cfg.Recorder.RecordOAuthAuth(ctx, result)
	} else {
		m.cfg.Recorder.RecordOAuthTokenRefresh(ctx, result)
	}
}

// clientTokenSource refreshes tok with the client config, reading the client
// registration file the first time a refresh is needed.
type clientTokenSource struct {
	ctx  context.Context
	tok  *oauth2.Token
	load func() (*oauth2.Config, error)

	mu sync.Mutex
	ts oauth2.TokenSource
}

func (c *clientTokenSource) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ts == nil {
		conf, err := c.load()
		if err != nil {
			return nil, err
		}
		c.ts = conf.TokenSource(c.ctx, c.tok)
	}
	return c.ts.Token()
}

// persistingTokenSource saves tokens refreshed during the session.
type persistingTokenSource struct {
	base     oauth2.TokenSource
	store    *TokenStore
	recorder AuthRecorder
	logger   *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if p.recorder != nil {
			p.recorder.RecordOAuthTokenRefresh(context.Background(), ResultFailure)
		}
		return nil, err
	}
	if tok.AccessToken == p.last {
		return tok, nil
	}

	p.last = tok.AccessToken
	if p.recorder != nil {
		p.recorder.RecordOAuthTokenRefresh(context.Background(), ResultSuccess)
	}
	if err := p.store.Save(tok); err != nil {
		// The request can still proceed with the in-memory token.
		p.logger.Warn("failed to persist refreshed token", logging.Err(err))
	}
	return tok, nil
}
