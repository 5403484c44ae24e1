package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"google.golang.org/api/option"

	"github.com/axnasim/mcp-server/internal/chatter"
	"github.com/axnasim/mcp-server/internal/config"
	"github.com/axnasim/mcp-server/internal/gmail"
	"github.com/axnasim/mcp-server/internal/google"
	"github.com/axnasim/mcp-server/internal/instrumentation"
)

// Options configures NewServerContext.
type Options struct {
	Config config.Config
	Logger *slog.Logger

	// Metrics and AuditLogger are optional.
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// Authorizer overrides the loopback consent flow built from Config.
	Authorizer google.Authorizer

	// OnAuthURL receives the consent URL when the loopback flow starts.
	OnAuthURL func(url string)

	// DebugHTTP logs every Gmail API request.
	DebugHTTP bool

	// GmailOptions are passed to the Gmail service, e.g. a test endpoint.
	GmailOptions []option.ClientOption
}

// ServerContext owns everything a tool call needs: the Gmail session, the
// chatter store and the instrumentation.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	config      config.Config
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	sessions    *google.SessionManager
	chatters    *chatter.Store
	gmailOpts   []option.ClientOption

	mu             sync.RWMutex
	mailbox        *gmail.Mailbox
	mailboxSession *google.Session
	shutdown       bool
}

// NewServerContext creates a new server context. No file is read and no
// network call is made until a tool needs it.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authorizer := opts.Authorizer
	if authorizer == nil && opts.Config.InteractiveAuth {
		authorizer = &google.LoopbackAuthorizer{
			ListenAddr: opts.Config.AuthListenAddr,
			Logger:     logger,
			OnAuthURL:  opts.OnAuthURL,
		}
	}

	var recorder google.AuthRecorder
	if opts.Metrics != nil {
		recorder = opts.Metrics
	}

	var storeRecorder chatter.OperationRecorder
	if opts.Metrics != nil {
		storeRecorder = opts.Metrics
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		config:      opts.Config,
		logger:      logger,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		sessions: google.NewSessionManager(google.SessionConfig{
			CredentialsFile: opts.Config.CredentialsFile,
			TokenFile:       opts.Config.TokenFile,
			Authorizer:      authorizer,
			Recorder:        recorder,
			Logger:          logger,
			DebugHTTP:       opts.DebugHTTP,
		}),
		chatters:  chatter.NewStore(opts.Config.ChatterDBPath, logger, storeRecorder),
		gmailOpts: opts.GmailOptions,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the context was built with.
func (sc *ServerContext) Config() config.Config {
	return sc.config
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Sessions returns the Gmail session manager.
func (sc *ServerContext) Sessions() *google.SessionManager {
	return sc.sessions
}

// ChatterStore returns the chatter database.
func (sc *ServerContext) ChatterStore() *chatter.Store {
	return sc.chatters
}

// Mailbox returns a mailbox bound to the active Gmail session, authorizing
// first if needed. The mailbox is rebuilt when the session changes.
func (sc *ServerContext) Mailbox(ctx context.Context) (*gmail.Mailbox, error) {
	if sc.IsShutdown() {
		return nil, fmt.Errorf("server is shutting down")
	}

	session, err := sc.sessions.ActiveSession(ctx)
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.mailbox != nil && sc.mailboxSession == session {
		return sc.mailbox, nil
	}

	clientOpts := []gmail.ClientOption{gmail.WithAPIOptions(sc.gmailOpts...)}
	if sc.metrics != nil {
		clientOpts = append(clientOpts, gmail.WithRecorder(sc.metrics))
	}
	client, err := gmail.NewClient(sc.ctx, session.HTTPClient(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail client: %w", err)
	}

	sc.mailbox = gmail.NewMailbox(client, sc.logger)
	sc.mailboxSession = session
	return sc.mailbox, nil
}

// CheckGmailCredentials reports whether a Gmail session can be started: the
// OAuth client file exists or a token is already stored.
func (sc *ServerContext) CheckGmailCredentials(_ context.Context) error {
	_, err := os.Stat(sc.config.CredentialsFile)
	if err == nil || sc.sessions.HasToken() {
		return nil
	}
	return fmt.Errorf("credentials file: %w", err)
}

// CheckChatterDB reports whether the chatters table can be read.
func (sc *ServerContext) CheckChatterDB(ctx context.Context) error {
	return sc.chatters.Check(ctx)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.mailbox = nil
	sc.mailboxSession = nil
	sc.sessions.Reset()
	sc.cancel()
	return nil
}
