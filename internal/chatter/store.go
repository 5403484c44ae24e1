package chatter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/axnasim/mcp-server/internal/instrumentation"
	"github.com/axnasim/mcp-server/internal/logging"
)

const rankedQuery = `SELECT name, messages FROM chatters ORDER BY messages DESC`

// ErrStorageUnavailable is matched by every error returned from Store.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError describes why the database could not be read.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Row is one chatter and their message count.
type Row struct {
	Name     string `json:"name"`
	Messages int64  `json:"messages"`
}

// OperationRecorder receives the outcome of each query.
type OperationRecorder interface {
	RecordUpstreamOperation(ctx context.Context, service, operation, status string, duration time.Duration)
}

// Store reads the chatters table of one database file.
type Store struct {
	path     string
	logger   *slog.Logger
	recorder OperationRecorder
}

// NewStore creates a Store for the database at path. recorder may be nil.
func NewStore(path string, logger *slog.Logger, recorder OperationRecorder) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:     path,
		logger:   logging.WithService(logger, "chatter"),
		recorder: recorder,
	}
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RankedChatters returns every chatter ordered by message count, highest first.
// An empty table yields an empty, non-nil slice.
func (s *Store) RankedChatters(ctx context.Context) (rows []Row, err error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceSQLite, instrumentation.OperationQuery)
	defer span.End()
	start := time.Now()
	defer func() {
		s.observe(ctx, start, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			s.logger.Warn("chatter lookup failed", logging.Path(s.path), logging.Err(err))
			return
		}
		span.SetAttributes(instrumentation.ResultSize(len(rows)))
		instrumentation.SetSpanSuccess(span)
	}()

	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.logger.Debug("failed to close database", logging.Path(s.path), logging.Err(cerr))
		}
	}()

	result, err := db.QueryContext(ctx, rankedQuery)
	if err != nil {
		return nil, s.fail("query", err)
	}
	defer func() { _ = result.Close() }()

	rows = []Row{}
	for result.Next() {
		var r Row
		if err := result.Scan(&r.Name, &r.Messages); err != nil {
			return nil, s.fail("scan", err)
		}
		rows = append(rows, r)
	}
	if err := result.Err(); err != nil {
		return nil, s.fail("read", err)
	}

	return rows, nil
}

// Check verifies the database exists and the chatters table is readable.
func (s *Store) Check(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chatters`).Scan(&n); err != nil {
		return s.fail("query", err)
	}
	return nil
}

// open opens the existing database file. The file is never created.
func (s *Store) open() (*sql.DB, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, s.fail("stat", err)
	}
	if info.IsDir() {
		return nil, s.fail("stat", errors.New("is a directory"))
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, s.fail("open", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *Store) fail(op string, err error) error {
	return &StorageError{Op: op, Path: s.path, Err: err}
}

func (s *Store) observe(ctx context.Context, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.recorder.RecordUpstreamOperation(ctx, instrumentation.ServiceSQLite, instrumentation.OperationQuery, status, time.Since(start))
}
