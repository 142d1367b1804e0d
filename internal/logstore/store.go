// Package logstore implements a bounded structured log buffer per server.
//
// Every log call appends exactly one immutable entry; once the buffer is
// full each append drops the single oldest entry. Retrieval filters never
// mutate the buffer and entries are never reordered.
package logstore

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/toolscope/toolscope/internal/shared/id"
	"github.com/toolscope/toolscope/internal/shared/ring"
	"github.com/toolscope/toolscope/internal/types"
)

// DefaultCapacity is the default log buffer size.
const DefaultCapacity = 1000

// Store is a thread-safe bounded log buffer for one server.
type Store struct {
	serverName string
	serverType string
	sessionID  string

	mu     sync.RWMutex
	buffer *ring.Buffer[types.LogEntry]
	errors int // running tally of buffered ERROR/CRITICAL entries

	echo *zap.Logger
	now  func() time.Time
}

// Option configures optional fields on a log entry.
type Option func(*types.LogEntry)

// WithOperation sets the operation (tool) name.
func WithOperation(name string) Option {
	return func(e *types.LogEntry) { e.Operation = name }
}

// WithUser sets the user id.
func WithUser(userID string) Option {
	return func(e *types.LogEntry) { e.UserID = userID }
}

// WithRequestID sets the request/trace correlation id.
func WithRequestID(requestID string) Option {
	return func(e *types.LogEntry) { e.RequestID = requestID }
}

// WithDuration sets the duration in milliseconds.
func WithDuration(ms float64) Option {
	return func(e *types.LogEntry) { e.DurationMS = &ms }
}

// WithErrorDetails attaches structured error details.
func WithErrorDetails(details map[string]interface{}) Option {
	return func(e *types.LogEntry) { e.ErrorDetails = details }
}

// WithMetadata attaches free-form metadata.
func WithMetadata(md map[string]interface{}) Option {
	return func(e *types.LogEntry) { e.Metadata = md }
}

// New creates a store with the default capacity. The session id is
// generated once here and stamped on every entry.
func New(serverName, serverType string) *Store {
	return NewWithCapacity(serverName, serverType, DefaultCapacity)
}

// NewWithCapacity creates a store with an explicit buffer capacity.
func NewWithCapacity(serverName, serverType string, capacity int) *Store {
	return &Store{
		serverName: serverName,
		serverType: serverType,
		sessionID:  id.NewSessionID().String(),
		buffer:     ring.New[types.LogEntry](capacity),
		echo:       zap.NewNop(),
		now:        time.Now,
	}
}

// SetEcho routes a copy of every entry to the given process logger.
func (s *Store) SetEcho(logger *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.echo = logger
	}
}

// ServerName returns the instrumented server's name.
func (s *Store) ServerName() string { return s.serverName }

// ServerType returns the instrumented server's type.
func (s *Store) ServerType() string { return s.serverType }

// SessionID returns the id generated at construction.
func (s *Store) SessionID() string { return s.sessionID }

// Log appends one structured entry and returns it.
func (s *Store) Log(level types.Level, message string, opts ...Option) types.LogEntry {
	entry := types.LogEntry{
		Timestamp:  s.now(),
		Level:      level,
		Message:    message,
		ServerName: s.serverName,
		ServerType: s.serverType,
		SessionID:  s.sessionID,
	}
	for _, opt := range opts {
		opt(&entry)
	}

	s.mu.Lock()
	evicted, wasFull := s.buffer.Push(entry)
	if isError(entry.Level) {
		s.errors++
	}
	if wasFull && isError(evicted.Level) {
		s.errors--
	}
	echo := s.echo
	s.mu.Unlock()

	echoEntry(echo, entry)
	return entry
}

// Debug logs at DEBUG level.
func (s *Store) Debug(message string, opts ...Option) types.LogEntry {
	return s.Log(types.LevelDebug, message, opts...)
}

// Info logs at INFO level.
func (s *Store) Info(message string, opts ...Option) types.LogEntry {
	return s.Log(types.LevelInfo, message, opts...)
}

// Warning logs at WARNING level.
func (s *Store) Warning(message string, opts ...Option) types.LogEntry {
	return s.Log(types.LevelWarning, message, opts...)
}

// Error logs at ERROR level.
func (s *Store) Error(message string, opts ...Option) types.LogEntry {
	return s.Log(types.LevelError, message, opts...)
}

// Critical logs at CRITICAL level.
func (s *Store) Critical(message string, opts ...Option) types.LogEntry {
	return s.Log(types.LevelCritical, message, opts...)
}

// Recent returns the most recent limit entries matching the filters, in
// chronological order. Empty filter values match everything.
func (s *Store) Recent(level types.Level, operation string, limit int) []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.LogEntry
	s.buffer.Each(func(e types.LogEntry) bool {
		if level != "" && e.Level != level {
			return true
		}
		if operation != "" && e.Operation != operation {
			return true
		}
		matched = append(matched, e)
		return true
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// SearchQuery filters entries in Search.
type SearchQuery struct {
	Query     string // case-insensitive message substring
	Level     types.Level
	Operation string
	Since     time.Time // zero means no cutoff
	Limit     int
}

// Search returns buffered entries matching the query, most recent limit
// matches in chronological order.
func (s *Store) Search(q SearchQuery) []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Query)
	var matched []types.LogEntry
	s.buffer.Each(func(e types.LogEntry) bool {
		if !q.Since.IsZero() && e.Timestamp.Before(q.Since) {
			return true
		}
		if q.Level != "" && e.Level != q.Level {
			return true
		}
		if q.Operation != "" && e.Operation != q.Operation {
			return true
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Message), needle) {
			return true
		}
		matched = append(matched, e)
		return true
	})

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[len(matched)-q.Limit:]
	}
	return matched
}

// Size returns the number of buffered entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Len()
}

// ErrorCount returns the number of buffered ERROR and CRITICAL entries.
func (s *Store) ErrorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors
}

// Snapshot copies the full buffer in insertion order.
func (s *Store) Snapshot() []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Snapshot()
}

func echoEntry(echo *zap.Logger, e types.LogEntry) {
	fields := []zap.Field{
		zap.String("server", e.ServerName),
		zap.String("session", e.SessionID),
	}
	if e.Operation != "" {
		fields = append(fields, zap.String("tool", e.Operation))
	}
	if e.DurationMS != nil {
		fields = append(fields, zap.Float64("duration_ms", *e.DurationMS))
	}

	switch e.Level {
	case types.LevelDebug:
		echo.Debug(e.Message, fields...)
	case types.LevelWarning:
		echo.Warn(e.Message, fields...)
	case types.LevelError, types.LevelCritical:
		echo.Error(e.Message, fields...)
	default:
		echo.Info(e.Message, fields...)
	}
}

func isError(l types.Level) bool {
	return l == types.LevelError || l == types.LevelCritical
}
