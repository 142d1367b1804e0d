package types

import "time"

// Level represents log severity
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Valid reports whether the level is one of the known severities
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return true
	}
	return false
}

// MetricKind represents the kind of a recorded metric
type MetricKind string

const (
	KindCounter   MetricKind = "counter"
	KindGauge     MetricKind = "gauge"
	KindHistogram MetricKind = "histogram"
	KindTimer     MetricKind = "timer"
)

// Valid reports whether the kind is one of the known metric kinds
func (k MetricKind) Valid() bool {
	switch k {
	case KindCounter, KindGauge, KindHistogram, KindTimer:
		return true
	}
	return false
}

// SpanStatus represents span and trace lifecycle states
type SpanStatus string

const (
	StatusStarted SpanStatus = "started"
	StatusSuccess SpanStatus = "success"
	StatusError   SpanStatus = "error"
	StatusWarning SpanStatus = "warning"
)

// Terminal reports whether the status is a terminal state
func (s SpanStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusWarning
}

// LogEntry is a single structured log record. Immutable once created;
// buffer ordering is insertion order.
type LogEntry struct {
	Timestamp    time.Time              `json:"timestamp"`
	Level        Level                  `json:"level"`
	Message      string                 `json:"message"`
	ServerName   string                 `json:"server_name"`
	ServerType   string                 `json:"server_type"`
	SessionID    string                 `json:"session_id"`
	Operation    string                 `json:"tool_name,omitempty"`
	UserID       string                 `json:"user_id,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	DurationMS   *float64               `json:"duration_ms,omitempty"`
	ErrorDetails map[string]interface{} `json:"error_details,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Metric is a single recorded measurement. Immutable once created.
type Metric struct {
	Name       string                 `json:"name"`
	Kind       MetricKind             `json:"type"`
	Value      float64                `json:"value"`
	Timestamp  time.Time              `json:"timestamp"`
	ServerName string                 `json:"server_name"`
	Operation  string                 `json:"tool_name,omitempty"`
	Tags       map[string]string      `json:"tags,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Span is a single timed unit of work within a trace. A span belongs to
// exactly one trace; an empty ParentSpanID marks a root span.
type Span struct {
	SpanID       string                   `json:"span_id"`
	TraceID      string                   `json:"trace_id"`
	ParentSpanID string                   `json:"parent_span_id,omitempty"`
	Name         string                   `json:"name"`
	ServerName   string                   `json:"server_name"`
	Operation    string                   `json:"tool_name"`
	StartTime    time.Time                `json:"start_time"`
	EndTime      *time.Time               `json:"end_time,omitempty"`
	DurationMS   float64                  `json:"duration_ms,omitempty"`
	Status       SpanStatus               `json:"status"`
	Tags         map[string]string        `json:"tags,omitempty"`
	Logs         []map[string]interface{} `json:"logs,omitempty"`
	ErrorDetails map[string]interface{}   `json:"error_details,omitempty"`
}

// Finished reports whether the span has been ended. DurationMS is only
// meaningful when this is true.
func (s Span) Finished() bool {
	return s.EndTime != nil
}

// Trace is a tree of spans sharing one root. Active from creation until
// explicitly ended.
type Trace struct {
	TraceID         string            `json:"trace_id"`
	RootSpanID      string            `json:"root_span_id"`
	Name            string            `json:"name"`
	ServerName      string            `json:"server_name"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         *time.Time        `json:"end_time,omitempty"`
	TotalDurationMS float64           `json:"total_duration_ms,omitempty"`
	Status          SpanStatus        `json:"status"`
	Tags            map[string]string `json:"tags,omitempty"`
	Spans           []Span            `json:"spans"`
}

// Finished reports whether the trace has been ended.
func (t Trace) Finished() bool {
	return t.EndTime != nil
}
