package observability

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldSessionID is the field name for the caller-supplied session ID.
	LogFieldSessionID = "session_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldMessageLen is the field name for message length.
	LogFieldMessageLen = "message_length"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
	// LogFieldProvider is the field name for the generative backend name.
	LogFieldProvider = "provider"
	// LogFieldTurns is the field name for the session turn count.
	LogFieldTurns = "turns"
	// LogFieldScore is the field name for the scam score.
	LogFieldScore = "scam_score"
)

// NewLogger builds the process logger: text output in dev, JSON in prod.
func NewLogger(w io.Writer, dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// RequestContext represents the context for a single request with structured logging.
type RequestContext struct {
	RequestID string
	SessionID string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, sessionID string) *RequestContext {
	return NewRequestContextWithID(logger, generateRequestID(), sessionID)
}

// NewRequestContextWithID creates a new request context with a specific request ID.
func NewRequestContextWithID(logger *slog.Logger, requestID, sessionID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: requestID,
		SessionID: sessionID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithFields returns a logger that stamps the request and session IDs on every record.
func (r *RequestContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	args := make([]any, 0, 2+len(attrs))
	for _, attr := range r.baseAttrsAppended(attrs...) {
		args = append(args, attr)
	}
	return r.Logger.With(args...)
}

func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelInfo, msg, attrs)
}

func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelDebug, msg, attrs)
}

func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelWarn, msg, attrs)
}

// Error logs msg at error level with err attached.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	r.log(slog.LevelError, msg, append(attrs, slog.String("error", err.Error())))
}

func (r *RequestContext) log(level slog.Level, msg string, attrs []slog.Attr) {
	r.Logger.LogAttrs(context.Background(), level, msg, r.baseAttrsAppended(attrs...)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldSessionID, r.SessionID),
	}
}

func (r *RequestContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	return append(r.baseAttrs(), attrs...)
}

func generateRequestID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}

// LoggerFromContext returns the request-scoped logger, or the default logger
// when the context carries none.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if reqCtx, ok := FromContext(ctx); ok {
		return reqCtx.WithFields()
	}
	return slog.Default()
}
