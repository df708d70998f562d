package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_LogsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)

	reqCtx := NewRequestContextWithID(logger, "req-1", "session-42")
	reqCtx.Info("reply generated", slog.String(LogFieldProvider, "groq"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record[LogFieldRequestID])
	assert.Equal(t, "session-42", record[LogFieldSessionID])
	assert.Equal(t, "groq", record[LogFieldProvider])
	assert.Equal(t, "reply generated", record["msg"])
}

func TestRequestContext_GeneratesID(t *testing.T) {
	a := NewRequestContext(nil, "s")
	b := NewRequestContext(nil, "s")
	assert.NotEmpty(t, a.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.NotNil(t, LoggerFromContext(ctx))

	reqCtx := NewRequestContext(nil, "s")
	ctx = WithRequestContext(ctx, reqCtx)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, reqCtx, got)
}
