package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedEcho(buf *bytes.Buffer) *echo.Echo {
	e := echo.New()
	e.Use(RequestLogger(NewLogger(buf, false)))
	e.GET("/ok", func(c echo.Context) error {
		reqCtx, ok := FromContext(c.Request().Context())
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		reqCtx.SessionID = "s-1"
		return c.String(http.StatusOK, reqCtx.RequestID)
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})
	return e
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &record))
	return record
}

func TestRequestLogger_ReusesInboundID(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedEcho(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(echo.HeaderXRequestID, "inbound-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inbound-7", rec.Body.String())
	assert.Equal(t, "inbound-7", rec.Header().Get(echo.HeaderXRequestID))
	// Debug records are dropped by the prod logger.
	assert.Empty(t, buf.String())
}

func TestRequestLogger_GeneratesIDAndLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedEcho(&buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.NotEmpty(t, id)

	record := lastRecord(t, &buf)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "request completed", record["msg"])
	assert.Equal(t, id, record[LogFieldRequestID])
	assert.Equal(t, float64(http.StatusNotFound), record["status"])
	assert.Equal(t, "/missing", record["path"])
}
