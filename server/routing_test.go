package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	first := ts.get("/home").Header().Get(RequestIDHeader)
	second := ts.get("/health").Header().Get(RequestIDHeader)

	_, err := uuid.Parse(first)
	require.NoError(t, err)
	_, err = uuid.Parse(second)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRouteLabels(t *testing.T) {
	ts := newTestServer(t)
	ts.get("/comp/server-uptime")
	ts.get("/definitely/not/here")
	ts.get("/static/missing.css")
	ts.get("/health")

	body := ts.get("/metrics").Body.String()
	assert.Contains(t, body, `route="GET /comp/server-uptime",status="200"`)
	assert.Contains(t, body, `route="/",status="404"`, "unknown paths share one label")
	assert.Contains(t, body, `route="GET /static/{path...}",status="404"`)
	assert.Contains(t, body, `route="GET /health",status="200"`)
	assert.NotContains(t, body, "definitely")
}

func TestResponseRecorder(t *testing.T) {
	t.Run("implicit 200", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rr := &responseRecorder{ResponseWriter: rec, statusCode: http.StatusOK}
		rr.Write([]byte("hi"))

		assert.True(t, rr.wroteHeader)
		assert.Equal(t, http.StatusOK, rr.statusCode)
		assert.Equal(t, "hi", rec.Body.String())
	})

	t.Run("first status wins", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rr := &responseRecorder{ResponseWriter: rec, statusCode: http.StatusOK}
		rr.WriteHeader(http.StatusTeapot)
		rr.WriteHeader(http.StatusInternalServerError)

		assert.Equal(t, http.StatusTeapot, rr.statusCode)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("unwrap", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rr := &responseRecorder{ResponseWriter: rec}
		assert.Same(t, rec, rr.Unwrap())
	})
}
