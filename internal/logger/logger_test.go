package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	assert.Error(t, Init("loud"))
	require.NoError(t, Init("warn"))
	assert.False(t, Log.Desugar().Core().Enabled(zap.InfoLevel))
	assert.True(t, Log.Desugar().Core().Enabled(zap.WarnLevel))
}

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	type tTestCase struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int64
		wantBytes  int64
	}
	testCases := []tTestCase{
		{
			name: "implicit ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("hello"))
			},
			wantStatus: http.StatusOK,
			wantBytes:  5,
		},
		{
			name: "explicit status without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "nothing written",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			previous := Log
			Log = zap.New(core).Sugar()
			t.Cleanup(func() { Log = previous })

			rec := httptest.NewRecorder()
			WithLoggingHTTPMiddleware(testCase.handler).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookmarks?x=1", nil))

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "request served", entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/bookmarks", fields["path"])
			assert.Equal(t, testCase.wantStatus, fields["status"])
			assert.Equal(t, testCase.wantBytes, fields["bytes"])
			assert.Contains(t, fields, "elapsed")
			assert.Contains(t, fields, "request_id")
		})
	}
}
