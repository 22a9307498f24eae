package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name   string
		h      http.HandlerFunc
		status int
		size   int64
	}{
		{
			name: "explicit status",
			h: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("short"))
			},
			status: http.StatusTeapot,
			size:   5,
		},
		{
			name: "implicit ok",
			h: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("body"))
			},
			status: http.StatusOK,
			size:   4,
		},
		{
			name:   "no body",
			h:      func(w http.ResponseWriter, r *http.Request) {},
			status: http.StatusOK,
			size:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			h := Logger(zap.New(core))(tt.h)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard?days=7", nil))

			assert.Equal(t, tt.status, rec.Code)
			require.Equal(t, 1, logs.Len())

			fields := logs.All()[0].ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/api/admin/dashboard?days=7", fields["uri"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, tt.size, fields["size"])
		})
	}
}
