package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/AIsTushar/tookierx-budget-blueprint/internal/infra/observability"
)

func TestNewLogger_Levels(t *testing.T) {
	cases := []struct {
		level    string
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"verbose", zapcore.InfoLevel, zapcore.DebugLevel}, // unknown falls back to info
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger := observability.NewLogger(tc.level)
			defer logger.Sync()

			if !logger.Core().Enabled(tc.enabled) {
				t.Errorf("level %q should log at %v", tc.level, tc.enabled)
			}
			if logger.Core().Enabled(tc.disabled) {
				t.Errorf("level %q should not log at %v", tc.level, tc.disabled)
			}
		})
	}
}

func TestZapLoggerMiddleware_PassesThrough(t *testing.T) {
	logger := observability.NewLogger("error")
	defer logger.Sync()

	handler := observability.ZapLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/paychecks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
