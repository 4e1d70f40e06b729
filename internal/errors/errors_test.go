package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		message  string
	}{
		{
			name:     "validation",
			err:      NewValidationError("unknown filter kind", "size"),
			category: CategoryValidation,
			status:   http.StatusBadRequest,
			message:  "[VALIDATION_ERROR] unknown filter kind",
		},
		{
			name:     "network",
			err:      NewNetworkError("connection failed", fmt.Errorf("connection refused")),
			category: CategoryNetwork,
			status:   http.StatusBadGateway,
			message:  "[NETWORK_ERROR] connection failed",
		},
		{
			name:     "load",
			err:      NewLoadError("data/output.json", fmt.Errorf("no such file")),
			category: CategoryLoad,
			status:   http.StatusServiceUnavailable,
			message:  "[LOAD_ERROR] failed to load dataset from data/output.json",
		},
		{
			name:     "not found",
			err:      NewNotFoundError("feature", "Wine Cellar App"),
			category: CategoryNotFound,
			status:   http.StatusNotFound,
			message:  `[NOT_FOUND] feature "Wine Cellar App" not found`,
		},
		{
			name:     "configuration",
			err:      NewConfigurationError("DATA_URL is required", nil),
			category: CategoryConfiguration,
			status:   http.StatusInternalServerError,
			message:  "[CONFIGURATION_ERROR] Configuration error",
		},
		{
			name:     "rate limit",
			err:      NewRateLimitError("60"),
			category: CategoryRateLimit,
			status:   http.StatusTooManyRequests,
			message:  "[RATE_LIMIT_EXCEEDED] Rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.message, tt.err.Error())
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestNewAppError_CustomBuilder(t *testing.T) {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Custom error message")

	err := NewAppError(builder, CategoryValidation, http.StatusBadRequest)

	assert.Equal(t, "Custom error message", err.Msg)
	assert.NotNil(t, NewValidationErrorWithMap(map[string]string{"impact": "must be >= 0"}))
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{name: "already app error", err: NewValidationError("bad"), category: CategoryValidation},
		{name: "wrapped app error", err: fmt.Errorf("reload: %w", NewLoadError("db", nil)), category: CategoryLoad},
		{name: "connection refused", err: fmt.Errorf("dial tcp: connection refused"), category: CategoryNetwork},
		{name: "deadline", err: context.DeadlineExceeded, category: CategoryTimeout},
		{name: "canceled", err: context.Canceled, category: CategoryTimeout},
		{name: "anything else", err: fmt.Errorf("boom"), category: CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, ToAppError(tt.err).Category)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestRetryPolicy(t *testing.T) {
	network := NewNetworkError("connection failed", nil)

	assert.True(t, IsRetryableError(network))
	assert.True(t, IsRetryableError(NewLoadError("http", nil)))
	assert.False(t, IsRetryableError(NewValidationError("bad")))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored"))

	cause := fmt.Errorf("disk full")
	err := WrapError(cause, "import %s", "evaluations.db")
	assert.EqualError(t, err, "import evaluations.db: disk full")
	assert.ErrorIs(t, err, cause)
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(NewNotFoundError("feature", "Nope"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"not_found"`)

	recovering := gin.New()
	recovering.Use(RecoveryHandler())
	recovering.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w = httptest.NewRecorder()
	recovering.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
