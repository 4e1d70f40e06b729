package security

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/ratelimit"
)

type blockCounter struct{ blocks int }

func (b *blockCounter) IncrementRateLimitBlock() { b.blocks++ }

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, 200, config.MaxNameLength)
	assert.Equal(t, 120, config.MaxRequestsPerMin)
	assert.Equal(t, int64(1<<20), config.MaxBodyBytes)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
}

func TestValidateName(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)

	tests := []struct {
		name        string
		input       string
		expectError bool
		errorMsg    string
	}{
		{name: "valid area", input: "Provenance, Certification & Trust"},
		{name: "valid person with accents", input: "Zoë Müller"},
		{name: "empty", input: "", expectError: true, errorMsg: "value is required"},
		{name: "too long", input: strings.Repeat("a", 201), expectError: true, errorMsg: "exceeds maximum length"},
		{name: "null bytes", input: "Bob\x00", expectError: true, errorMsg: "invalid characters"},
		{name: "invalid UTF-8", input: "Bob\xff\xfe", expectError: true, errorMsg: "invalid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateName(tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		hsts bool
	}{
		{name: "without HSTS", hsts: false},
		{name: "with HSTS", hsts: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeadersMiddleware(tt.hsts))
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			headers := w.Header()
			assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
			assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
			assert.Equal(t, tt.hsts, headers.Get("Strict-Transport-Security") != "")
		})
	}
}

func TestCSPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(CSPMiddleware())
	r.GET("/", func(c *gin.Context) {
		seen = GetNonce(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	policy := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, policy, "'nonce-"+seen+"'")
	assert.Contains(t, policy, "default-src 'self'")

	w = httptest.NewRecorder()
	first := seen
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEqual(t, first, seen, "nonce must change per request")
}

func TestValidateContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig(), nil)

	r := gin.New()
	r.Use(sm.ValidateContentType)
	r.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name           string
		contentType    string
		body           string
		expectedStatus int
	}{
		{name: "valid JSON", contentType: "application/json", body: `{"impact":50}`, expectedStatus: http.StatusOK},
		{name: "JSON with charset", contentType: "application/json; charset=utf-8", body: `{}`, expectedStatus: http.StatusOK},
		{name: "plain text", contentType: "text/plain", body: "hello", expectedStatus: http.StatusUnsupportedMediaType},
		{name: "no content type", contentType: "", body: `{}`, expectedStatus: http.StatusOK},
		{name: "empty body is not checked", contentType: "text/plain", body: "", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config := DefaultSecurityConfig()
	config.MaxBodyBytes = 8
	sm := NewSecurityMiddleware(config, nil)

	r := gin.New()
	r.Use(sm.LimitBody)
	r.POST("/test", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":"too long for the limit"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := DefaultSecurityConfig()
	config.MaxRequestsPerMin = 10 // burst of 5
	counter := &blockCounter{}
	sm := NewSecurityMiddleware(config, counter)

	r := gin.New()
	r.Use(sm.RateLimitByIP)
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":12345"
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("192.168.1.100"), "request %d should use the burst", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, do("192.168.1.100"))
	assert.Equal(t, 1, counter.blocks)

	assert.Equal(t, http.StatusOK, do("192.168.1.101"), "other IPs have their own bucket")
	assert.Equal(t, 2, sm.TrackedIPs())
}

type fakeShared struct {
	remaining int
	err       error
	calls     int
}

func (f *fakeShared) Allow(_ context.Context, _ string) (*ratelimit.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.remaining == 0 {
		return &ratelimit.Result{Allowed: false, Limit: 2, RetryAfter: 1500 * time.Millisecond}, nil
	}
	f.remaining--
	return &ratelimit.Result{Allowed: true, Limit: 2, Remaining: f.remaining}, nil
}

func TestRateLimitByIP_SharedLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		shared      *fakeShared
		wantCodes   []int
		wantTracked int
	}{
		{
			name:        "shared budget decides",
			shared:      &fakeShared{remaining: 2},
			wantCodes:   []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests},
			wantTracked: 0,
		},
		{
			name:        "falls back to local limiter",
			shared:      &fakeShared{err: fmt.Errorf("connection refused")},
			wantCodes:   []int{http.StatusOK, http.StatusOK, http.StatusOK},
			wantTracked: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &blockCounter{}
			sm := NewSecurityMiddleware(DefaultSecurityConfig(), counter)
			sm.UseSharedLimiter(tt.shared)

			r := gin.New()
			r.Use(sm.RateLimitByIP)
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			var last *httptest.ResponseRecorder
			for i, want := range tt.wantCodes {
				last = httptest.NewRecorder()
				r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/test", nil))
				assert.Equal(t, want, last.Code, "request %d", i+1)
			}

			assert.Equal(t, len(tt.wantCodes), tt.shared.calls)
			assert.Equal(t, tt.wantTracked, sm.TrackedIPs())
			if last.Code == http.StatusTooManyRequests {
				assert.Equal(t, "2", last.Header().Get("Retry-After"))
				assert.Equal(t, 1, counter.blocks)
			}
		})
	}
}

func TestCleanupOldLimiters(t *testing.T) {
	config := DefaultSecurityConfig()
	config.LimiterIdleTTL = time.Minute
	sm := NewSecurityMiddleware(config, nil)

	sm.limiterFor("10.0.0.1")
	sm.limiterFor("10.0.0.2")
	sm.mu.Lock()
	sm.ipLimiters["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Minute)
	sm.mu.Unlock()

	sm.cleanupOldLimiters(time.Now())

	assert.Equal(t, 1, sm.TrackedIPs())
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := DefaultSecurityConfig()
	config.RequestTimeout = 5 * time.Millisecond
	sm := NewSecurityMiddleware(config, nil)

	r := gin.New()
	r.Use(sm.RequestTimeout)
	r.GET("/test", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.Status(http.StatusGatewayTimeout)
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-Timeout"))
}
