package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/ratelimit"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxNameLength     int           `json:"max_name_length"`
	MaxBodyBytes      int64         `json:"max_body_bytes"`
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	LimiterIdleTTL    time.Duration `json:"limiter_idle_ttl"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxNameLength:     200,
		MaxBodyBytes:      1 << 20,
		MaxRequestsPerMin: 120,
		RequestTimeout:    30 * time.Second,
		LimiterIdleTTL:    time.Hour,
	}
}

// BlockRecorder is notified whenever a request is rate limited
type BlockRecorder interface {
	IncrementRateLimitBlock()
}

// SharedLimiter is a rate limit store shared by every server instance.
// *ratelimit.Limiter satisfies it.
type SharedLimiter interface {
	Allow(ctx context.Context, key string) (*ratelimit.Result, error)
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware bundles per-IP rate limiting, request limits and input
// checks for the dashboard API
type SecurityMiddleware struct {
	config   SecurityConfig
	recorder BlockRecorder
	shared   SharedLimiter

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig, recorder BlockRecorder) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:     config,
		recorder:   recorder,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

// ValidateName checks a person, area or feature name coming from a client
func (sm *SecurityMiddleware) ValidateName(input string) error {
	if input == "" {
		return fmt.Errorf("value is required")
	}
	if len(input) > sm.config.MaxNameLength {
		return fmt.Errorf("value exceeds maximum length of %d characters", sm.config.MaxNameLength)
	}
	if strings.Contains(input, "\x00") {
		return fmt.Errorf("value contains invalid characters")
	}
	if !utf8.ValidString(input) {
		return fmt.Errorf("value contains invalid UTF-8 encoding")
	}
	return nil
}

// UseSharedLimiter makes RateLimitByIP consult l first. The local limiters
// still answer whenever l fails.
func (sm *SecurityMiddleware) UseSharedLimiter(l SharedLimiter) {
	sm.shared = l
}

func (sm *SecurityMiddleware) limiterFor(ip string) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, exists := sm.ipLimiters[ip]
	if !exists {
		rps := rate.Limit(float64(sm.config.MaxRequestsPerMin) / 60.0)
		// half a minute's allowance up front, never less than 5
		burst := sm.config.MaxRequestsPerMin / 2
		if burst < 5 {
			burst = 5
		}
		entry = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
		sm.ipLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	ip := c.ClientIP()

	if sm.shared != nil {
		res, err := sm.shared.Allow(c.Request.Context(), ip)
		if err == nil {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				sm.reject(c, res.RetryAfter)
				return
			}
			c.Next()
			return
		}
		slog.Warn("Shared rate limit check failed, using local limiter", "ip", ip, "error", err)
	}

	if !sm.limiterFor(ip).Allow() {
		sm.reject(c, time.Minute)
		return
	}

	c.Next()
}

func (sm *SecurityMiddleware) reject(c *gin.Context, retryAfter time.Duration) {
	if sm.recorder != nil {
		sm.recorder.IncrementRateLimitBlock()
	}
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	appErr := errors.NewRateLimitError(strconv.Itoa(seconds))
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Body())
}

// ValidateContentType rejects request bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.ContentLength == 0 {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "application/json") {
		appErr := errors.NewValidationError("unsupported content type", contentType)
		appErr.HTTPStatus = http.StatusUnsupportedMediaType
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Body())
		return
	}

	c.Next()
}

// LimitBody caps the size of request bodies
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if sm.config.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// Cleanup drops limiters for IPs not seen within LimiterIdleTTL until ctx is
// cancelled
func (sm *SecurityMiddleware) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sm.cleanupOldLimiters(now)
		}
	}
}

func (sm *SecurityMiddleware) cleanupOldLimiters(now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ip, entry := range sm.ipLimiters {
		if now.Sub(entry.lastSeen) > sm.config.LimiterIdleTTL {
			delete(sm.ipLimiters, ip)
		}
	}
}

// TrackedIPs reports how many client IPs currently hold a limiter
func (sm *SecurityMiddleware) TrackedIPs() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.ipLimiters)
}
