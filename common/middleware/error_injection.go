package middleware

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ModeNormal      = "normal"
	ModeRateLimit   = "rate_limit"
	ModeServerError = "server_error"
)

// InjectErrorRequest is the payload for configuring error injection
type InjectErrorRequest struct {
	Mode            string  `json:"mode" binding:"required,oneof=normal rate_limit server_error"`
	RateLimitAfter  int     `json:"rate_limit_after,omitempty"`
	ServerErrorRate float64 `json:"server_error_rate,omitempty"`
	RetryAfterSecs  int     `json:"retry_after_secs,omitempty"`
}

// InjectionStatus is a snapshot of the injector's configuration.
type InjectionStatus struct {
	Mode            string  `json:"mode"`
	RateLimitAfter  int     `json:"rate_limit_after"`
	ServerErrorRate float64 `json:"server_error_rate"`
	RetryAfterSecs  int     `json:"retry_after_secs"`
	RequestCount    int64   `json:"request_count"`
}

// ErrorInjector makes the API fail on demand so clients' best-effort paths can
// be exercised against a live server.
type ErrorInjector struct {
	mu     sync.Mutex
	status InjectionStatus
	roll   func() float64
	log    *zap.Logger
}

func NewErrorInjector(log *zap.Logger) *ErrorInjector {
	e := &ErrorInjector{roll: rand.Float64, log: log}
	e.Reset()
	return e
}

func (e *ErrorInjector) Status() InjectionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *ErrorInjector) Configure(req InjectErrorRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status.Mode = req.Mode
	if req.RateLimitAfter > 0 {
		e.status.RateLimitAfter = req.RateLimitAfter
	}
	if req.ServerErrorRate >= 0 && req.ServerErrorRate <= 1 {
		e.status.ServerErrorRate = req.ServerErrorRate
	}
	if req.RetryAfterSecs > 0 {
		e.status.RetryAfterSecs = req.RetryAfterSecs
	}
	e.status.RequestCount = 0
	e.log.Info("error injection configured",
		zap.String("mode", e.status.Mode),
		zap.Int("rate_limit_after", e.status.RateLimitAfter),
		zap.Float64("server_error_rate", e.status.ServerErrorRate),
	)
}

func (e *ErrorInjector) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = InjectionStatus{Mode: ModeNormal, RateLimitAfter: 5, RetryAfterSecs: 5}
}

// Middleware applies the current mode to every route outside /admin and /health.
func (e *ErrorInjector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/admin") || path == "/health" {
			c.Next()
			return
		}

		e.mu.Lock()
		st := e.status
		if st.Mode == ModeRateLimit {
			e.status.RequestCount++
			st.RequestCount = e.status.RequestCount
		}
		e.mu.Unlock()

		switch st.Mode {
		case ModeRateLimit:
			if st.RequestCount > int64(st.RateLimitAfter) {
				c.Header("Retry-After", strconv.Itoa(st.RetryAfterSecs))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"message":        "Rate limit exceeded",
					"code":           "RATE_LIMIT_EXCEEDED",
					"requests_made":  st.RequestCount,
					"requests_limit": st.RateLimitAfter,
				})
				return
			}
		case ModeServerError:
			if e.roll() < st.ServerErrorRate {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message":    "Internal server error (simulated)",
					"code":       "INTERNAL_SERVER_ERROR",
					"error_rate": fmt.Sprintf("%.0f%%", st.ServerErrorRate*100),
				})
				return
			}
		}
		c.Next()
	}
}

// InjectErrorHandler handles POST /admin/inject-error
func (e *ErrorInjector) InjectErrorHandler(c *gin.Context) {
	var req InjectErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid mode. Use: normal, rate_limit, or server_error"})
		return
	}
	e.Configure(req)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Error injection mode set to '%s'", req.Mode),
		"config":  e.Status(),
	})
}

// StatusHandler handles GET /admin/status
func (e *ErrorInjector) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, e.Status())
}

// ResetHandler handles POST /admin/reset
func (e *ErrorInjector) ResetHandler(c *gin.Context) {
	e.Reset()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Error injection reset to normal mode",
		"config":  e.Status(),
	})
}
