package adminapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORSConfig mirrors pkg/api/middleware.go's cors settings.
type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAgeSeconds    int
}

// RateLimitConfig mirrors pkg/api/middleware.go's per-IP rate limit settings.
type RateLimitConfig struct {
	Enabled     bool
	RequestsPer int
	Duration    time.Duration
	BurstSize   int
}

// loggingMiddleware emits one structured log line per request. Grounded on
// pkg/api/middleware.go's loggingMiddleware (gin.LoggerWithFormatter).
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		s.logger.Info("http request",
			"method", p.Method,
			"path", p.Path,
			"status", p.StatusCode,
			"latency", p.Latency,
			"ip", p.ClientIP,
		)
		return ""
	})
}

// corsMiddleware applies the configured CORS policy, or a no-op pass-through
// when CORS is disabled.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	if !s.cors.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	cfg := cors.Config{
		AllowOrigins:     s.cors.AllowedOrigins,
		AllowMethods:     s.cors.AllowedMethods,
		AllowHeaders:     s.cors.AllowedHeaders,
		AllowCredentials: s.cors.AllowCredentials,
		MaxAge:           time.Duration(s.cors.MaxAgeSeconds) * time.Second,
	}
	if len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowOrigins = nil
	}
	return cors.New(cfg)
}

// securityMiddleware sets baseline security headers. Grounded on
// pkg/api/middleware.go's securityMiddleware.
func (s *Server) securityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Server", "dynaclusterd")
		c.Next()
	}
}

// rateLimiterByIP is the per-IP limiter map from pkg/api/middleware.go's
// rateLimitMiddleware, made safe for concurrent gin handler goroutines with
// its own mutex (the teacher's map is unsynchronized, a bug this adaptation
// fixes rather than repeats).
type rateLimiterByIP struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      RateLimitConfig
}

func (r *rateLimiterByIP) allow(ip string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.RequestsPer)/rate.Limit(r.cfg.Duration.Seconds()), r.cfg.BurstSize)
		r.limiters[ip] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// rateLimitMiddleware rejects requests beyond the configured per-IP rate.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	limiter := &rateLimiterByIP{limiters: make(map[string]*rate.Limiter), cfg: s.rateLimit}
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"retry_after": int(s.rateLimit.Duration.Seconds()),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// jwtAuthMiddleware requires a valid bearer token carrying permission, and
// stashes its claims on the gin context. Grounded on pkg/auth/jwt.go's
// JWTAuthMiddleware usage in pkg/api/server.go.
func (s *Server) jwtAuthMiddleware(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_bearer_token"})
			c.Abort()
			return
		}
		claims, err := s.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "message": err.Error()})
			c.Abort()
			return
		}
		if permission != "" && !claims.HasPermission(permission) {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient_permission"})
			c.Abort()
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}
