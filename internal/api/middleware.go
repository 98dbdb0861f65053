package api

import (
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/logger"
)

// limiterTTL is how long an idle client's bucket is kept.
const limiterTTL = time.Hour

// RequestLogger logs one line per request and puts the logger on the request
// context. Paths in skip are served without a log line.
func RequestLogger(log zerolog.Logger, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

		c.Next()

		if skipped[c.Request.URL.Path] {
			return
		}

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// RateLimit limits requests per client IP. Zero RPS disables it.
func RateLimit(rl config.RateLimitConfig) gin.HandlerFunc {
	if rl.RPS <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	lmt := tollbooth.NewLimiter(rl.RPS, &limiter.ExpirableOptions{
		DefaultExpirationTTL: limiterTTL,
	})
	if rl.Burst > 0 {
		lmt.SetBurst(rl.Burst)
	}
	return func(c *gin.Context) {
		httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request)
		if httpError != nil {
			c.AbortWithStatusJSON(httpError.StatusCode, gin.H{"error": httpError.Message})
			return
		}
		c.Next()
	}
}
