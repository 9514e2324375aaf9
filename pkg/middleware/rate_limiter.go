package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// Middleware is the middleware for gin.
type Middleware struct {
	Limiter *limiter.Limiter
}

// RateLimiter limits requests per client IP.
func RateLimiter(limiter *limiter.Limiter) gin.HandlerFunc {
	middleware := &Middleware{
		Limiter: limiter,
	}

	return func(ctx *gin.Context) {
		middleware.Handle(ctx)
	}
}

// Handle gin request.
func (middleware *Middleware) Handle(c *gin.Context) {
	key := c.ClientIP()
	context, err := middleware.Limiter.Get(c, key)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

	if context.Reached {
		middleware.HandleLimitReached(c)
		return
	}

	c.Next()
}

func (middleware *Middleware) HandleLimitReached(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":  "Too Many Requests",
		"reason": "TOO_MANY_REQUESTS",
	})
}
