package middleware

import (
	"math"
	"net"
	"strconv"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/ratelimit"
	"github.com/nprocess/compliance-api/pkg/dto"
)

// RateLimit enforces token-bucket admission per caller identity. It runs
// after Authenticate so authenticated callers are bucketed by credential,
// not by address.
func RateLimit(limiter *ratelimit.Limiter) drift.HandlerFunc {
	return func(c *drift.Context) {
		decision := limiter.Consume(callerIdentity(c), 1)
		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			header := c.Response.Header()
			header.Set("Retry-After", strconv.Itoa(retryAfter))
			header.Set("X-RateLimit-Limit", strconv.Itoa(int(limiter.MaxTokens())))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(int(decision.Remaining)))
			_ = c.JSON(429, dto.RateLimitedResponse{
				Error:      "rate limit exceeded",
				RetryAfter: decision.RetryAfter.Seconds(),
			})
			return
		}
		c.Next()
	}
}

// callerIdentity derives the bucket key: truncated API key, then user id,
// then source IP (first X-Forwarded-For entry, else socket address). The key
// prefix, never the full key, keeps bucket keys and logs bounded.
func callerIdentity(c *drift.Context) string {
	if authCtx := GetAuthContext(c); authCtx != nil {
		if authCtx.IsAPIKey {
			return "key:" + authCtx.Identity
		}
		return "user:" + authCtx.Identity
	}

	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return "ip:" + first
		}
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return "ip:" + host
}
