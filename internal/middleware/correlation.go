package middleware

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// Correlation propagates the caller's X-Correlation-ID, generating one when
// absent, and echoes it on the response for tracing.
func Correlation() drift.HandlerFunc {
	return func(c *drift.Context) {
		id := c.GetHeader(HeaderCorrelationID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(CorrelationIDKey, id)
		c.Response.Header().Set(HeaderCorrelationID, id)
		c.Next()
	}
}
