package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/models"
	"github.com/nprocess/compliance-api/internal/services"
	"github.com/nprocess/compliance-api/pkg/dto"
)

// QuotaLedger is the slice of QuotaService the quota middleware uses.
type QuotaLedger interface {
	CheckAndReserve(ctx context.Context, keyID uuid.UUID, quotas models.Quotas) *services.QuotaDecision
	Commit(ctx context.Context, keyID uuid.UUID, quotas models.Quotas)
}

// Quota enforces the key's per-window quotas. Bearer callers pass through;
// quotas are a property of API keys. The ledger itself fails open, so a
// store outage admits requests unmetered rather than rejecting them.
func Quota(ledger QuotaLedger) drift.HandlerFunc {
	return func(c *drift.Context) {
		authCtx := GetAuthContext(c)
		if authCtx == nil || !authCtx.IsAPIKey {
			c.Next()
			return
		}

		decision := ledger.CheckAndReserve(context.Background(), authCtx.KeyID, authCtx.Quotas)
		if !decision.Allowed {
			retryAfter := int(math.Ceil(time.Until(decision.ResetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Response.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			_ = c.JSON(429, dto.QuotaExceededResponse{
				Error:     "quota exceeded",
				QuotaType: decision.QuotaType,
				Limit:     decision.Limit,
				Current:   decision.Current,
				ResetAt:   decision.ResetAt.UTC().Format(time.RFC3339),
			})
			return
		}

		setQuotaHeaders(c, authCtx.Quotas, decision.Remaining)
		ledger.Commit(context.Background(), authCtx.KeyID, authCtx.Quotas)
		c.Next()
	}
}

func setQuotaHeaders(c *drift.Context, quotas models.Quotas, remaining map[string]int) {
	header := c.Response.Header()
	set := func(name string, limit *int, granularity string) {
		if limit == nil {
			return
		}
		header.Set("X-RateLimit-Limit-"+name, strconv.Itoa(*limit))
		if left, ok := remaining[granularity]; ok {
			header.Set("X-RateLimit-Remaining-"+name, strconv.Itoa(left))
		}
	}
	set("Minute", quotas.RequestsPerMinute, services.GranularityMinute)
	set("Day", quotas.RequestsPerDay, services.GranularityDay)
	set("Month", quotas.RequestsPerMonth, services.GranularityMonth)
}
