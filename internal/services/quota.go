package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nprocess/compliance-api/internal/database"
	"github.com/nprocess/compliance-api/internal/models"
)

const (
	GranularityMinute = "minute"
	GranularityDay    = "day"
	GranularityMonth  = "month"
)

// quotaTypeName maps a granularity to the quota field reported to callers.
var quotaTypeName = map[string]string{
	GranularityMinute: "requests_per_minute",
	GranularityDay:    "requests_per_day",
	GranularityMonth:  "requests_per_month",
}

// QuotaDecision is the outcome of CheckAndReserve. On rejection QuotaType,
// Limit, Current and ResetAt describe the first violated window in
// minute -> day -> month order.
type QuotaDecision struct {
	Allowed   bool
	QuotaType string
	Limit     int
	Current   int
	ResetAt   time.Time

	// Remaining holds the per-granularity headroom after this request, for
	// the X-RateLimit-Remaining-* response headers.
	Remaining map[string]int
}

// QuotaService tracks per-key usage in rolling minute/day/month windows.
// Windows reset lazily: a stored row whose window_start no longer matches
// the canonical one counts as zero. The ledger fails open; if the store is
// unreachable the request is admitted and the error logged.
type QuotaService struct {
	db  *database.DB
	now func() time.Time
}

func NewQuotaService(db *database.DB) *QuotaService {
	return &QuotaService{db: db, now: time.Now}
}

// WindowStart returns the canonical window start for t: floor to the minute,
// midnight UTC, or the first of the month UTC.
func WindowStart(granularity string, t time.Time) time.Time {
	t = t.UTC()
	switch granularity {
	case GranularityMinute:
		return t.Truncate(time.Minute)
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// WindowEnd returns the instant the window starting at start rolls over.
func WindowEnd(granularity string, start time.Time) time.Time {
	switch granularity {
	case GranularityMinute:
		return start.Add(time.Minute)
	case GranularityDay:
		return start.AddDate(0, 0, 1)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	}
	return start
}

type granularityLimit struct {
	granularity string
	limit       int
}

// configuredLimits returns the key's limits in most-granular-first order.
func configuredLimits(quotas models.Quotas) []granularityLimit {
	var limits []granularityLimit
	if quotas.RequestsPerMinute != nil {
		limits = append(limits, granularityLimit{GranularityMinute, *quotas.RequestsPerMinute})
	}
	if quotas.RequestsPerDay != nil {
		limits = append(limits, granularityLimit{GranularityDay, *quotas.RequestsPerDay})
	}
	if quotas.RequestsPerMonth != nil {
		limits = append(limits, granularityLimit{GranularityMonth, *quotas.RequestsPerMonth})
	}
	return limits
}

// CheckAndReserve decides whether one more request fits within every
// configured window. It never returns an error: store failures admit the
// request (fail-open, availability over strictness).
func (s *QuotaService) CheckAndReserve(ctx context.Context, keyID uuid.UUID, quotas models.Quotas) *QuotaDecision {
	limits := configuredLimits(quotas)
	if len(limits) == 0 {
		return &QuotaDecision{Allowed: true}
	}

	now := s.now()

	type window struct {
		start time.Time
		count int
	}
	stored := make(map[string]window)

	rows, err := s.db.Pool.Query(ctx, `
		SELECT granularity, window_start, count
		FROM quota_windows
		WHERE key_id = $1
	`, keyID)
	if err != nil {
		log.Printf("quota check failed for key %s, admitting request: %v", keyID, err)
		return &QuotaDecision{Allowed: true}
	}
	for rows.Next() {
		var g string
		var w window
		if err := rows.Scan(&g, &w.start, &w.count); err != nil {
			rows.Close()
			log.Printf("quota check failed for key %s, admitting request: %v", keyID, err)
			return &QuotaDecision{Allowed: true}
		}
		stored[g] = w
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Printf("quota check failed for key %s, admitting request: %v", keyID, err)
		return &QuotaDecision{Allowed: true}
	}

	decision := &QuotaDecision{Allowed: true, Remaining: make(map[string]int)}
	for _, gl := range limits {
		canonical := WindowStart(gl.granularity, now)

		current := 0
		if w, ok := stored[gl.granularity]; ok && w.start.Equal(canonical) {
			current = w.count
		}

		if current >= gl.limit {
			return &QuotaDecision{
				Allowed:   false,
				QuotaType: quotaTypeName[gl.granularity],
				Limit:     gl.limit,
				Current:   current,
				ResetAt:   WindowEnd(gl.granularity, canonical),
			}
		}

		remaining := gl.limit - current - 1
		if remaining < 0 {
			remaining = 0
		}
		decision.Remaining[gl.granularity] = remaining
	}

	return decision
}

// Commit records one admitted request. Each configured window is bumped with
// a single conflict-upsert that resets stale windows and increments live
// ones in the same statement, so concurrent commits for one key never lose
// updates. Failures are logged and swallowed; increments are not refunded.
func (s *QuotaService) Commit(ctx context.Context, keyID uuid.UUID, quotas models.Quotas) {
	now := s.now()

	for _, gl := range configuredLimits(quotas) {
		canonical := WindowStart(gl.granularity, now)
		if _, err := s.db.Pool.Exec(ctx, `
			INSERT INTO quota_windows (key_id, granularity, window_start, count)
			VALUES ($1, $2, $3, 1)
			ON CONFLICT (key_id, granularity) DO UPDATE
			SET count = CASE
					WHEN quota_windows.window_start = EXCLUDED.window_start THEN quota_windows.count + 1
					ELSE 1
				END,
				window_start = EXCLUDED.window_start
		`, keyID, gl.granularity, canonical); err != nil {
			log.Printf("quota commit failed for key %s granularity %s: %v", keyID, gl.granularity, err)
		}
	}

	if _, err := s.db.Pool.Exec(ctx, `
		UPDATE api_keys SET total_requests = total_requests + 1 WHERE id = $1
	`, keyID); err != nil {
		log.Printf("total_requests update failed for key %s: %v", keyID, err)
	}
}
