package dto

// QuotaExceededResponse is the 429 body for quota rejections. QuotaType
// identifies the first violated window in minute -> day -> month order.
type QuotaExceededResponse struct {
	Error     string `json:"error"`
	QuotaType string `json:"quota_type"`
	Limit     int    `json:"limit"`
	Current   int    `json:"current"`
	ResetAt   string `json:"reset_at"`
}

// RateLimitedResponse is the 429 body for token-bucket rejections.
type RateLimitedResponse struct {
	Error      string  `json:"error"`
	RetryAfter float64 `json:"retry_after_seconds"`
}
