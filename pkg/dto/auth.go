package dto

type ExchangeCodeRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type WhoamiResponse struct {
	Identity string `json:"identity"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	IsAPIKey bool   `json:"is_api_key"`
}
