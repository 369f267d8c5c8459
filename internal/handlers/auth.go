package handlers

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/config"
	"github.com/nprocess/compliance-api/internal/middleware"
	"github.com/nprocess/compliance-api/internal/oauth"
	"github.com/nprocess/compliance-api/pkg/dto"
)

type AuthHandler struct {
	cfg         *config.Config
	userService UserServiceInterface
	tokens      TokenIssuer
	google      *oauth.GoogleProvider
	states      sync.Map
}

type stateData struct {
	expiresAt time.Time
}

func NewAuthHandler(cfg *config.Config, userService UserServiceInterface, tokens TokenIssuer) *AuthHandler {
	h := &AuthHandler{
		cfg:         cfg,
		userService: userService,
		tokens:      tokens,
		google:      oauth.NewGoogleProvider(cfg.Google),
	}

	go h.cleanupStates()

	return h
}

// cleanupStates drops abandoned states; consumed ones are removed by
// LoadAndDelete in Callback.
func (h *AuthHandler) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		now := time.Now()
		h.states.Range(func(key, value interface{}) bool {
			if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
				h.states.Delete(key)
			}
			return true
		})
	}
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	if !h.google.IsConfigured() {
		c.InternalServerError("google oauth is not configured")
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	h.states.Store(state, stateData{expiresAt: time.Now().Add(10 * time.Minute)})

	_ = c.JSON(200, map[string]string{
		"url":   h.google.GetConsentURL(state),
		"state": state,
	})
}

// Callback checks the state against the ones this instance issued, then
// bounces the provider's code to the admin console, which finishes the flow
// through POST /auth/exchange.
func (h *AuthHandler) Callback(c *drift.Context) {
	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.redirectWithError(c, "invalid or expired state")
		return
	}
	if sdTyped, ok := sd.(stateData); !ok || time.Now().After(sdTyped.expiresAt) {
		h.redirectWithError(c, "state expired")
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	redirect := h.cfg.FrontendCallbackURL +
		"?code=" + url.QueryEscape(code) +
		"&state=" + url.QueryEscape(state)
	http.Redirect(c.Response, c.Request, redirect, http.StatusFound)
	c.Abort()
}

func (h *AuthHandler) redirectWithError(c *drift.Context, errMsg string) {
	redirect := h.cfg.FrontendCallbackURL + "?error=" + url.QueryEscape(errMsg)
	http.Redirect(c.Response, c.Request, redirect, http.StatusFound)
	c.Abort()
}

// ExchangeCode trades a Google authorization code for a platform token whose
// claims come from the stored user record. First sign-in creates the user as
// guest/pending; the issued token authenticates but authorizes nothing until
// an operator approves the account.
func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil || req.Code == "" {
		c.BadRequest("code is required")
		return
	}
	if req.Provider != "" && req.Provider != h.google.Name() {
		c.BadRequest("unsupported provider")
		return
	}

	info, err := h.google.ExchangeCode(context.Background(), req.Code)
	if err != nil {
		c.Unauthorized("failed to exchange authorization code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(context.Background(), info)
	if err != nil {
		c.InternalServerError("failed to resolve user")
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(user)
	if err != nil {
		c.InternalServerError("failed to issue token")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{Token: token, ExpiresIn: expiresIn})
}

// Whoami echoes the resolved identity, useful for integration checks and
// client debugging.
func (h *AuthHandler) Whoami(c *drift.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		c.Unauthorized("missing credential")
		return
	}

	_ = c.JSON(200, dto.WhoamiResponse{
		Identity: authCtx.Identity,
		TenantID: authCtx.TenantID,
		Role:     authCtx.Role,
		Status:   authCtx.Status,
		IsAPIKey: authCtx.IsAPIKey,
	})
}
