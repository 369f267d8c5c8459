package handlers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/middleware"
	"github.com/nprocess/compliance-api/internal/models"
)

type StandardHandler struct {
	standardService StandardServiceInterface
}

func NewStandardHandler(standardService StandardServiceInterface) *StandardHandler {
	return &StandardHandler{standardService: standardService}
}

// List returns the resolved tenant's standards plus the marketplace catalog,
// filtered down to the key's allowed-standards restriction when one is set.
func (h *StandardHandler) List(c *drift.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		c.Unauthorized("missing credential")
		return
	}

	standards, err := h.standardService.ListForTenant(context.Background(), authCtx.TenantID)
	if err != nil {
		c.InternalServerError("failed to list standards")
		return
	}

	visible := make([]models.Standard, 0, len(standards))
	for _, st := range standards {
		if authCtx.IsAPIKey && !authCtx.AllowedStandards.Permits(st.Source, st.ID.String()) {
			continue
		}
		visible = append(visible, st)
	}

	_ = c.JSON(200, visible)
}

// Get enforces tenant isolation: a standard outside the resolved tenant is
// reported as not found, never as forbidden, so existence does not leak
// across tenants.
func (h *StandardHandler) Get(c *drift.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		c.Unauthorized("missing credential")
		return
	}

	standardID, err := uuid.Parse(c.Param("standardId"))
	if err != nil {
		c.BadRequest("invalid standard id")
		return
	}

	standard, err := h.standardService.GetByID(context.Background(), standardID)
	if err != nil {
		c.NotFound("standard not found")
		return
	}

	marketplace := standard.Source == models.StandardSourceMarketplace && standard.TenantID == models.TenantSystem
	if standard.TenantID != authCtx.TenantID && !marketplace {
		c.NotFound("standard not found")
		return
	}

	if authCtx.IsAPIKey && !authCtx.AllowedStandards.Permits(standard.Source, standard.ID.String()) {
		c.Forbidden("standard not permitted for this api key")
		return
	}

	_ = c.JSON(200, standard)
}

func (h *StandardHandler) Create(c *drift.Context) {
	authCtx := middleware.GetAuthContext(c)
	if authCtx == nil {
		c.Unauthorized("missing credential")
		return
	}

	var req struct {
		Name   string `json:"name"`
		Source string `json:"source"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.BadRequest("name is required")
		return
	}

	source := req.Source
	if source == "" {
		source = models.StandardSourceCustom
	}
	if source == models.StandardSourceMarketplace && authCtx.TenantID != models.TenantSystem {
		c.Forbidden("only the system tenant can publish marketplace standards")
		return
	}
	if source != models.StandardSourceMarketplace && source != models.StandardSourceCustom {
		c.BadRequest("invalid source")
		return
	}

	standard, err := h.standardService.Create(context.Background(), authCtx.TenantID, req.Name, source)
	if err != nil {
		c.InternalServerError("failed to create standard")
		return
	}

	_ = c.JSON(201, standard)
}
