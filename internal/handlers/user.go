package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"

	"github.com/nprocess/compliance-api/internal/models"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// Approve activates a pending account with an org and role assignment.
func (h *UserHandler) Approve(c *drift.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	var req struct {
		OrgID string `json:"org_id"`
		Role  string `json:"role"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.OrgID == "" {
		c.BadRequest("org_id is required")
		return
	}
	switch req.Role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleDeveloper, models.RoleGuest:
	default:
		c.BadRequest("invalid role")
		return
	}

	user, err := h.userService.Approve(context.Background(), userID, req.OrgID, req.Role)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, user)
}
