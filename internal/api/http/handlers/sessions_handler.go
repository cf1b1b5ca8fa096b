package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jwt-builder/internal/api/dto"
	"github.com/spec-kit/jwt-builder/internal/service"
	"github.com/spec-kit/jwt-builder/internal/session"
)

// SessionsHandler exposes the interactive builder form.
type SessionsHandler struct {
	builder *service.BuilderService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(builder *service.BuilderService) *SessionsHandler {
	return &SessionsHandler{builder: builder}
}

func (h *SessionsHandler) respond(c *fiber.Ctx, status int, s *session.Session) error {
	return c.Status(status).JSON(fiber.Map{
		"data": dto.NewSessionResponse(s, h.builder.SecretSeeded()),
	})
}

// Create handles POST /api/sessions.
func (h *SessionsHandler) Create(c *fiber.Ctx) error {
	s, err := h.builder.CreateSession(c.UserContext())
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, s)
}

// Get handles GET /api/sessions/:id.
func (h *SessionsHandler) Get(c *fiber.Ctx) error {
	s, err := h.builder.GetSession(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, s)
}

// Delete handles DELETE /api/sessions/:id.
func (h *SessionsHandler) Delete(c *fiber.Ctx) error {
	if err := h.builder.DeleteSession(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Update handles PATCH /api/sessions/:id.
func (h *SessionsHandler) Update(c *fiber.Ctx) error {
	var req dto.SessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	s, err := h.builder.UpdateSession(c.UserContext(), c.Params("id"), service.FormUpdate{
		Name:     req.Name,
		Company:  req.Company,
		Audience: req.Audience,
		Expiry:   req.Expiry,
	})
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, s)
}

// AddRole handles POST /api/sessions/:id/roles. A role already present
// returns 200 with the unchanged session.
func (h *SessionsHandler) AddRole(c *fiber.Ctx) error {
	var req dto.RoleSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	s, added, err := h.builder.AddRole(c.UserContext(), c.Params("id"), req.Selection())
	if err != nil {
		return err
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return h.respond(c, status, s)
}

// RemoveRole handles DELETE /api/sessions/:id/roles/:role.
func (h *SessionsHandler) RemoveRole(c *fiber.Ctx) error {
	role, err := url.PathUnescape(c.Params("role"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid role")
	}

	s, err := h.builder.RemoveRole(c.UserContext(), c.Params("id"), role)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, s)
}

// IssueToken handles POST /api/sessions/:id/token.
func (h *SessionsHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.SessionTokenRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	}

	issued, err := h.builder.IssueForSession(c.UserContext(), c.Params("id"), req.Secret)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tokenResponse(issued)})
}

func tokenResponse(issued *service.Issued) dto.TokenResponse {
	return dto.TokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Preview: dto.PreviewResponse{
			Header:  issued.Preview.Header,
			Payload: issued.Preview.Payload,
		},
	}
}
