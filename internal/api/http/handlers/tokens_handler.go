package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jwt-builder/internal/api/dto"
	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/claims"
	"github.com/spec-kit/jwt-builder/internal/service"
)

// TokensHandler signs, decodes and verifies tokens without a session.
type TokensHandler struct {
	builder *service.BuilderService
}

// NewTokensHandler constructs handler.
func NewTokensHandler(builder *service.BuilderService) *TokensHandler {
	return &TokensHandler{builder: builder}
}

// Issue handles POST /api/tokens.
func (h *TokensHandler) Issue(c *fiber.Ctx) error {
	var req dto.IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	selections := make([]catalog.Selection, 0, len(req.Roles))
	for _, r := range req.Roles {
		selections = append(selections, r.Selection())
	}

	issued, err := h.builder.Issue(c.UserContext(), service.Form{
		Identity:   claims.Identity{Name: req.Name, Company: req.Company, Secret: req.Secret},
		Selections: selections,
		Audience:   req.Audience,
		Expiry:     req.Expiry,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": tokenResponse(issued)})
}

// Decode handles POST /api/tokens/decode. The signature is not checked.
func (h *TokensHandler) Decode(c *fiber.Ctx) error {
	var req dto.DecodeTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	decoded, err := h.builder.Decode(req.Token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.PreviewResponse{Header: decoded.Header, Payload: decoded.Payload},
	})
}

// Verify handles POST /api/tokens/verify.
func (h *TokensHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return dto.ValidationError(err)
	}

	verified, err := h.builder.Verify(req.Token, req.Secret)
	if err != nil {
		return err
	}

	resp := dto.ClaimsResponse{
		Name:      verified.Name(),
		Company:   verified.Company(),
		Roles:     verified.Roles(),
		ExpiresAt: verified.ExpiresAt(),
	}
	if aud, ok := verified.Audience(); ok {
		resp.Audience = &aud
	}
	return c.JSON(fiber.Map{"data": resp})
}
