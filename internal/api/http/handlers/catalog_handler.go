package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jwt-builder/internal/api/dto"
	"github.com/spec-kit/jwt-builder/internal/expiry"
	"github.com/spec-kit/jwt-builder/internal/service"
)

// CatalogHandler serves the role taxonomy.
type CatalogHandler struct {
	builder       *service.BuilderService
	defaultExpiry string
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(builder *service.BuilderService, defaultExpiry string) *CatalogHandler {
	if !expiry.Valid(defaultExpiry) {
		defaultExpiry = expiry.Default
	}
	return &CatalogHandler{builder: builder, defaultExpiry: defaultExpiry}
}

// Get handles GET /api/catalog.
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": dto.CatalogResponse{
			Data:          h.builder.Catalog().Data(),
			ExpiryOptions: expiry.Options(),
			DefaultExpiry: h.defaultExpiry,
		},
	})
}
