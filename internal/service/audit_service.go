package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/jwt-builder/internal/events"
)

// AuditService logs builder events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventRoleAdded, a.handleRoleChanged)
	a.dispatcher.Subscribe(events.EventRoleRemoved, a.handleRoleChanged)
	a.dispatcher.Subscribe(events.EventTokenIssued, a.handleTokenIssued)
}

func (a *AuditService) handleRoleChanged(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", event.SessionID),
	}
	if p, ok := event.Payload.(events.RoleChangedPayload); ok {
		fields = append(fields, zap.String("role", p.Role), zap.Int("role_count", p.Count))
	}
	a.logger.Info("RoleChanged", fields...)
	return nil
}

func (a *AuditService) handleTokenIssued(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("session_id", event.SessionID)}
	if p, ok := event.Payload.(events.TokenIssuedPayload); ok {
		fields = append(fields,
			zap.Strings("roles", p.Roles),
			zap.Time("expires_at", p.ExpiresAt),
			zap.Bool("has_audience", p.HasAudience),
		)
	}
	a.logger.Info("TokenIssued", fields...)
	return nil
}
