package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/events"
)

// AuditService records employee changes published on the dispatcher.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventDependentsUpdated, a.handleDependentsUpdated)
}

func (a *AuditService) handleDependentsUpdated(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int("employee_id", event.EmployeeID),
		zap.String("actor", event.Actor),
		zap.Time("at", event.Timestamp),
	}
	if payload, ok := event.Payload.(events.DependentsUpdatedPayload); ok {
		fields = append(fields, zap.Int("old_count", payload.OldCount), zap.Int("new_count", payload.NewCount))
	}
	a.logger.Info("employee updated", fields...)
	return nil
}
