package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
)

// NotificationService is the in-process consumer of complaint events. It
// decides who should hear about a change; actual email and webhook
// delivery belongs to the notification subsystem downstream.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleCreated)
	n.dispatcher.Subscribe(events.EventComplaintAssigned, n.notifyAssignee)
	n.dispatcher.Subscribe(events.EventComplaintReopened, n.notifyAssignee)
	n.dispatcher.Subscribe(events.EventComplaintReassigned, n.notifyAssignee)
	n.dispatcher.Subscribe(events.EventComplaintResolved, n.notifyClient)
	n.dispatcher.Subscribe(events.EventComplaintClosed, n.notifyClient)
	n.dispatcher.Subscribe(events.EventComplaintWithdrawn, n.notifyAssignee)
	n.dispatcher.Subscribe(events.EventStatusForced, n.notifyClient)
}

// Recipients returns who an event concerns: the staff member for work
// changes, the filing client for outcomes.
func Recipients(event events.Event) []string {
	switch p := event.Payload.(type) {
	case events.ComplaintAssignedPayload:
		return []string{p.AssigneeID}
	case events.ComplaintReassignedPayload:
		return []string{p.PreviousAssigneeID, p.NewAssigneeID}
	}
	return nil
}

func (n *NotificationService) handleCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ComplaintCreated", zap.String("complaint_id", event.ComplaintID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) notifyAssignee(ctx context.Context, event events.Event) error {
	n.logger.Info("notify staff",
		zap.String("event_type", string(event.Type)),
		zap.String("complaint_id", event.ComplaintID),
		zap.Strings("recipients", Recipients(event)))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) notifyClient(ctx context.Context, event events.Event) error {
	n.logger.Info("notify client",
		zap.String("event_type", string(event.Type)),
		zap.String("complaint_id", event.ComplaintID),
		zap.String("to_status", string(event.ToStatus)))
	if event.ToStatus == domain.StatusResolved {
		n.sendEmailNotificationStub(ctx, event)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("complaint_id", event.ComplaintID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("complaint_id", event.ComplaintID),
		zap.String("event_type", string(event.Type)))
}
