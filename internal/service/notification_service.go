package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/config"
	"github.com/metallic-erp/support-hub/internal/events"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NotificationService observes ticket events. Every event is logged; when a
// webhook endpoint is configured the event is queued for asynchronous
// delivery so publishers never wait on the network.
type NotificationService struct {
	logger     *zap.Logger
	webhookURL string
	client     *http.Client
	queue      chan events.Event
}

// NewNotificationService constructs the observer.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		logger:     logger,
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan events.Event, 64),
	}
}

// Register subscribes the observer to every ticket event type.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigneesChanged,
		events.EventTicketMessageAdded,
	} {
		dispatcher.Subscribe(eventType, s.handleEvent)
	}
}

// Queue exposes the pending webhook deliveries for the worker.
func (s *NotificationService) Queue() <-chan events.Event {
	return s.queue
}

func (s *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	s.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("actor_id", event.Actor.UserID))

	if s.webhookURL == "" {
		return nil
	}
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("webhook queue full, event dropped",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

// DeliverWebhook posts one event to the configured endpoint.
func (s *NotificationService) DeliverWebhook(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
