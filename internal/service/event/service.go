package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/docline/consult-api/internal/model"
	"github.com/docline/consult-api/internal/repository"
	"github.com/docline/consult-api/pkg/logger"
)

// Service records domain events in the transactional outbox. The worker
// binary drains the outbox and publishes each event on its channel, which is
// how subscribed clients observe appointment and session changes without
// polling.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record stores an event for the appointment's change feed. Failures are
// logged and swallowed: the feed is an observability surface, never a reason
// to fail the mutation that already committed.
func (s *Service) Record(ctx context.Context, eventType string, appointmentID uuid.UUID, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal event payload", "event_type", eventType)
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Channel:   ChannelFor(appointmentID),
		Payload:   body,
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", eventType)
	}
}

// ChannelFor names the pub/sub channel carrying one appointment's feed.
func ChannelFor(appointmentID uuid.UUID) string {
	return fmt.Sprintf("appointment.%s", appointmentID)
}
