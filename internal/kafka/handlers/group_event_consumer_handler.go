package kafkahandlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"forum-go/internal/models"
	"forum-go/internal/services"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"gorm.io/gorm"
)

// GroupEventConsumerLogic turns consumed group event messages into rows of
// the group_events audit table.
type GroupEventConsumerLogic struct {
	db *gorm.DB
}

// NewGroupEventConsumerLogic creates a new instance of GroupEventConsumerLogic.
func NewGroupEventConsumerLogic(db *gorm.DB) *GroupEventConsumerLogic {
	if db == nil {
		log.Panic("GroupEventConsumerLogic requires a database handle")
	}
	return &GroupEventConsumerLogic{db: db}
}

// HandleGroupEvent is the MessageHandler passed to the Kafka consumer. It
// processes a single group event message.
func (h *GroupEventConsumerLogic) HandleGroupEvent(ctx context.Context, msg *kafka.Message) error {
	var event services.GroupEventMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed message will never unmarshal on retry, so skip it.
		log.Printf("Error unmarshalling group event message (Value: '%s'): %v. This message will be skipped.", string(msg.Value), err)
		return nil
	}
	if event.Type == "" || event.GroupID == 0 {
		log.Printf("Skipping group event message with missing type or group ID: %s", string(msg.Value))
		return nil
	}

	occurredAt := event.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	record := &models.GroupEvent{
		Type:       event.Type,
		GroupID:    event.GroupID,
		ActorID:    event.ActorID,
		TargetID:   event.TargetID,
		PayloadRaw: json.RawMessage(msg.Value),
		OccurredAt: occurredAt,
	}
	if err := h.db.WithContext(ctx).Create(record).Error; err != nil {
		// Returning the error leaves the offset uncommitted so the message
		// is retried.
		return err
	}

	log.Printf("Recorded group event %s for group %d (actor %d)", event.Type, event.GroupID, event.ActorID)
	return nil
}
