package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"forum-go/internal/config"
	"forum-go/internal/kafka"
	"forum-go/internal/models"
)

// GroupEventMessage is the payload published to the group events topic after
// every successful lifecycle or membership mutation. The event worker
// consumes it into the group_events audit table.
type GroupEventMessage struct {
	Type      models.GroupEventType `json:"type"`
	GroupID   uint                  `json:"groupId"`
	ActorID   uint                  `json:"actorId"`
	TargetID  *uint                 `json:"targetId,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// eventPublisher publishes group events fire-and-forget: the mutation has
// already committed, so a publish failure is logged and never surfaced to
// the caller.
type eventPublisher struct {
	producer kafka.MessageProducer
	cfg      config.KafkaConfig
}

func (p *eventPublisher) publish(ctx context.Context, eventType models.GroupEventType, groupID, actorID uint, targetID *uint) {
	if p == nil || p.producer == nil {
		return
	}

	event := GroupEventMessage{
		Type:      eventType,
		GroupID:   groupID,
		ActorID:   actorID,
		TargetID:  targetID,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling group event %s for group %d: %v", eventType, groupID, err)
		return
	}

	key := []byte(fmt.Sprintf("%d", groupID))
	if err := p.producer.SendMessage(ctx, p.cfg.GroupEventsTopic, key, payload); err != nil {
		log.Printf("Error publishing group event %s for group %d: %v", eventType, groupID, err)
	}
}
