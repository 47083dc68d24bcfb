package models

import (
	"encoding/json"
	"time"
)

// GroupEventType names a group lifecycle or membership change.
type GroupEventType string

const (
	GroupCreatedEvent   GroupEventType = "group.created"
	GroupDeletedEvent   GroupEventType = "group.deleted"
	GroupDisbandedEvent GroupEventType = "group.disbanded"
	MemberJoinedEvent   GroupEventType = "member.joined"
	MemberLeftEvent     GroupEventType = "member.left"
	MemberRemovedEvent  GroupEventType = "member.removed"
	RoleChangedEvent    GroupEventType = "role.changed"
)

// GroupEvent is the audit record written by the event worker for every group
// lifecycle/membership change it consumes from Kafka. The group itself may be
// gone by the time the row is written, so GroupID is a plain value, not a
// foreign key.
type GroupEvent struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	Type       GroupEventType  `gorm:"type:varchar(50);index;not null" json:"type"`
	GroupID    uint            `gorm:"index;not null" json:"groupId"`
	ActorID    uint            `gorm:"not null" json:"actorId"`
	TargetID   *uint           `json:"targetId,omitempty"`
	PayloadRaw json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`
	OccurredAt time.Time       `gorm:"index;not null" json:"occurredAt"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// TableName specifies the table name for the GroupEvent model.
func (GroupEvent) TableName() string {
	return "group_events"
}
