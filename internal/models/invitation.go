package models

// Invitation is a pending invite of a user into a group. No flow creates
// these yet; the group cascade still clears them so a future invite feature
// cannot leave orphans behind.
type Invitation struct {
	BaseModel
	GroupID   uint `gorm:"index;not null" json:"groupId"`
	UserID    uint `gorm:"index;not null" json:"userId"`
	InviterID uint `gorm:"not null" json:"inviterId"`
}

// TableName specifies the table name for the Invitation model.
func (Invitation) TableName() string {
	return "invitations"
}

// JoinRequest is a pending request by a user to join a group. Reserved the
// same way Invitation is.
type JoinRequest struct {
	BaseModel
	GroupID uint   `gorm:"index;not null" json:"groupId"`
	UserID  uint   `gorm:"index;not null" json:"userId"`
	Message string `gorm:"type:text" json:"message,omitempty"`
}

// TableName specifies the table name for the JoinRequest model.
func (JoinRequest) TableName() string {
	return "join_requests"
}
