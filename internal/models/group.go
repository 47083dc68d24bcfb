package models

import "time"

// Group is a named collection of users with privacy and admin-governance
// settings. A private group requires its password to join. PasswordHash is a
// bcrypt hash; it is set only while the group is private.
type Group struct {
	BaseModel
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
	Private      bool   `gorm:"default:false" json:"private"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// TableName specifies the table name for the Group model.
func (Group) TableName() string {
	return "groups"
}

// GroupMemberRole defines a user's role within a group.
type GroupMemberRole string

const (
	AdminRole  GroupMemberRole = "admin"
	MemberRole GroupMemberRole = "member"
)

// Valid reports whether the role is one of the known values.
func (r GroupMemberRole) Valid() bool {
	return r == AdminRole || r == MemberRole
}

// GroupMember links a user to a group and records their role.
//
// The (GroupID, UserID) pair is unique: a user joins a group at most once.
// Membership rows are removed physically, not tombstoned, so that a user who
// left can rejoin without tripping the unique index.
type GroupMember struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	GroupID   uint            `gorm:"not null;uniqueIndex:idx_group_members_group_user" json:"groupId"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_group_members_group_user" json:"userId"`
	Role      GroupMemberRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt  time.Time       `json:"joinedAt"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for the GroupMember model.
func (GroupMember) TableName() string {
	return "group_members"
}

// GroupWithMemberCount is a read DTO for search results: a group annotated
// with how many members it currently has.
type GroupWithMemberCount struct {
	Group
	MemberCount int64 `json:"memberCount"`
}
