package models

// User represents an account in the system. Email is optional and stored as
// NULL when absent: a unique index over a plain string column would treat
// every email-less account as a duplicate of the first.
type User struct {
	BaseModel
	Username     string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"type:varchar(255);not null" json:"-"`
	Email        *string `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname     string  `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	AvatarURL    string  `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
}

// UserBasicInfo holds minimal public information about a user, for embedding
// in member lists and discussion views.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
