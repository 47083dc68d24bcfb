package models

// Resource is the metadata row for a file shared in a group, optionally
// attached to a specific discussion. The bytes live behind the storage
// service; this row only records where they ended up.
type Resource struct {
	BaseModel
	GroupID      uint   `gorm:"index;not null" json:"groupId"`
	DiscussionID *uint  `gorm:"index" json:"discussionId,omitempty"`
	UploadedByID uint   `gorm:"not null" json:"uploadedById"`
	Title        string `gorm:"type:varchar(200);not null" json:"title"`
	URL          string `gorm:"type:varchar(255);not null" json:"url"`
	StoragePath  string `gorm:"type:varchar(255)" json:"-"`
	Size         int64  `json:"size"`
	MimeType     string `gorm:"type:varchar(100)" json:"mimeType,omitempty"`

	UploadedBy User `gorm:"foreignKey:UploadedByID" json:"uploadedBy,omitempty"`
}

// TableName specifies the table name for the Resource model.
func (Resource) TableName() string {
	return "resources"
}
