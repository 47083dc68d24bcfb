package models

// Discussion is a threaded topic inside a group. It is authored by a user who
// was a member at creation time and soft-deleted via the DeletedAt tombstone;
// rows are only removed physically when the owning group is purged.
type Discussion struct {
	BaseModel
	Title    string `gorm:"type:varchar(200);not null" json:"title"`
	Content  string `gorm:"type:text" json:"content,omitempty"`
	GroupID  uint   `gorm:"index;not null" json:"groupId"`
	AuthorID uint   `gorm:"index;not null" json:"authorId"`

	Author   User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Comments []Comment `gorm:"foreignKey:DiscussionID" json:"comments,omitempty"`
}

// TableName specifies the table name for the Discussion model.
func (Discussion) TableName() string {
	return "discussions"
}

// Comment is a reply within a discussion. Same soft-delete discipline as
// Discussion.
type Comment struct {
	BaseModel
	Content      string `gorm:"type:text;not null" json:"content"`
	DiscussionID uint   `gorm:"index;not null" json:"discussionId"`
	AuthorID     uint   `gorm:"index;not null" json:"authorId"`

	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName specifies the table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}
