package models

// Tag is a named label shared between posts.
type Tag struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:50;not null;uniqueIndex:tags_name_key"`
	Description string `json:"description" gorm:"size:200"`
}

// PostTag associates a post with a tag. The pair is the primary key, so an
// association can exist at most once.
type PostTag struct {
	PostID int64 `gorm:"primaryKey;autoIncrement:false"`
	TagID  int64 `gorm:"primaryKey;autoIncrement:false;index"`
	Post   *Post `gorm:"constraint:OnDelete:CASCADE"`
	Tag    *Tag  `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName pins the join table name shared with the SQLite schema.
func (PostTag) TableName() string { return "post_tags" }
