package models

import "time"

// Post is the central content entity. PubDate may be in the future, which
// keeps the post out of public listings until the date is reached.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	CategoryID  *uint      `gorm:"index" json:"category_id"`
	LocationID  *uint      `gorm:"index" json:"location_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time  `gorm:"index;not null" json:"pub_date"`
	IsPublished bool       `gorm:"not null;index" json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Author      User       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category    *Category  `json:"category,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	Comments    []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}
