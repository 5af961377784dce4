// Package policy decides which posts a viewer may read and which entities a
// viewer may change. Handlers and feed queries share these rules through the
// predicates and the matching gorm scopes so the two can never drift apart.
package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/blogicum/blogicum/models"
)

// Viewer is the resolved request identity. A nil *Viewer is an anonymous
// visitor.
type Viewer struct {
	ID       uint
	Username string
}

// IsPubliclyVisible reports whether a post is readable by anonymous visitors:
// the post is published, its publication date has been reached, and its
// category (when set) is published. An unpublished category hides the post no
// matter what the post's own flags say.
func IsPubliclyVisible(post *models.Post, now time.Time) bool {
	if !post.IsPublished {
		return false
	}
	if post.PubDate.After(now) {
		return false
	}
	if post.Category != nil && !post.Category.IsPublished {
		return false
	}
	return true
}

// CanRead reports whether the viewer may see the post at all. Authors always
// see their own posts, drafts and future-dated ones included. Callers treat a
// false result as "not found" so hidden posts are indistinguishable from
// nonexistent ones.
func CanRead(post *models.Post, viewer *Viewer, now time.Time) bool {
	if viewer != nil && viewer.ID == post.AuthorID {
		return true
	}
	return IsPubliclyVisible(post, now)
}

// CanMutate reports whether the viewer may edit or delete an entity owned by
// ownerID. Ownership is the sole criterion; there is no staff override.
func CanMutate(ownerID uint, viewer *Viewer) bool {
	return viewer != nil && viewer.ID == ownerID
}

// Public is a gorm scope expressing IsPubliclyVisible as a query filter. It
// joins categories so the category flag can be checked row by row; posts
// without a category stay visible.
func Public(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("LEFT JOIN categories ON categories.id = posts.category_id").
			Where("posts.is_published = ?", true).
			Where("posts.pub_date <= ?", now).
			Where("posts.category_id IS NULL OR categories.is_published = ?", true)
	}
}

// AuthoredBy is a gorm scope restricting posts to a single author.
func AuthoredBy(authorID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", authorID)
	}
}
