package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/policy"
)

// FeedController serves the read-only views: index feed, category feed,
// author profile feed and the post detail page.
type FeedController struct {
	db *gorm.DB
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(db *gorm.DB) *FeedController {
	return &FeedController{db: db}
}

// postRow is a feed entry: the post plus its comment count.
type postRow struct {
	models.Post
	CommentCount int64
}

// Index lists publicly visible posts, newest publication first.
func (f *FeedController) Index(ctx *gin.Context) {
	now := time.Now()
	base := func() *gorm.DB {
		return f.db.Model(&models.Post{}).Scopes(policy.Public(now))
	}

	data, err := f.listPage(ctx, base)
	if err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.HTML(http.StatusOK, "index.html", data)
}

// Category lists publicly visible posts of one published category. An absent
// or unpublished category is NotFound before any posts are queried.
func (f *FeedController) Category(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var category models.Category
	err := f.db.Where("slug = ? AND is_published = ?", slug, true).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return
		}
		renderServerError(ctx, err)
		return
	}

	now := time.Now()
	base := func() *gorm.DB {
		return f.db.Model(&models.Post{}).
			Scopes(policy.Public(now)).
			Where("posts.category_id = ?", category.ID)
	}

	data, err := f.listPage(ctx, base)
	if err != nil {
		renderServerError(ctx, err)
		return
	}
	data["Category"] = category
	ctx.HTML(http.StatusOK, "category.html", data)
}

// Profile lists an author's posts. The author sees everything they wrote,
// drafts and future-dated posts included; everyone else gets the public
// filter.
func (f *FeedController) Profile(ctx *gin.Context) {
	username := ctx.Param("username")

	var profile models.User
	err := f.db.Where("username = ?", username).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return
		}
		renderServerError(ctx, err)
		return
	}

	viewer := middleware.Viewer(ctx)
	now := time.Now()
	base := func() *gorm.DB {
		q := f.db.Model(&models.Post{}).Scopes(policy.AuthoredBy(profile.ID))
		if viewer == nil || viewer.ID != profile.ID {
			q = q.Scopes(policy.Public(now))
		}
		return q
	}

	data, err := f.listPage(ctx, base)
	if err != nil {
		renderServerError(ctx, err)
		return
	}
	data["Profile"] = profile
	ctx.HTML(http.StatusOK, "profile.html", data)
}

// Detail shows one post with its comments in insertion order. Posts the
// viewer may not read render as NotFound, never as Forbidden.
func (f *FeedController) Detail(ctx *gin.Context) {
	postID, ok := parseID(ctx, "post_id")
	if !ok {
		renderNotFound(ctx)
		return
	}

	var post models.Post
	err := f.db.Preload("Author").Preload("Category").Preload("Location").First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return
		}
		renderServerError(ctx, err)
		return
	}

	viewer := middleware.Viewer(ctx)
	if !policy.CanRead(&post, viewer, time.Now()) {
		renderNotFound(ctx)
		return
	}

	var comments []models.Comment
	err = f.db.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		renderServerError(ctx, err)
		return
	}

	data := baseData(ctx)
	data["Post"] = post
	data["Comments"] = comments
	data["IsOwner"] = policy.CanMutate(post.AuthorID, viewer)
	ctx.HTML(http.StatusOK, "detail.html", data)
}

// listPage runs a feed query twice, once to count and once for the requested
// page, and annotates the page's posts with comment counts. Ordering is
// pub_date descending with id descending as the tie break, so pages stay
// stable across requests.
func (f *FeedController) listPage(ctx *gin.Context, base func() *gorm.DB) (gin.H, error) {
	page := parsePage(ctx)
	pageSize := postsPerPage()

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	err := base().
		Select("posts.*").
		Preload("Author").Preload("Category").Preload("Location").
		Order("posts.pub_date DESC, posts.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	counts, err := f.commentCounts(posts)
	if err != nil {
		return nil, err
	}

	rows := make([]postRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, postRow{Post: p, CommentCount: counts[p.ID]})
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	data := baseData(ctx)
	data["Posts"] = rows
	data["Page"] = page
	data["TotalPages"] = totalPages
	data["HasPrev"] = page > 1
	data["HasNext"] = page < totalPages
	data["PrevPage"] = page - 1
	data["NextPage"] = page + 1
	return data, nil
}

// commentCounts resolves comment counts for a page of posts with a single
// grouped aggregate instead of one query per row.
func (f *FeedController) commentCounts(posts []models.Post) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(posts))
	if len(posts) == 0 {
		return counts, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	var rows []struct {
		PostID uint
		N      int64
	}
	err := f.db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}
