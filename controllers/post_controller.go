package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/utils"
)

// PostController handles the create/edit/delete flows for posts.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

type postForm struct {
	Title      string `form:"title"`
	Text       string `form:"text"`
	PubDate    string `form:"pub_date"`
	CategoryID string `form:"category_id"`
	LocationID string `form:"location_id"`
}

// pubDateLayouts are the accepted publish-date formats; the first is what the
// datetime-local input submits.
var pubDateLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// CreateForm renders the empty post form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	p.renderForm(ctx, models.Post{}, "")
}

// Create stores a new post. The author is always the current viewer, no
// matter what the form submitted.
func (p *PostController) Create(ctx *gin.Context) {
	viewer := middleware.Viewer(ctx)
	if viewer == nil {
		ctx.Redirect(http.StatusFound, middleware.LoginURL)
		return
	}

	post := models.Post{AuthorID: viewer.ID}
	if msg := p.applyForm(ctx, &post); msg != "" {
		p.renderForm(ctx, post, msg)
		return
	}

	if err := p.db.Create(&post).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, profilePath(viewer.Username))
}

// EditForm renders the post form pre-filled for its owner.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}
	p.renderForm(ctx, post, "")
}

// Edit updates a post owned by the viewer and returns to its detail page.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}

	if msg := p.applyForm(ctx, &post); msg != "" {
		p.renderForm(ctx, post, msg)
		return
	}

	if err := p.db.Save(&post).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
}

// DeleteConfirm renders the delete confirmation page for the owner.
func (p *PostController) DeleteConfirm(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}
	data := baseData(ctx)
	data["Post"] = post
	ctx.HTML(http.StatusOK, "post_confirm_delete.html", data)
}

// Delete removes a post and its comments, then returns to the index feed.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.loadOwnPost(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// loadOwnPost fetches the addressed post and applies the ownership guard.
// A missing post is NotFound; a post owned by someone else redirects to its
// detail page.
func (p *PostController) loadOwnPost(ctx *gin.Context) (models.Post, bool) {
	postID, ok := parseID(ctx, "post_id")
	if !ok {
		renderNotFound(ctx)
		return models.Post{}, false
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return models.Post{}, false
		}
		renderServerError(ctx, err)
		return models.Post{}, false
	}

	if !requireOwner(ctx, post.AuthorID, post.ID) {
		return models.Post{}, false
	}
	return post, true
}

// applyForm binds and validates the submitted form into post, returning a
// non-empty message on validation failure.
func (p *PostController) applyForm(ctx *gin.Context, post *models.Post) string {
	var form postForm
	if err := ctx.ShouldBind(&form); err != nil {
		return "invalid form input"
	}

	title := strings.TrimSpace(utils.Sanitize(form.Title))
	if title == "" {
		return "title cannot be empty"
	}
	text := strings.TrimSpace(utils.Sanitize(form.Text))
	if text == "" {
		return "text cannot be empty"
	}

	pubDate := time.Now()
	if s := strings.TrimSpace(form.PubDate); s != "" {
		parsed, ok := parsePubDate(s)
		if !ok {
			return "unrecognized publish date"
		}
		pubDate = parsed
	} else if !post.PubDate.IsZero() {
		pubDate = post.PubDate
	}

	categoryID, ok := p.optionalRef(form.CategoryID, &models.Category{})
	if !ok {
		return "unknown category"
	}
	locationID, ok := p.optionalRef(form.LocationID, &models.Location{})
	if !ok {
		return "unknown location"
	}

	post.Title = title
	post.Text = text
	post.PubDate = pubDate
	post.CategoryID = categoryID
	post.LocationID = locationID
	if post.ID == 0 {
		post.IsPublished = true
	}
	return ""
}

// optionalRef parses an optional foreign-key field and verifies the target
// row exists. An empty value is a valid nil reference.
func (p *PostController) optionalRef(raw string, model interface{}) (*uint, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return nil, false
	}
	id := uint(n)
	var count int64
	if err := p.db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil || count == 0 {
		return nil, false
	}
	return &id, true
}

func parsePubDate(s string) (time.Time, bool) {
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *PostController) renderForm(ctx *gin.Context, post models.Post, formError string) {
	var categories []models.Category
	if err := p.db.Where("is_published = ?", true).Order("title").Find(&categories).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	var locations []models.Location
	if err := p.db.Where("is_published = ?", true).Order("name").Find(&locations).Error; err != nil {
		renderServerError(ctx, err)
		return
	}

	pubDateValue := ""
	if !post.PubDate.IsZero() {
		pubDateValue = post.PubDate.Format("2006-01-02T15:04")
	}

	data := baseData(ctx)
	data["Post"] = post
	data["Categories"] = categories
	data["Locations"] = locations
	data["PubDateValue"] = pubDateValue
	data["FormError"] = formError
	ctx.HTML(http.StatusOK, "post_form.html", data)
}
