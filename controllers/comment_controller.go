package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/policy"
	"github.com/blogicum/blogicum/utils"
)

// CommentController handles adding, editing and deleting comments. Every flow
// ends back on the parent post's detail page.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

type commentForm struct {
	Text string `form:"text"`
}

// Add attaches a comment to a post the viewer can read. Invalid input is
// silently discarded: the viewer lands back on the detail page either way.
func (c *CommentController) Add(ctx *gin.Context) {
	viewer := middleware.Viewer(ctx)
	if viewer == nil {
		ctx.Redirect(http.StatusFound, middleware.LoginURL)
		return
	}

	postID, ok := parseID(ctx, "post_id")
	if !ok {
		renderNotFound(ctx)
		return
	}

	var post models.Post
	if err := c.db.Preload("Category").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return
		}
		renderServerError(ctx, err)
		return
	}

	// Commenting uses the same read gate as the detail view: a post the
	// viewer cannot see cannot be commented on, even by direct id.
	if !policy.CanRead(&post, viewer, time.Now()) {
		renderNotFound(ctx)
		return
	}

	var form commentForm
	if err := ctx.ShouldBind(&form); err != nil {
		ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
		return
	}
	text := strings.TrimSpace(utils.Sanitize(form.Text))
	if text == "" {
		ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: viewer.ID,
		Text:     text,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
}

// EditForm renders the edit form for the viewer's own comment.
func (c *CommentController) EditForm(ctx *gin.Context) {
	comment, ok := c.loadOwnComment(ctx)
	if !ok {
		return
	}
	c.renderForm(ctx, comment, "")
}

// Edit updates the viewer's own comment.
func (c *CommentController) Edit(ctx *gin.Context) {
	comment, ok := c.loadOwnComment(ctx)
	if !ok {
		return
	}

	var form commentForm
	if err := ctx.ShouldBind(&form); err != nil {
		c.renderForm(ctx, comment, "invalid form input")
		return
	}
	text := strings.TrimSpace(utils.Sanitize(form.Text))
	if text == "" {
		c.renderForm(ctx, comment, "comment cannot be empty")
		return
	}

	comment.Text = text
	if err := c.db.Save(&comment).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postDetailPath(comment.PostID))
}

// DeleteConfirm renders the delete confirmation for the viewer's own comment.
func (c *CommentController) DeleteConfirm(ctx *gin.Context) {
	comment, ok := c.loadOwnComment(ctx)
	if !ok {
		return
	}
	data := baseData(ctx)
	data["Comment"] = comment
	ctx.HTML(http.StatusOK, "comment_confirm_delete.html", data)
}

// Delete removes the viewer's own comment.
func (c *CommentController) Delete(ctx *gin.Context) {
	comment, ok := c.loadOwnComment(ctx)
	if !ok {
		return
	}
	if err := c.db.Delete(&comment).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postDetailPath(comment.PostID))
}

// loadOwnComment fetches the comment addressed by the path, checks it belongs
// to the addressed post, and applies the ownership guard.
func (c *CommentController) loadOwnComment(ctx *gin.Context) (models.Comment, bool) {
	postID, ok := parseID(ctx, "post_id")
	if !ok {
		renderNotFound(ctx)
		return models.Comment{}, false
	}
	commentID, ok := parseID(ctx, "comment_id")
	if !ok {
		renderNotFound(ctx)
		return models.Comment{}, false
	}

	var comment models.Comment
	err := c.db.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(ctx)
			return models.Comment{}, false
		}
		renderServerError(ctx, err)
		return models.Comment{}, false
	}

	if !requireOwner(ctx, comment.AuthorID, comment.PostID) {
		return models.Comment{}, false
	}
	return comment, true
}

func (c *CommentController) renderForm(ctx *gin.Context, comment models.Comment, formError string) {
	data := baseData(ctx)
	data["Comment"] = comment
	data["FormError"] = formError
	ctx.HTML(http.StatusOK, "comment_form.html", data)
}
