package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/policy"
	"github.com/blogicum/blogicum/utils"
)

// defaultPostsPerPage is the feed page length.
const defaultPostsPerPage = 10

func postsPerPage() int {
	if n := config.Get().PostsPerPage; n > 0 {
		return n
	}
	return defaultPostsPerPage
}

// postDetailPath builds the canonical URL of a post's detail view, the
// redirect target for comment flows and for ownership soft-fails.
func postDetailPath(postID uint) string {
	return fmt.Sprintf("/posts/%d/", postID)
}

func profilePath(username string) string {
	return "/profile/" + username + "/"
}

// parsePage reads the ?page query parameter, defaulting to the first page.
func parsePage(ctx *gin.Context) int {
	page := 1
	if p, err := strconv.Atoi(ctx.Query("page")); err == nil && p > 0 {
		page = p
	}
	return page
}

// parseID reads a positive integer path parameter. ok is false for anything
// that cannot name an existing row.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// requireOwner is the single ownership guard shared by every post and comment
// mutation handler. A viewer who does not own the entity is silently sent to
// the post's detail page instead of seeing an error.
func requireOwner(ctx *gin.Context, ownerID, postID uint) bool {
	if !policy.CanMutate(ownerID, middleware.Viewer(ctx)) {
		ctx.Redirect(http.StatusFound, postDetailPath(postID))
		ctx.Abort()
		return false
	}
	return true
}

// baseData seeds template data shared by every page.
func baseData(ctx *gin.Context) gin.H {
	return gin.H{"Viewer": middleware.Viewer(ctx)}
}

// renderNotFound answers with the 404 page. Entities hidden by the visibility
// policy render exactly the same as absent ones.
func renderNotFound(ctx *gin.Context) {
	data := baseData(ctx)
	ctx.HTML(http.StatusNotFound, "404.html", data)
	ctx.Abort()
}

// renderServerError logs the store failure and answers with the 500 page.
func renderServerError(ctx *gin.Context, err error) {
	if utils.Sugar != nil {
		utils.Sugar.Errorw("internal error", "path", ctx.Request.URL.Path, "err", err)
	}
	data := baseData(ctx)
	ctx.HTML(http.StatusInternalServerError, "500.html", data)
	ctx.Abort()
}
