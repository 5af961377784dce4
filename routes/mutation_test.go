package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogicum/blogicum/models"
)

func TestCreatePostRequiresLogin(t *testing.T) {
	r, _ := newTestApp(t)

	w := doGET(r, "/posts/create/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))

	w = doPOST(r, "/posts/create/", url.Values{"title": {"x"}, "text": {"y"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))
}

func TestCreatePostSetsAuthorServerSide(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")

	form := url.Values{
		"title":     {"my first post"},
		"text":      {"hello world"},
		"author_id": {fmt.Sprint(bob.ID)}, // submitted author must be ignored
	}
	w := doPOST(r, "/posts/create/", form, sessionCookie(t, ann))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/ann/", w.Header().Get("Location"))

	var post models.Post
	require.NoError(t, db.Where("title = ?", "my first post").First(&post).Error)
	assert.Equal(t, ann.ID, post.AuthorID)
	assert.True(t, post.IsPublished)
}

func TestCreatePostValidation(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")

	w := doPOST(r, "/posts/create/", url.Values{"title": {"   "}, "text": {"body"}}, sessionCookie(t, ann))
	assert.Equal(t, http.StatusOK, w.Code, "form is re-shown on validation failure")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditPostByNonOwnerSoftFails(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, ann, "original-title", true, time.Now().Add(-time.Hour), nil)

	form := url.Values{"title": {"hijacked"}, "text": {"hijacked"}}
	w := doPOST(r, fmt.Sprintf("/posts/%d/edit/", post.ID), form, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "original-title", reloaded.Title, "failed edit never mutates the post")

	// repeating the failed request still leaves the post untouched
	w = doPOST(r, fmt.Sprintf("/posts/%d/edit/", post.ID), form, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "original-title", reloaded.Title)
}

func TestEditPostByOwner(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	post := createPost(t, db, ann, "before-edit", true, time.Now().Add(-time.Hour), nil)

	form := url.Values{"title": {"after-edit"}, "text": {"updated text"}}
	w := doPOST(r, fmt.Sprintf("/posts/%d/edit/", post.ID), form, sessionCookie(t, ann))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "after-edit", reloaded.Title)
}

func TestDeletePost(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, ann, "doomed-post", true, time.Now().Add(-time.Hour), nil)
	createComment(t, db, bob, post, "soon gone")

	// non-owner delete redirects to the detail page and removes nothing
	w := doPOST(r, fmt.Sprintf("/posts/%d/delete/", post.ID), url.Values{}, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))
	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// owner delete lands on the index feed and takes the comments with it
	w = doPOST(r, fmt.Sprintf("/posts/%d/delete/", post.ID), url.Values{}, sessionCookie(t, ann))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditDeleteMissingPost(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")

	w := doGET(r, "/posts/424242/edit/", sessionCookie(t, ann))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doPOST(r, "/posts/424242/delete/", url.Values{}, sessionCookie(t, ann))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddComment(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, ann, "commentable", true, time.Now().Add(-time.Hour), nil)

	// anonymous commenters are sent to the login page
	w := doPOST(r, fmt.Sprintf("/%d/", post.ID), url.Values{"text": {"hey"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))

	w = doPOST(r, fmt.Sprintf("/%d/", post.ID), url.Values{"text": {"nice post"}}, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var comment models.Comment
	require.NoError(t, db.First(&comment).Error)
	assert.Equal(t, bob.ID, comment.AuthorID)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "nice post", comment.Text)
}

func TestAddEmptyCommentIsDiscarded(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, ann, "commentable", true, time.Now().Add(-time.Hour), nil)

	w := doPOST(r, fmt.Sprintf("/%d/", post.ID), url.Values{"text": {"   "}}, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count, "no comment row for empty input")
}

func TestAddCommentOnHiddenPost(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	draft := createPost(t, db, ann, "secret-draft", false, time.Now().Add(-time.Hour), nil)

	// a post the viewer cannot read cannot be commented on by direct id
	w := doPOST(r, fmt.Sprintf("/%d/", draft.ID), url.Values{"text": {"found it"}}, sessionCookie(t, bob))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the author still can
	w = doPOST(r, fmt.Sprintf("/%d/", draft.ID), url.Values{"text": {"note to self"}}, sessionCookie(t, ann))
	require.Equal(t, http.StatusFound, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEditCommentOwnership(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, ann, "discussed", true, time.Now().Add(-time.Hour), nil)
	comment := createComment(t, db, bob, post, "original comment")

	path := fmt.Sprintf("/posts/%d/edit_comment/%d/", post.ID, comment.ID)

	// non-owner is bounced to the detail page, comment untouched
	w := doPOST(r, path, url.Values{"text": {"defaced"}}, sessionCookie(t, ann))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))
	var reloaded models.Comment
	require.NoError(t, db.First(&reloaded, comment.ID).Error)
	assert.Equal(t, "original comment", reloaded.Text)

	// owner edit succeeds
	w = doPOST(r, path, url.Values{"text": {"amended comment"}}, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, db.First(&reloaded, comment.ID).Error)
	assert.Equal(t, "amended comment", reloaded.Text)
}

func TestDeleteCommentOwnership(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, ann, "discussed", true, time.Now().Add(-time.Hour), nil)
	comment := createComment(t, db, bob, post, "to be deleted")

	path := fmt.Sprintf("/posts/%d/delete_comment/%d/", post.ID, comment.ID)

	w := doPOST(r, path, url.Values{}, sessionCookie(t, ann))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))
	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	w = doPOST(r, path, url.Values{}, sessionCookie(t, bob))
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommentPathMustMatchPost(t *testing.T) {
	r, db := newTestApp(t)
	ann := createUser(t, db, "ann")
	bob := createUser(t, db, "bob")
	postA := createPost(t, db, ann, "post-a", true, time.Now().Add(-time.Hour), nil)
	postB := createPost(t, db, ann, "post-b", true, time.Now().Add(-time.Hour), nil)
	comment := createComment(t, db, bob, postA, "on post a")

	// addressing the comment under the wrong post is NotFound
	path := fmt.Sprintf("/posts/%d/delete_comment/%d/", postB.ID, comment.ID)
	w := doPOST(r, path, url.Values{}, sessionCookie(t, bob))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
