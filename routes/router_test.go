package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/utils"
)

var testEnvOnce sync.Once

// setupTestEnv pins configuration before the first config read. The rate
// limit is effectively disabled so tests can hammer mutation routes.
func setupTestEnv() {
	testEnvOnce.Do(func() {
		os.Setenv("JWT_SECRET", "test-secret")
		os.Setenv("GIN_MODE", "test")
		os.Setenv("RATE_LIMIT_PER_MINUTE", "1000000")
		os.Setenv("GIN_LOG_PATH", filepath.Join(os.TempDir(), "blogicum-test-access.log"))
		os.Setenv("LOG_PATH", filepath.Join(os.TempDir(), "blogicum-test-app.log"))
	})
}

func newTestApp(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	setupTestEnv()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Location{},
		&models.Post{},
		&models.Comment{},
	))

	return SetupRouter(db), db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret-pass")
	require.NoError(t, err)
	user := models.User{Username: username, Email: username + "@example.org", PasswordHash: hash}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createCategory(t *testing.T, db *gorm.DB, slug string, published bool) models.Category {
	t.Helper()
	category := models.Category{Title: "Category " + slug, Slug: slug, IsPublished: published}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func createPost(t *testing.T, db *gorm.DB, author models.User, title string, published bool, pubDate time.Time, categoryID *uint) models.Post {
	t.Helper()
	post := models.Post{
		AuthorID:    author.ID,
		CategoryID:  categoryID,
		Title:       title,
		Text:        "text of " + title,
		PubDate:     pubDate,
		IsPublished: published,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func createComment(t *testing.T, db *gorm.DB, author models.User, post models.Post, text string) models.Comment {
	t.Helper()
	comment := models.Comment{PostID: post.ID, AuthorID: author.ID, Text: text}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}

// sessionCookie forges a valid session for the user, so tests do not need to
// drive the login form every time.
func sessionCookie(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, utils.SessionDuration)
	require.NoError(t, err)
	return &http.Cookie{Name: utils.SessionCookieName, Value: token}
}

func doGET(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doPOST(r *gin.Engine, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
