package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/utils"
)

// AuthController provides the minimal local identity provider: registration,
// session login/logout and profile editing.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,64}$`)

type registrationForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type profileForm struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Email     string `form:"email"`
}

// RegistrationForm renders the sign-up page.
func (a *AuthController) RegistrationForm(ctx *gin.Context) {
	a.renderAuthPage(ctx, "registration.html", "")
}

// Register creates a local account and sends the new user to the login page.
func (a *AuthController) Register(ctx *gin.Context) {
	var form registrationForm
	if err := ctx.ShouldBind(&form); err != nil {
		a.renderAuthPage(ctx, "registration.html", "invalid form input")
		return
	}

	username := strings.TrimSpace(form.Username)
	if !usernamePattern.MatchString(username) {
		a.renderAuthPage(ctx, "registration.html", "username must be 3-64 characters: letters, digits, . _ -")
		return
	}
	if len(form.Password) < 6 {
		a.renderAuthPage(ctx, "registration.html", "password must be at least 6 characters")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	if count > 0 {
		a.renderAuthPage(ctx, "registration.html", "username is already taken")
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		renderServerError(ctx, err)
		return
	}

	user := models.User{
		Username:     username,
		Email:        strings.TrimSpace(form.Email),
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, middleware.LoginURL)
}

// LoginForm renders the login page.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	a.renderAuthPage(ctx, "login.html", "")
}

// Login verifies credentials and issues the session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var form loginForm
	if err := ctx.ShouldBind(&form); err != nil {
		a.renderAuthPage(ctx, "login.html", "invalid form input")
		return
	}

	var user models.User
	err := a.db.Where("username = ?", strings.TrimSpace(form.Username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.renderAuthPage(ctx, "login.html", "wrong username or password")
			return
		}
		renderServerError(ctx, err)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, form.Password) {
		a.renderAuthPage(ctx, "login.html", "wrong username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, utils.SessionDuration)
	if err != nil {
		renderServerError(ctx, err)
		return
	}
	utils.SetSessionCookie(ctx, token)
	ctx.Redirect(http.StatusFound, "/")
}

// Logout revokes the current session and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if cookie, err := ctx.Cookie(utils.SessionCookieName); err == nil && cookie != "" {
		expiresAt := time.Now().Add(utils.SessionDuration)
		if claims, err := utils.ParseToken(cookie); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(cookie, expiresAt)
	}
	utils.ClearSessionCookie(ctx)
	ctx.Redirect(http.StatusFound, "/")
}

// EditProfileForm renders the profile settings page for the viewer.
func (a *AuthController) EditProfileForm(ctx *gin.Context) {
	user, ok := a.loadViewerUser(ctx)
	if !ok {
		return
	}
	a.renderProfileForm(ctx, user, "")
}

// EditProfile updates the viewer's own names and email, then returns to
// their profile feed.
func (a *AuthController) EditProfile(ctx *gin.Context) {
	user, ok := a.loadViewerUser(ctx)
	if !ok {
		return
	}

	var form profileForm
	if err := ctx.ShouldBind(&form); err != nil {
		a.renderProfileForm(ctx, user, "invalid form input")
		return
	}

	user.FirstName = strings.TrimSpace(utils.Sanitize(form.FirstName))
	user.LastName = strings.TrimSpace(utils.Sanitize(form.LastName))
	user.Email = strings.TrimSpace(form.Email)
	if err := a.db.Save(&user).Error; err != nil {
		renderServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, profilePath(user.Username))
}

func (a *AuthController) loadViewerUser(ctx *gin.Context) (models.User, bool) {
	viewer := middleware.Viewer(ctx)
	if viewer == nil {
		ctx.Redirect(http.StatusFound, middleware.LoginURL)
		return models.User{}, false
	}
	var user models.User
	if err := a.db.First(&user, viewer.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// stale session for a deleted account
			utils.ClearSessionCookie(ctx)
			ctx.Redirect(http.StatusFound, middleware.LoginURL)
			return models.User{}, false
		}
		renderServerError(ctx, err)
		return models.User{}, false
	}
	return user, true
}

func (a *AuthController) renderAuthPage(ctx *gin.Context, tmpl, formError string) {
	data := baseData(ctx)
	data["FormError"] = formError
	ctx.HTML(http.StatusOK, tmpl, data)
}

func (a *AuthController) renderProfileForm(ctx *gin.Context, user models.User, formError string) {
	data := baseData(ctx)
	data["User"] = user
	data["FormError"] = formError
	ctx.HTML(http.StatusOK, "user_form.html", data)
}
