package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/policy"
	"github.com/blogicum/blogicum/utils"
)

// ContextViewerKey is the key under which the resolved viewer is stored in
// the gin context.
const ContextViewerKey = "viewer"

// LoginURL is where anonymous callers of protected routes are sent.
const LoginURL = "/auth/login/"

// CurrentViewer resolves the session into a viewer identity. Anonymous
// requests pass through with no viewer set; an invalid or revoked session is
// treated the same as no session.
func CurrentViewer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := sessionToken(ctx)
		if token == "" || utils.IsTokenBlacklisted(token) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Set(ContextViewerKey, &policy.Viewer{ID: claims.UserID, Username: claims.Username})
		ctx.Next()
	}
}

// LoginRequired redirects anonymous callers to the login page.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if Viewer(ctx) == nil {
			ctx.Redirect(http.StatusFound, LoginURL)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// Viewer returns the viewer resolved by CurrentViewer, or nil for anonymous
// requests.
func Viewer(ctx *gin.Context) *policy.Viewer {
	value, exists := ctx.Get(ContextViewerKey)
	if !exists {
		return nil
	}
	viewer, _ := value.(*policy.Viewer)
	return viewer
}

// sessionToken extracts the session token from the cookie, falling back to a
// bearer Authorization header.
func sessionToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(utils.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
