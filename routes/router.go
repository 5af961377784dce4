package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/controllers"
	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/templates"
	"github.com/blogicum/blogicum/utils"
)

// SetupRouter wires routes, middlewares and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.SetHTMLTemplate(templates.Load())

	// Access log goes to its own rolling file via zap; fall back to the
	// default recovery when the logger cannot be initialized.
	gl, err := utils.NewRollingFileLogger(cfg.GinLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.RequestID())
	r.Use(middleware.CurrentViewer())

	feedController := controllers.NewFeedController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	authController := controllers.NewAuthController(db)

	r.GET("/", feedController.Index)
	r.GET("/category/:slug/", feedController.Category)
	r.GET("/profile/:username/", feedController.Profile)

	// Adding a comment posts to the bare post id, matching the legacy URL
	// scheme the templates link to.
	r.POST("/:post_id/", middleware.LoginRequired(), middleware.RateLimitMiddleware(), commentController.Add)

	posts := r.Group("/posts")
	posts.GET("/:post_id/", feedController.Detail)

	ownPosts := posts.Group("", middleware.LoginRequired(), middleware.RateLimitMiddleware())
	ownPosts.GET("/create/", postController.CreateForm)
	ownPosts.POST("/create/", postController.Create)
	ownPosts.GET("/:post_id/edit/", postController.EditForm)
	ownPosts.POST("/:post_id/edit/", postController.Edit)
	ownPosts.GET("/:post_id/delete/", postController.DeleteConfirm)
	ownPosts.POST("/:post_id/delete/", postController.Delete)
	ownPosts.GET("/:post_id/edit_comment/:comment_id/", commentController.EditForm)
	ownPosts.POST("/:post_id/edit_comment/:comment_id/", commentController.Edit)
	ownPosts.GET("/:post_id/delete_comment/:comment_id/", commentController.DeleteConfirm)
	ownPosts.POST("/:post_id/delete_comment/:comment_id/", commentController.Delete)

	auth := r.Group("/auth", middleware.RateLimitMiddleware())
	auth.GET("/login/", authController.LoginForm)
	auth.POST("/login/", authController.Login)
	auth.GET("/logout/", authController.Logout)
	auth.GET("/registration/", authController.RegistrationForm)
	auth.POST("/registration/", authController.Register)

	r.GET("/edit_profile/", middleware.LoginRequired(), authController.EditProfileForm)
	r.POST("/edit_profile/", middleware.LoginRequired(), middleware.RateLimitMiddleware(), authController.EditProfile)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.HTML(http.StatusNotFound, "404.html", gin.H{"Viewer": middleware.Viewer(ctx)})
	})

	return r
}
