package app

import (
	"edulearn_backend/docs"
	"edulearn_backend/internal/config"
	"edulearn_backend/internal/middleware"
	"edulearn_backend/internal/model"

	"edulearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 学员授权路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerLearnerRoutes(authGroup, c)

		// 3. 讲师相关接口
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 证书校验对外公开，第三方凭编号+校验码验证真伪
		public.POST("/certificates/verify", c.certificate.Verify)

		// 课程目录：游客可浏览，登录用户可见选课状态
		public.GET("/courses", middleware.TryAuthMiddleware(a.Config), c.course.GetCatalog)
		public.GET("/courses/:courseId", middleware.TryAuthMiddleware(a.Config), c.course.GetDetail)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/user/profile", c.user.UpdateProfile)
	rg.POST("/user/avatar/upload", c.user.UploadAvatar)

	// 选课
	rg.POST("/courses/:courseId/enroll", c.enrollment.Enroll)
	rg.GET("/courses/:courseId/status", c.enrollment.GetStatus)
	rg.GET("/enrollments", c.enrollment.ListMine)

	// 学习进度
	rg.POST("/courses/:courseId/lessons/:lessonId/complete", c.progress.CompleteLesson)
	rg.POST("/courses/:courseId/lessons/:lessonId/quiz", c.progress.SubmitQuiz)
	rg.GET("/courses/:courseId/progress", c.progress.GetProgress)
	rg.POST("/courses/:courseId/progress/reset", c.progress.ResetProgress)

	// 书签与笔记
	rg.POST("/courses/:courseId/bookmarks", c.progress.AddBookmark)
	rg.DELETE("/courses/:courseId/bookmarks/:bookmarkId", c.progress.RemoveBookmark)
	rg.POST("/courses/:courseId/notes", c.progress.AddNote)
	rg.PUT("/courses/:courseId/notes/:noteId", c.progress.UpdateNote)
	rg.DELETE("/courses/:courseId/notes/:noteId", c.progress.RemoveNote)

	// 证书
	rg.GET("/certificates", c.certificate.ListMine)
	rg.GET("/courses/:courseId/certificate", c.certificate.Download)

	// 通知
	rg.GET("/notifications", c.notification.List)
	rg.PUT("/notifications/:id/read", c.notification.MarkRead)
	rg.PUT("/notifications/read-all", c.notification.MarkAllRead)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor, model.Admin))
	{
		instructor.POST("/courses", c.course.Create)
		instructor.GET("/courses", c.course.ListMine)
		instructor.POST("/courses/:courseId/publish", c.course.Publish)
	}
}
