// Package router assembles the HTTP surface: middleware, public and
// protected route groups, the ops endpoints and the swagger UI.
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "empire/internal/docs" // Import swagger docs
	"empire/internal/handlers"
	"empire/internal/middleware"
	"empire/internal/services"
	"empire/internal/timeutil"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Users        services.UserServicer
	Transactions services.TransactionServicer
	Goals        services.GoalServicer
	Workouts     services.WorkoutServicer
	Journals     services.JournalServicer
	Trash        services.TrashServicer
	Snapshots    services.SnapshotServicer
	Dashboard    services.DashboardServicer
	Audit        services.AuditServicer

	Tokens   *middleware.TokenIssuer
	Calendar *timeutil.Calendar
	Jobs     handlers.JobRunner

	PipelineAPIKey string
	Production     bool
	Health         func(ctx context.Context) error
}

// New builds the gin engine with every route registered.
func New(deps Deps) *gin.Engine {
	middleware.ExposeErrorDetail(!deps.Production)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Audit)
	budgetHandler := handlers.NewBudgetHandler(deps.Transactions, deps.Audit, deps.Calendar)
	goalHandler := handlers.NewGoalHandler(deps.Goals, deps.Audit, deps.Calendar)
	workoutHandler := handlers.NewWorkoutHandler(deps.Workouts, deps.Audit, deps.Calendar)
	journalHandler := handlers.NewJournalHandler(deps.Journals, deps.Audit, deps.Calendar)
	trashHandler := handlers.NewTrashHandler(deps.Trash, deps.Audit)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard, deps.Snapshots, deps.Calendar)
	jobsHandler := handlers.NewJobsHandler(deps.Jobs, deps.Calendar)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.GET("/health", healthHandler.Health)

	// Public auth routes
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/signin", authHandler.Signin)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)

	budget := protected.Group("/budget")
	budget.GET("", budgetHandler.GetTransactions)
	budget.POST("", budgetHandler.CreateTransaction)
	budget.GET("/stats", budgetHandler.GetStats)
	budget.GET("/:id", budgetHandler.GetTransactionByID)
	budget.PUT("/:id", budgetHandler.UpdateTransaction)
	budget.DELETE("/:id", budgetHandler.DeleteTransaction)

	goals := protected.Group("/goals")
	goals.GET("", goalHandler.GetGoals)
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("/stats", goalHandler.GetStats)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.PATCH("/:id/tasks/:taskId", goalHandler.ToggleTask)
	goals.DELETE("/:id", goalHandler.DeleteGoal)

	workouts := protected.Group("/workouts")
	workouts.GET("/template", workoutHandler.GetTemplate)
	workouts.PUT("/template", workoutHandler.UpdateTemplate)
	workouts.GET("/current", workoutHandler.GetCurrent)
	workouts.PUT("/current", workoutHandler.UpdateCurrent)
	workouts.GET("/history", workoutHandler.GetHistory)
	workouts.POST("/archive-all", workoutHandler.ArchiveAll)
	workouts.PATCH("/:weekId/:day/:exerciseId/toggle", workoutHandler.ToggleExercise)
	workouts.POST("/:weekId/archive", workoutHandler.ArchiveWeek)
	workouts.POST("/:weekId/sync", workoutHandler.SyncWithTemplate)
	workouts.DELETE("/:weekId", workoutHandler.DeleteWeek)

	journal := protected.Group("/journal")
	journal.GET("", journalHandler.GetJournals)
	journal.POST("", journalHandler.CreateJournal)
	journal.GET("/stats", journalHandler.GetStats)
	journal.GET("/:id", journalHandler.GetJournal)
	journal.PUT("/:id", journalHandler.UpdateJournal)
	journal.DELETE("/:id", journalHandler.DeleteJournal)

	trash := protected.Group("/trash")
	trash.GET("", trashHandler.ListTrash)
	trash.POST("", trashHandler.MoveToTrash)
	trash.DELETE("/empty", trashHandler.Empty)
	trash.POST("/:id/restore", trashHandler.Restore)
	trash.DELETE("/:id", trashHandler.DeleteItem)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("/stats", dashboardHandler.GetStats)
	dashboard.GET("/weekly", dashboardHandler.GetWeekly)
	dashboard.GET("/day/:date", dashboardHandler.GetDay)
	dashboard.GET("/history", dashboardHandler.GetHistory)
	dashboard.POST("/snapshot", dashboardHandler.ComputeSnapshot)
	dashboard.POST("/backfill", dashboardHandler.Backfill)

	// Ops triggers, keyed separately from user auth
	jobs := api.Group("/jobs")
	jobs.Use(middleware.PipelineAuthMiddleware(deps.PipelineAPIKey))
	jobs.POST("/:job", jobsHandler.RunJob)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
