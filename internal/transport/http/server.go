package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/ai"
	appsvc "portfolio-backend/internal/app"
	"portfolio-backend/internal/bootstrap"
	"portfolio-backend/internal/history"
	"portfolio-backend/internal/ingest"
	"portfolio-backend/internal/platform/rabbitmq"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/transport/http/handler"
	"portfolio-backend/internal/transport/http/middleware"
	"portfolio-backend/internal/vectorstore"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.Static("/images", app.Config.Resume.ImageDir)

	projectRepo := repository.NewProjectRepository(app.MySQL)
	skillRepo := repository.NewSkillRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		app.Config.Auth.AdminUsername,
		app.Config.Auth.AdminPasswordHash,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	catalogService := appsvc.NewCatalogService(projectRepo, skillRepo, app.Config.Resume.ImageDir, app.Logger)

	llmClient := ai.NewOpenAICompatibleClient()
	chatCfg := ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	}
	embedder := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.EmbeddingModel,
	})

	historyTTL := time.Duration(app.Config.Session.TTLSeconds) * time.Second
	historyStore := history.NewStore(app.Redis, historyTTL, app.Config.Resume.HistoryTurns)
	turnPublisher := rabbitmq.NewTurnPublisher(app.MQConn, app.Config.RabbitMQ.TurnArchiveQueue)

	resumeService := appsvc.NewResumeService(
		ingest.New(app.Config.Resume.ArtifactDir),
		vectorstore.NewStore(app.Config.Resume.VectorRoot),
		embedder,
		llmClient,
		chatCfg,
		historyStore,
		turnPublisher,
		app.Logger,
		appsvc.ResumeOptions{
			ChunkSize:     app.Config.Resume.ChunkSize,
			ChunkOverlap:  app.Config.Resume.ChunkOverlap,
			TopK:          app.Config.Resume.TopK,
			HistoryTurns:  app.Config.Resume.HistoryTurns,
			ToolCallLimit: app.Config.Resume.ToolCallLimit,
		},
	)

	authHandler := handler.NewAuthHandler(authService)
	portfolioHandler := handler.NewPortfolioHandler(catalogService)
	skillHandler := handler.NewSkillHandler(catalogService)
	resumeHandler := handler.NewResumeHandler(resumeService)

	adminOnly := middleware.AuthJWT(app.Config.Auth.JWTSecret)
	withSession := middleware.Session(app.Config.Session.CookieName, app.Config.Session.TTLSeconds)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)

	v1.GET("/details", portfolioHandler.Details)

	projects := v1.Group("/projects")
	projects.GET("", portfolioHandler.ListProjects)
	projects.GET("/:id", portfolioHandler.GetProject)
	projects.POST("", adminOnly, portfolioHandler.CreateProject)
	projects.PUT("/:id", adminOnly, portfolioHandler.UpdateProject)
	projects.DELETE("/:id", adminOnly, portfolioHandler.DeleteProject)

	skills := v1.Group("/skills")
	skills.GET("", skillHandler.List)
	skills.GET("/:id", skillHandler.Get)
	skills.POST("", adminOnly, skillHandler.Create)
	skills.PUT("/:id", adminOnly, skillHandler.Update)
	skills.DELETE("/:id", adminOnly, skillHandler.Delete)
	skills.DELETE("/:id/projects", adminOnly, skillHandler.Detach)

	resume := v1.Group("/resume")
	resume.GET("", resumeHandler.Download)
	resume.POST("", adminOnly, resumeHandler.Upload)

	chat := v1.Group("/chat")
	chat.Use(withSession)
	chat.POST("", resumeHandler.Ask)
	chat.DELETE("/history", resumeHandler.ClearHistory)

	return router
}
