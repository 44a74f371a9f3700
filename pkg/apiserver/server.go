package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/ai"
	"github.com/grantforge/grantforge/pkg/apiserver/handlers"
	"github.com/grantforge/grantforge/pkg/apiserver/middleware"
	"github.com/grantforge/grantforge/pkg/auth"
	"github.com/grantforge/grantforge/pkg/config"
	"github.com/grantforge/grantforge/pkg/eventbus"
	"github.com/grantforge/grantforge/pkg/store/postgres"
	redisclient "github.com/grantforge/grantforge/pkg/store/redis"
)

type Server struct {
	router   *gin.Engine
	db       *postgres.Store
	redis    *redisclient.Client
	reviewer ai.Reviewer
	cfg      *config.Config
	logger   *zap.Logger
	tokens   *auth.TokenManager
	bus      *eventbus.Bus
}

func NewServer(db *postgres.Store, redis *redisclient.Client, reviewer ai.Reviewer, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		db:       db,
		redis:    redis,
		reviewer: reviewer,
		cfg:      cfg,
		logger:   logger,
		tokens:   auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
	}
	if redis != nil {
		s.bus = eventbus.NewBus(redis.Client())
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.GET("/health", s.health)

	authHandler := handlers.NewAuthHandler(s.db, s.tokens, s.logger)

	public := r.Group("/api/v1")
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
	}

	api := r.Group("/api/v1")
	{
		api.Use(middleware.Auth(s.tokens))

		api.POST("/auth/change-password", authHandler.ChangePassword)

		companyHandler := handlers.NewCompanyHandler(s.db, s.logger)
		api.GET("/companies", companyHandler.List)
		api.POST("/companies", companyHandler.Create)
		api.GET("/companies/:id", companyHandler.Get)
		api.PUT("/companies/:id", companyHandler.Update)
		api.DELETE("/companies/:id", companyHandler.Delete)
		api.POST("/companies/:id/archive", companyHandler.Archive)
		api.POST("/companies/:id/unarchive", companyHandler.Unarchive)

		userHandler := handlers.NewUserHandler(s.db, s.logger)
		api.GET("/users", userHandler.List)

		projectHandler := handlers.NewProjectHandler(s.db, s.logger, s.bus)
		api.GET("/projects", projectHandler.List)
		api.POST("/projects", projectHandler.Create)
		api.GET("/projects/:id", projectHandler.Get)
		api.PUT("/projects/:id", projectHandler.Update)
		api.DELETE("/projects/:id", projectHandler.Delete)
		api.POST("/projects/:id/archive", projectHandler.Archive)
		api.POST("/projects/:id/unarchive", projectHandler.Unarchive)
		api.POST("/projects/:id/complete", projectHandler.Complete)
		api.GET("/projects/:id/versions", projectHandler.ListVersions)
		api.POST("/projects/:id/compile", projectHandler.Compile)
		api.GET("/projects/:id/narratives", projectHandler.ListNarratives)

		approvalHandler := handlers.NewApprovalHandler(s.db, s.logger, s.bus)
		api.POST("/projects/:id/approval-requests", approvalHandler.Request)
		api.GET("/projects/:id/approval-requests", approvalHandler.History)
		api.POST("/projects/:id/approval-rescind", approvalHandler.Rescind)
		api.POST("/approval-requests/:id/respond", approvalHandler.Respond)
		api.GET("/approvals/pending", approvalHandler.Pending)

		questionHandler := handlers.NewQuestionHandler(s.db, s.cfg.Upload, s.logger, s.bus)
		api.GET("/projects/:id/questions", questionHandler.List)
		api.POST("/projects/:id/questions", questionHandler.Create)
		api.GET("/projects/:id/questions/:qid", questionHandler.Get)
		api.PUT("/projects/:id/questions/:qid", questionHandler.Update)
		api.DELETE("/projects/:id/questions/:qid", questionHandler.Delete)
		api.POST("/projects/:id/questions/:qid/assign", questionHandler.Assign)
		api.GET("/projects/:id/questions/:qid/assignments", questionHandler.ListAssignments)
		api.POST("/projects/:id/parse-document", questionHandler.ParseDocument)
		api.POST("/projects/:id/parse-text", questionHandler.ParseText)

		fileHandler := handlers.NewFileHandler(s.db, s.cfg.Upload, s.logger)
		api.POST("/files", fileHandler.Upload)
		api.GET("/files", fileHandler.List)
		api.GET("/files/:id/download", fileHandler.Download)

		aiHandler := handlers.NewAIHandler(s.db, s.reviewer, s.cfg.AI.Model, s.logger)
		api.POST("/projects/:id/review", aiHandler.Review)
		api.GET("/projects/:id/reviews", aiHandler.ListReviews)

		adminHandler := handlers.NewAdminHandler(s.db, s.logger)
		api.GET("/admin/pending-users", adminHandler.PendingUsers)
		api.POST("/admin/users/:id/approve", adminHandler.ApproveUser)
		api.GET("/admin/approvals", adminHandler.ApprovalHistory)
	}

	s.router = r
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.redis != nil {
		resp["notifications"] = "ok"
		if err := s.redis.Ping(c.Request.Context()); err != nil {
			resp["notifications"] = "unavailable"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
