package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workboard/internal/board"
	"workboard/internal/config"
	"workboard/internal/handler"
	"workboard/internal/hub"
	"workboard/internal/middleware"
	"workboard/internal/migrations"
	"workboard/internal/remote"
	"workboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Boards *hub.Hub
	Config *config.Config
	Log    *logrus.Logger
}

func Init(cfg *config.Config) (*Server, error) {
	log := logrus.New()
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.MigrateURL(), log); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
	}

	// Setup GORM
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Info("✅ Connected to database")

	// Change feed and read cache. Without redis the feed stays inside this process.
	var (
		rc       *redis.Client
		pub      repository.Publisher
		notifier board.Notifier
		cache    = remote.NewCache(nil, 0)
	)
	if cfg.RedisAddr != "" {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rc.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("❌ failed to connect to redis: %w", err)
		}
		log.Info("✅ Connected to redis")

		feed := remote.NewFeed(rc, cfg.RedisChannel, log.WithField("component", "feed"))
		cache = remote.NewCache(rc, cfg.CacheTTL)
		pub = cache.Publisher(feed)
		notifier = feed
	} else {
		log.Warn("⚠️  REDIS_ADDR not set, using in-process change feed and no cache")
		local := remote.NewLocalFeed(log.WithField("component", "feed"))
		pub = local
		notifier = local
	}

	// Initialize repositories
	statusRepo := repository.NewStatusRepository(db, pub)
	taskRepo := repository.NewTaskRepository(db, pub)
	departmentRepo := repository.NewDepartmentRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	userRepo := repository.NewUserRepository(db)

	store := remote.NewStore(statusRepo, taskRepo, cache)
	boards := hub.New(store, notifier, log.WithField("component", "board"))

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiry, log)
	workspaceHandler := handler.NewWorkspaceHandler(departmentRepo, boards, log)
	memberHandler := handler.NewMemberHandler(departmentRepo, departmentRepo, memberRepo, userRepo, memberRepo, log)
	boardHandler := handler.NewBoardHandler(boards, departmentRepo, memberRepo, log)
	statusHandler := handler.NewStatusHandler(boards, departmentRepo, memberRepo, statusRepo, log)
	taskHandler := handler.NewTaskHandler(boards, departmentRepo, memberRepo, taskRepo, log)

	// Setup Gin
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log.WithField("component", "http")))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Workspace routes
		authorized.POST("/workspaces", workspaceHandler.CreateWorkspace)
		authorized.POST("/workspaces/:id/departments", workspaceHandler.CreateDepartment)
		authorized.GET("/workspaces/:id/departments", workspaceHandler.ListDepartments)

		// Member routes
		authorized.POST("/departments/:id/members", memberHandler.AddMember)
		authorized.GET("/departments/:id/members", memberHandler.ListMembers)
		authorized.DELETE("/departments/:id/members/:user_id", memberHandler.RemoveMember)

		// Board routes
		authorized.GET("/departments/:id/board", boardHandler.GetDepartmentBoard)
		authorized.GET("/departments/:id/board/events", boardHandler.DepartmentEvents)
		authorized.POST("/departments/:id/board/tasks/:task_id/move", boardHandler.MoveDepartmentTask)
		authorized.GET("/workspaces/:id/board", boardHandler.GetWorkspaceBoard)
		authorized.GET("/workspaces/:id/board/events", boardHandler.WorkspaceEvents)
		authorized.POST("/workspaces/:id/board/tasks/:task_id/move", boardHandler.MoveWorkspaceTask)

		// Status routes
		authorized.POST("/departments/:id/statuses", statusHandler.Create)
		authorized.POST("/departments/:id/statuses/reorder", statusHandler.Reorder)
		authorized.PUT("/statuses/:id", statusHandler.Update)
		authorized.DELETE("/statuses/:id", statusHandler.Delete)

		// Task routes
		authorized.POST("/departments/:id/tasks", taskHandler.Create)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Redis:  rc,
		Boards: boards,
		Config: cfg,
		Log:    log,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	// Let background persists finish before the connections go away.
	s.Boards.Close()
	if s.Redis != nil {
		_ = s.Redis.Close()
	}

	s.Log.Info("✅ Server exited properly")
}
