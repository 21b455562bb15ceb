// Package main 是应用程序的入口点。
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskbot-go/internal/config"
	"deskbot-go/internal/handler"
	"deskbot-go/internal/middleware"
	"deskbot-go/internal/model"
	"deskbot-go/internal/notify"
	"deskbot-go/internal/pipeline"
	"deskbot-go/internal/repository"
	"deskbot-go/internal/service"
	"deskbot-go/pkg/database"
	"deskbot-go/pkg/es"
	"deskbot-go/pkg/kafka"
	"deskbot-go/pkg/llm"
	"deskbot-go/pkg/log"
	"deskbot-go/pkg/storage"
	"deskbot-go/pkg/tika"
	"deskbot-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化存储与外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Fatalf("es 初始化失败: %v", err)
	}
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(
		&model.User{}, &model.LoginLog{}, &model.Workspace{},
		&model.Task{}, &model.Document{}, &model.ChatMessage{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	loginLogRepo := repository.NewLoginLogRepository(database.DB)
	wsRepo := repository.NewWorkspaceRepository(database.DB)
	taskRepo := repository.NewTaskRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	chatRepo := repository.NewChatMessageRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.RDB)
	blacklistRepo := repository.NewTokenBlacklistRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	llmClient, err := llm.NewClient(context.Background(), cfg.Gemini)
	if err != nil {
		log.Fatalf("初始化 Gemini 客户端失败: %v", err)
	}
	hub := notify.NewHub()

	assembler := service.NewContextAssembler(taskRepo, docRepo, cfg.Context.DocContentLimit)
	userService := service.NewUserService(userRepo, loginLogRepo, sessionRepo, blacklistRepo, jwtManager, llmClient)
	docService := service.NewDocumentService(docRepo, wsRepo, tikaClient, hub)
	wsService := service.NewWorkspaceService(wsRepo, taskRepo, chatRepo, sessionRepo, docService, llmClient, hub)
	taskService := service.NewTaskService(taskRepo, wsRepo, hub)
	chatService := service.NewChatService(chatRepo, taskRepo, assembler, llmClient, wsService, hub)
	studioService := service.NewStudioService(docRepo, llmClient, cfg.Context.SummaryDocLimit, cfg.Context.MindmapDocLimit)

	// 6. 启动后台 Kafka 消费者（异步文档索引）
	go kafka.StartConsumer(cfg.Kafka, pipeline.NewIndexer(docRepo))

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	authRequired := middleware.Auth(jwtManager, userRepo, blacklistRepo)
	userHandler := handler.NewUserHandler(userService)

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authed := users.Group("/")
			authed.Use(authRequired)
			{
				authed.POST("/logout", userHandler.Logout)
				authed.GET("/me", userHandler.Me)
			}
		}

		workspaces := apiV1.Group("/workspaces", authRequired)
		{
			wsHandler := handler.NewWorkspaceHandler(wsService)
			workspaces.GET("", wsHandler.List)
			workspaces.POST("", wsHandler.Create)
			workspaces.DELETE("/:id", wsHandler.Delete)
			workspaces.GET("/active", wsHandler.GetActive)
			workspaces.PUT("/active", wsHandler.SwitchActive)
		}

		tasks := apiV1.Group("/tasks", authRequired)
		{
			taskHandler := handler.NewTaskHandler(taskService)
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.PUT("/:id", taskHandler.Update)
			tasks.DELETE("/:id", taskHandler.Delete)
			tasks.GET("/calendar", taskHandler.Calendar)
		}

		documents := apiV1.Group("/documents", authRequired)
		{
			docHandler := handler.NewDocumentHandler(docService)
			documents.POST("/upload", docHandler.Upload)
			documents.GET("", docHandler.List)
			documents.DELETE("/:id", docHandler.Delete)
			documents.GET("/search", docHandler.Search)
			documents.GET("/:id/download", docHandler.Download)
		}

		chat := apiV1.Group("/chat", authRequired)
		{
			chatHandler := handler.NewChatHandler(chatService)
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/history", chatHandler.History)
		}

		studio := apiV1.Group("/studio", authRequired)
		{
			studioHandler := handler.NewStudioHandler(studioService)
			studio.POST("/summary", studioHandler.Summary)
			studio.POST("/mindmap", studioHandler.Mindmap)
		}

		apiV1.GET("/ws/notify", authRequired, handler.NewNotifyHandler(hub).Serve)
	}

	// 9. 启动服务器并支持优雅停机
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("服务器正在监听端口 %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("服务器关闭异常: %v", err)
	}
	log.Info("服务器已退出")
}
