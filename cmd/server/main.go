package main

import (
	"fmt"
	"log"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/api"
	"github.com/0xredpill/site_go_server/internal/api/handler"
	"github.com/0xredpill/site_go_server/internal/database"
	"github.com/0xredpill/site_go_server/internal/pkg/changefeed"
	"github.com/0xredpill/site_go_server/internal/pkg/cron"
	"github.com/0xredpill/site_go_server/internal/pkg/imgur"
	"github.com/0xredpill/site_go_server/internal/pkg/oauth"
	"github.com/0xredpill/site_go_server/internal/pkg/oss"
	"github.com/0xredpill/site_go_server/internal/pkg/queue"
	"github.com/0xredpill/site_go_server/internal/pkg/ws"
	"github.com/0xredpill/site_go_server/internal/repository"
	"github.com/0xredpill/site_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 评论变更通道 + WebSocket Hub
	feed := changefeed.NewRedisFeed(rdb)
	wsHub := ws.NewHub(feed)

	// 通知队列
	notifyQueue := queue.NewQueue(rdb, cfg.Notify.QueueName)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo, ossClient, cfg)
	commentService := service.NewCommentService(commentRepo, userRepo, feed, notifyQueue, cfg)
	postService, err := service.NewPostService(&cfg.Content)
	if err != nil {
		log.Fatalf("Failed to init post service: %v", err)
	}
	galleryService := service.NewGalleryService(imgur.NewClient(cfg.Imgur.ClientID), rdb, &cfg.Imgur)

	// OAuth state 存储
	stateStore := oauth.NewStateStore(rdb)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService, stateStore)
	userHandler := handler.NewUserHandler(userService)
	postHandler := handler.NewPostHandler(postService)
	commentHandler := handler.NewCommentHandler(commentService)
	galleryHandler := handler.NewGalleryHandler(galleryService)
	websocketHandler := handler.NewWebSocketHandler(wsHub)

	// 定时任务：相册缓存刷新 + 孤儿回复清理
	cronService := cron.NewService(galleryService, commentRepo, cfg.Imgur.RefreshMinutes)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		postHandler,
		commentHandler,
		galleryHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
