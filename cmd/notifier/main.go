package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/database"
	"github.com/0xredpill/site_go_server/internal/pkg/email"
	"github.com/0xredpill/site_go_server/internal/pkg/queue"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Notify.OwnerEmail == "" {
		log.Fatal("notify.owner_email is not configured")
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	notifyQueue := queue.NewQueue(rdb, cfg.Notify.QueueName)
	emailService := email.NewService(&cfg.Email)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	log.Printf("Notifier started, queue: %s", cfg.Notify.QueueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("Notifier shutdown complete")
			return
		default:
			msg, err := notifyQueue.Pop(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					log.Println("Notifier shutdown complete")
					return
				}
				log.Printf("Failed to pop notification: %v", err)
				continue
			}

			if msg == nil {
				continue // 超时，继续等待
			}

			postURL := fmt.Sprintf("%s/posts/%s", cfg.Notify.SiteURL, msg.PostSlug)
			err = emailService.SendCommentNotification(
				cfg.Notify.OwnerEmail,
				msg.AuthorName,
				msg.PostSlug,
				msg.Content,
				postURL,
				msg.ParentID != nil,
			)
			if err != nil {
				log.Printf("Failed to send notification for comment %d: %v", msg.CommentID, err)
				continue
			}
			log.Printf("Sent notification for comment %d on post %s", msg.CommentID, msg.PostSlug)
		}
	}
}
