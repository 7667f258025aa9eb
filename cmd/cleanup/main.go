package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/repository"
)

var (
	dryRun = flag.Bool("dry-run", true, "Dry run mode, don't actually delete rows")
)

func main() {
	flag.Parse()

	log.Println("Starting comment cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 连接数据库
	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	commentRepo := repository.NewCommentRepository(db)

	// 查找父评论已被删除的孤儿回复
	ids, err := commentRepo.FindOrphanReplyIDs()
	if err != nil {
		log.Fatalf("Failed to query orphan replies: %v", err)
	}

	if len(ids) == 0 {
		log.Println("No orphan replies found")
		return
	}

	log.Printf("Found %d orphan replies: %v", len(ids), ids)

	if *dryRun {
		log.Println("DRY RUN MODE - No rows were actually deleted")
		log.Println("Run with -dry-run=false to actually delete rows")
		return
	}

	deleted, err := commentRepo.DeleteByIDs(ids)
	if err != nil {
		log.Fatalf("Failed to delete orphan replies: %v", err)
	}
	log.Printf("Cleanup completed: deleted %d orphan replies", deleted)
}

// connectDB 连接数据库
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
