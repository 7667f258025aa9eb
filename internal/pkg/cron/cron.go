package cron

import (
	"context"
	"log"
	"time"

	"github.com/0xredpill/site_go_server/internal/repository"
	"github.com/0xredpill/site_go_server/internal/service"
)

type Service struct {
	galleryService *service.GalleryService
	commentRepo    *repository.CommentRepository
	refreshEvery   time.Duration
	stopChan       chan struct{}
}

func NewService(
	galleryService *service.GalleryService,
	commentRepo *repository.CommentRepository,
	refreshMinutes int,
) *Service {
	refresh := time.Duration(refreshMinutes) * time.Minute
	if refresh <= 0 {
		refresh = 30 * time.Minute
	}

	return &Service{
		galleryService: galleryService,
		commentRepo:    commentRepo,
		refreshEvery:   refresh,
		stopChan:       make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runGalleryRefresh()
	go s.runOrphanCleanup()
	log.Println("Cron service started (gallery refresh + orphan cleanup)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runGalleryRefresh 定期回源 Imgur 刷新相册缓存，避免请求命中冷缓存
func (s *Service) runGalleryRefresh() {
	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.refreshGallery()
		}
	}
}

func (s *Service) refreshGallery() {
	if s.galleryService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	images, err := s.galleryService.Refresh(ctx)
	if err != nil {
		log.Printf("Gallery refresh failed: %v", err)
		return
	}
	log.Printf("Gallery refresh completed: %d images", len(images))
}

// runOrphanCleanup 每天清理一次父评论已被删除的孤儿回复
func (s *Service) runOrphanCleanup() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanupOrphans()
		}
	}
}

func (s *Service) cleanupOrphans() {
	if s.commentRepo == nil {
		return
	}

	ids, err := s.commentRepo.FindOrphanReplyIDs()
	if err != nil {
		log.Printf("Orphan cleanup: failed to query orphan replies: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	deleted, err := s.commentRepo.DeleteByIDs(ids)
	if err != nil {
		log.Printf("Orphan cleanup: failed to delete: %v", err)
		return
	}
	log.Printf("Orphan cleanup: removed %d orphan replies", deleted)
}

// RunNow 立即执行一次相册刷新（用于测试或手动触发）
func (s *Service) RunNow() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, err := s.galleryService.Refresh(ctx)
	return err
}
