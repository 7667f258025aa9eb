package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/imgur"
)

const galleryCacheKey = "gallery:images"

// GalleryService 相册图片列表，Imgur 数据 + Redis 缓存
type GalleryService struct {
	client   *imgur.Client
	rdb      *redis.Client
	username string
	cacheTTL time.Duration
}

func NewGalleryService(client *imgur.Client, rdb *redis.Client, cfg *config.ImgurConfig) *GalleryService {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &GalleryService{
		client:   client,
		rdb:      rdb,
		username: cfg.Username,
		cacheTTL: ttl,
	}
}

// Images 返回全部图片（按时间倒序）。优先读缓存，miss 时回源 Imgur。
func (s *GalleryService) Images(ctx context.Context) ([]*dto.GalleryImage, error) {
	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, galleryCacheKey).Bytes()
		if err == nil {
			var images []*dto.GalleryImage
			if err := json.Unmarshal(data, &images); err == nil {
				return images, nil
			}
		}
	}

	return s.Refresh(ctx)
}

// Refresh 强制回源并写缓存
func (s *GalleryService) Refresh(ctx context.Context) ([]*dto.GalleryImage, error) {
	raw, err := s.client.AllImages(ctx, s.username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch imgur images: %w", err)
	}

	images := make([]*dto.GalleryImage, len(raw))
	for i, img := range raw {
		images[i] = &dto.GalleryImage{
			ID:       img.ID,
			Datetime: img.Datetime,
			Width:    img.Width,
			Height:   img.Height,
			Link:     img.Link,
		}
	}

	if s.rdb != nil {
		data, err := json.Marshal(images)
		if err == nil {
			if err := s.rdb.Set(ctx, galleryCacheKey, data, s.cacheTTL).Err(); err != nil {
				log.Printf("Failed to cache gallery images: %v", err)
			}
		}
	}

	return images, nil
}
