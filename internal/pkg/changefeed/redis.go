package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

const channelCommentChanges = "comment_changes"

// RedisFeed 基于 Redis Pub/Sub 的变更通道，多实例部署下所有节点都能收到事件
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

// Publish 发布变更事件
func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	return f.client.Publish(ctx, channelCommentChanges, data).Err()
}

// Subscribe 订阅指定文章的变更事件
func (f *RedisFeed) Subscribe(ctx context.Context, postSlug string, h Handler) (CancelFunc, error) {
	pubsub := f.client.Subscribe(ctx, channelCommentChanges)

	// 确认订阅成功，避免丢失紧随其后的事件
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	var mu sync.Mutex
	closed := false

	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}
			if event.PostSlug != postSlug {
				continue
			}

			mu.Lock()
			if closed {
				mu.Unlock()
				return
			}
			h(event)
			mu.Unlock()
		}
	}()

	cancel := func() {
		mu.Lock()
		closed = true
		mu.Unlock()
		if err := pubsub.Close(); err != nil {
			log.Printf("changefeed: failed to close subscription: %v", err)
		}
	}

	return cancel, nil
}
