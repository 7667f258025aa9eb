package changefeed

import (
	"context"
	"sync"
)

// MemoryFeed 进程内变更通道，用于单机部署和测试
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[int64]*memorySub
	next int64
}

type memorySub struct {
	postSlug string
	handler  Handler

	mu     sync.Mutex
	closed bool
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{
		subs: make(map[int64]*memorySub),
	}
}

// Publish 同步投递给所有匹配的订阅者
func (f *MemoryFeed) Publish(ctx context.Context, event Event) error {
	f.mu.Lock()
	matched := make([]*memorySub, 0, len(f.subs))
	for _, sub := range f.subs {
		if sub.postSlug == event.PostSlug {
			matched = append(matched, sub)
		}
	}
	f.mu.Unlock()

	for _, sub := range matched {
		sub.mu.Lock()
		if !sub.closed {
			sub.handler(event)
		}
		sub.mu.Unlock()
	}
	return nil
}

// Subscribe 订阅指定文章的变更事件
func (f *MemoryFeed) Subscribe(ctx context.Context, postSlug string, h Handler) (CancelFunc, error) {
	sub := &memorySub{postSlug: postSlug, handler: h}

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	cancel := func() {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()

		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}

	return cancel, nil
}

// SubscriberCount 当前订阅者数量
func (f *MemoryFeed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
