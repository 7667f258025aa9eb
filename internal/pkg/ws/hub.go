package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/0xredpill/site_go_server/internal/pkg/changefeed"
)

// Hub 按文章 slug 维护浏览器连接，把变更通道的事件转发给订阅该文章的所有连接。
// 某个 slug 的第一个连接注册时才建立 feed 订阅，最后一个断开时取消。
type Hub struct {
	feed changefeed.Feed

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	cancels map[string]changefeed.CancelFunc
}

// Client 单个浏览器连接
type Client struct {
	PostSlug string
	Conn     *websocket.Conn
	mu       sync.Mutex // 写锁，防止并发写入
}

// Message 推送给浏览器的消息
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(feed changefeed.Feed) *Hub {
	return &Hub{
		feed:    feed,
		clients: make(map[string]map[*Client]struct{}),
		cancels: make(map[string]changefeed.CancelFunc),
	}
}

// Register 注册连接，必要时建立该文章的变更订阅
func (h *Hub) Register(ctx context.Context, client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	slug := client.PostSlug
	if h.clients[slug] == nil {
		h.clients[slug] = make(map[*Client]struct{})
	}
	h.clients[slug][client] = struct{}{}

	if _, ok := h.cancels[slug]; !ok && h.feed != nil {
		cancel, err := h.feed.Subscribe(ctx, slug, func(event changefeed.Event) {
			h.SendToPost(event.PostSlug, &Message{Type: "comment_change", Data: event})
		})
		if err != nil {
			delete(h.clients[slug], client)
			if len(h.clients[slug]) == 0 {
				delete(h.clients, slug)
			}
			return err
		}
		h.cancels[slug] = cancel
	}

	log.Printf("Client subscribed to post %s, conns: %d", slug, len(h.clients[slug]))
	return nil
}

// Unregister 注销连接，该文章没有连接时取消变更订阅
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	slug := client.PostSlug
	var cancel changefeed.CancelFunc

	if conns, ok := h.clients[slug]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, slug)
			cancel = h.cancels[slug]
			delete(h.cancels, slug)
		}
	}
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	log.Printf("Client unsubscribed from post %s", slug)
}

// SendToPost 向订阅指定文章的所有连接推送消息
func (h *Hub) SendToPost(postSlug string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[postSlug]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	// 复制一份引用，避免长时间持锁
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			log.Printf("SendToPost write error for post %s: %v", postSlug, err)
		}
	}
	return nil
}

// SubscriberCount 指定文章的在线连接数
func (h *Hub) SubscriberCount(postSlug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[postSlug])
}

// ConnectionCount 总连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
