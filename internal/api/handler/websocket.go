package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/0xredpill/site_go_server/internal/pkg/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要验证 Origin
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// Handle WebSocket 连接处理。评论变更是公开数据，订阅不要求登录。
// GET /api/v1/ws?post_slug=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	postSlug := c.Query("post_slug")
	if postSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing post_slug"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &ws.Client{
		PostSlug: postSlug,
		Conn:     conn,
	}

	// 订阅的生命周期跟随进程，不跟随这次 HTTP 请求
	if err := h.hub.Register(context.Background(), client); err != nil {
		log.Printf("Failed to register ws client for post %s: %v", postSlug, err)
		conn.Close()
		return
	}

	// 保持连接，读取消息（主要用于检测断开）
	go func() {
		defer func() {
			h.hub.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
