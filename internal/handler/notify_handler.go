package handler

import (
	"net/http"

	"deskbot-go/internal/notify"
	"deskbot-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 桌面端与开发环境的前端来源不固定
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotifyHandler 负责建立视图刷新信号的 WebSocket 连接。
type NotifyHandler struct {
	hub *notify.Hub
}

// NewNotifyHandler 创建一个新的 NotifyHandler 实例。
func NewNotifyHandler(hub *notify.Hub) *NotifyHandler {
	return &NotifyHandler{hub: hub}
}

// Serve 把 HTTP 连接升级为 WebSocket 并挂入通知 Hub。
// 连接只用于服务端到客户端的单向推送，读循环仅消费控制帧并感知断开。
func (h *NotifyHandler) Serve(c *gin.Context) {
	user := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("升级 WebSocket 连接失败: %v", err)
		return
	}

	h.hub.Register(user.ID, conn)

	go func() {
		defer func() {
			h.hub.Unregister(user.ID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
