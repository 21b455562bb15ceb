// Package notify 通过 WebSocket 向已连接的前端推送视图刷新信号。
// 信号只携带作用域名称，不携带数据：前端收到后自行重新拉取对应列表。
package notify

import (
	"sync"

	"deskbot-go/pkg/log"

	"github.com/gorilla/websocket"
)

// refreshMessage 是推送给前端的刷新信号。
type refreshMessage struct {
	Type  string `json:"type"`
	Scope string `json:"scope"`
}

// Hub 管理每个用户的 WebSocket 连接集合。
// 一个用户可以有多个连接（多标签页），刷新信号广播到全部连接。
type Hub struct {
	mu    sync.Mutex
	conns map[uint]map[*websocket.Conn]struct{}
}

// NewHub 创建一个新的 Hub 实例。
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*websocket.Conn]struct{})}
}

// Register 登记一个用户连接。
func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	log.Infof("用户 %d 的通知连接已建立，当前连接数: %d", userID, len(h.conns[userID]))
}

// Unregister 移除一个用户连接。
func (h *Hub) Unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Refresh 向用户的所有连接广播一个刷新信号。
// 写失败的连接直接剔除，由客户端重连恢复。
func (h *Hub) Refresh(userID uint, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[userID]
	if !ok {
		return
	}
	msg := refreshMessage{Type: "refresh", Scope: scope}
	for conn := range set {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnf("推送刷新信号失败，移除连接: %v", err)
			conn.Close()
			delete(set, conn)
		}
	}
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}
