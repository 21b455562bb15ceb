// Package events 定义了投递到 Kafka 主题的事件负载结构。
package events

import (
	"time"

	"github.com/google/uuid"
)

// 事件类型常量。
const (
	TypeDocumentIndex = "document.index"
	TypeUserLogin     = "user.login"
)

// Envelope 是所有事件的统一外层结构，消费端根据 Type 分发。
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	DocumentIndex *DocumentIndexTask `json:"document_index,omitempty"`
	UserLogin     *UserLoginEvent    `json:"user_login,omitempty"`
}

// DocumentIndexTask 表示一个待索引到 Elasticsearch 的文档任务。
type DocumentIndexTask struct {
	DocumentID  uint   `json:"document_id"`
	UserID      uint   `json:"user_id"`
	WorkspaceID uint   `json:"workspace_id"`
	Filename    string `json:"filename"`
}

// UserLoginEvent 表示一次用户登录，供下游审计消费。
type UserLoginEvent struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	ClientIP string `json:"client_ip"`
}

// NewDocumentIndex 构造一个文档索引事件。
func NewDocumentIndex(task DocumentIndexTask) Envelope {
	return Envelope{
		ID:            uuid.NewString(),
		Type:          TypeDocumentIndex,
		CreatedAt:     time.Now(),
		DocumentIndex: &task,
	}
}

// NewUserLogin 构造一个用户登录事件。
func NewUserLogin(ev UserLoginEvent) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      TypeUserLogin,
		CreatedAt: time.Now(),
		UserLogin: &ev,
	}
}
