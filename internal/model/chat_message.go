package model

import "time"

// 聊天消息的角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 定义了 chat_history 表的 ORM 模型。
// WorkspaceID 为 NULL 表示消息属于跨工作区的 general 分区。
// 该表是只追加的日志，正常流程中不更新也不删除。
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	WorkspaceID *uint     `gorm:"index" json:"workspaceId"`
	Role        string    `gorm:"type:varchar(16);not null" json:"role"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ImageData   *string   `gorm:"type:longtext" json:"imageData,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatMessage) TableName() string {
	return "chat_history"
}
