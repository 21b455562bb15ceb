package repository

import (
	"deskbot-go/internal/model"

	"gorm.io/gorm"
)

// ChatMessageRepository 接口定义了聊天记录的持久化操作。
// 聊天记录只追加：正常流程不更新也不删除。
type ChatMessageRepository interface {
	// ListByWorkspace 按 created_at 升序列出某个工作区（或 general 分区，
	// workspaceID 传 nil）的消息，用于展示和上下文重建。
	ListByWorkspace(workspaceID *uint, userID uint) ([]model.ChatMessage, error)
	Create(msg *model.ChatMessage) error
	// ReassignToGeneral 将某工作区下的消息改挂到 general 分区
	//（工作区删除时避免悬空引用）。
	ReassignToGeneral(workspaceID, userID uint) error
}

type chatMessageRepository struct {
	db *gorm.DB
}

// NewChatMessageRepository 创建一个新的 ChatMessageRepository 实例。
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

// ListByWorkspace 实现见接口说明。主键作为 created_at 相同时的次序键，
// 保证两条相邻写入在回放时顺序稳定。
func (r *chatMessageRepository) ListByWorkspace(workspaceID *uint, userID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	q := r.db.Where("user_id = ?", userID)
	if workspaceID == nil {
		q = q.Where("workspace_id IS NULL")
	} else {
		q = q.Where("workspace_id = ?", *workspaceID)
	}
	err := q.Order("created_at ASC, id ASC").Find(&messages).Error
	return messages, err
}

// Create 追加一条聊天消息。
func (r *chatMessageRepository) Create(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

// ReassignToGeneral 实现见接口说明。
func (r *chatMessageRepository) ReassignToGeneral(workspaceID, userID uint) error {
	return r.db.Model(&model.ChatMessage{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("workspace_id", nil).Error
}
