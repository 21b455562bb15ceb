package repository

import (
	"deskbot-go/internal/model"

	"gorm.io/gorm"
)

// WorkspaceRepository 接口定义了工作区数据的持久化操作。
// 所有查询都以 userID 过滤，任何用户都不可见他人的记录。
type WorkspaceRepository interface {
	ListByUser(userID uint) ([]model.Workspace, error)
	FindByID(id, userID uint) (*model.Workspace, error)
	Create(ws *model.Workspace) error
	Delete(id, userID uint) error
}

type workspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository 创建一个新的 WorkspaceRepository 实例。
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

// ListByUser 按创建时间倒序列出用户的全部工作区。
func (r *workspaceRepository) ListByUser(userID uint) ([]model.Workspace, error) {
	var workspaces []model.Workspace
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&workspaces).Error
	return workspaces, err
}

// FindByID 查找属于指定用户的工作区。
func (r *workspaceRepository) FindByID(id, userID uint) (*model.Workspace, error) {
	var ws model.Workspace
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// Create 创建一个新的工作区。
func (r *workspaceRepository) Create(ws *model.Workspace) error {
	return r.db.Create(ws).Error
}

// Delete 删除属于指定用户的工作区，已删除的 id 再次删除不报错。
func (r *workspaceRepository) Delete(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Workspace{}).Error
}
