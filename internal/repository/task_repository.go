package repository

import (
	"deskbot-go/internal/model"

	"gorm.io/gorm"
)

// TaskRepository 接口定义了任务数据的持久化操作。
type TaskRepository interface {
	ListByWorkspace(workspaceID, userID uint) ([]model.Task, error)
	ListByUser(userID uint) ([]model.Task, error)
	FindByID(id, userID uint) (*model.Task, error)
	Create(task *model.Task) error
	UpdateFields(id, userID uint, fields map[string]interface{}) error
	Delete(id, userID uint) error
	DeleteByWorkspace(workspaceID, userID uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建一个新的 TaskRepository 实例。
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// ListByWorkspace 列出工作区内的全部任务，按主键倒序（最新的在前）。
func (r *taskRepository) ListByWorkspace(workspaceID, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Order("id DESC").Find(&tasks).Error
	return tasks, err
}

// ListByUser 列出用户在所有工作区下的任务（general 范围的上下文组装用）。
func (r *taskRepository) ListByUser(userID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&tasks).Error
	return tasks, err
}

// FindByID 查找属于指定用户的任务。
func (r *taskRepository) FindByID(id, userID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Create 创建一个新任务。
func (r *taskRepository) Create(task *model.Task) error {
	return r.db.Create(task).Error
}

// UpdateFields 对任务做部分字段更新，后写覆盖先写，不做乐观并发检查。
func (r *taskRepository) UpdateFields(id, userID uint, fields map[string]interface{}) error {
	return r.db.Model(&model.Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error
}

// Delete 删除任务，已删除的 id 再次删除不报错。
func (r *taskRepository) Delete(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Task{}).Error
}

// DeleteByWorkspace 删除工作区下的全部任务（工作区级联删除用）。
func (r *taskRepository) DeleteByWorkspace(workspaceID, userID uint) error {
	return r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).Delete(&model.Task{}).Error
}
