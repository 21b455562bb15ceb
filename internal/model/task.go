package model

import "time"

// Task 的状态枚举。
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// DefaultEstMinutes 是任务预估时长的默认值（分钟）。
const DefaultEstMinutes = 60

// Task 定义了 tasks 表的 ORM 模型。
// 既可以由用户在表格中直接编辑，也可以由模型的建任务工具写入。
type Task struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"userId"`
	WorkspaceID uint       `gorm:"index;not null" json:"workspaceId"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	EstMinutes  int        `gorm:"not null;default:60" json:"estMinutes"`
	DueDate     *LocalDate `gorm:"type:date" json:"dueDate"`
	Status      string     `gorm:"type:varchar(16);not null;default:'todo'" json:"status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Task) TableName() string {
	return "tasks"
}

// ValidTaskStatus 判断给定字符串是否为合法的任务状态。
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}
