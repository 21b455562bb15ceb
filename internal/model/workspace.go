package model

import "time"

// Workspace（也称 Notebook）是任务、文档和聊天记录的顶层分组。
// 每个用户至少会被保证有一个可解析的 Workspace（缺失时自动创建 "General"）。
type Workspace struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Workspace) TableName() string {
	return "workspaces"
}

// DefaultWorkspaceTitle 是为没有任何工作区的用户自动创建的默认工作区标题。
const DefaultWorkspaceTitle = "General"
