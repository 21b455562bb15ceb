package repository

import (
	"deskbot-go/internal/model"

	"gorm.io/gorm"
)

// LoginLogRepository 接口定义了登录审计记录的持久化操作。
type LoginLogRepository interface {
	Create(logEntry *model.LoginLog) error
}

type loginLogRepository struct {
	db *gorm.DB
}

// NewLoginLogRepository 创建一个新的 LoginLogRepository 实例。
func NewLoginLogRepository(db *gorm.DB) LoginLogRepository {
	return &loginLogRepository{db: db}
}

// Create 写入一条登录审计记录。
func (r *loginLogRepository) Create(logEntry *model.LoginLog) error {
	return r.db.Create(logEntry).Error
}
