package model

import "time"

// Document 定义了 documents 表的 ORM 模型。
// Content 是上传时提取出的纯文本，创建后不再修改；
// 原始文件字节保存在对象存储中，以 ObjectKey 定位。
type Document struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	WorkspaceID uint      `gorm:"index;not null" json:"workspaceId"`
	Filename    string    `gorm:"type:varchar(255);not null" json:"filename"`
	Content     string    `gorm:"type:longtext" json:"-"`
	ObjectKey   string    `gorm:"type:varchar(255)" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}
