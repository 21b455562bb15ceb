package repository

import (
	"deskbot-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了文档数据的持久化操作。
type DocumentRepository interface {
	ListByWorkspace(workspaceID, userID uint) ([]model.Document, error)
	FindByID(id, userID uint) (*model.Document, error)
	Create(doc *model.Document) error
	Delete(id, userID uint) error
	DeleteByWorkspace(workspaceID, userID uint) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// ListByWorkspace 列出工作区内的全部文档，按插入顺序。
func (r *documentRepository) ListByWorkspace(workspaceID, userID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Order("id ASC").Find(&docs).Error
	return docs, err
}

// FindByID 查找属于指定用户的文档。
func (r *documentRepository) FindByID(id, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create 创建一个新文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// Delete 删除文档，已删除的 id 再次删除不报错。
func (r *documentRepository) Delete(id, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Document{}).Error
}

// DeleteByWorkspace 删除工作区下的全部文档（工作区级联删除用）。
func (r *documentRepository) DeleteByWorkspace(workspaceID, userID uint) error {
	return r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).Delete(&model.Document{}).Error
}
