package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"deskbot-go/internal/config"
	"deskbot-go/internal/model"
	"deskbot-go/internal/repository"
	"deskbot-go/pkg/es"
	"deskbot-go/pkg/events"
	"deskbot-go/pkg/kafka"
	"deskbot-go/pkg/log"
	"deskbot-go/pkg/storage"
	"deskbot-go/pkg/tika"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 文档相关的业务错误。
var (
	ErrDocumentNotFound = errors.New("文档不存在")
	// ErrNoText 表示文件无法提取出任何文本（例如扫描版 PDF）。
	ErrNoText = errors.New("文件中没有可提取的文本")
)

// presignedURLExpiry 是下载链接的有效期。
const presignedURLExpiry = 15 * time.Minute

// DocumentService 定义了文档的业务逻辑接口。
// 上传时同步提取文本入库，原始字节进对象存储，全文索引走异步事件。
type DocumentService interface {
	Upload(ctx context.Context, userID, workspaceID uint, filename string, data []byte) (*model.Document, error)
	List(workspaceID, userID uint) ([]model.Document, error)
	Delete(ctx context.Context, id, userID uint) error
	DeleteByWorkspace(ctx context.Context, workspaceID, userID uint) error
	// Search 在用户的全部文档上做关键词检索，检索不可用时返回空结果。
	Search(ctx context.Context, userID uint, query string) ([]es.SearchHit, error)
	// DownloadURL 为原始文件生成限时下载链接。
	DownloadURL(id, userID uint) (string, error)
}

type documentService struct {
	docRepo    repository.DocumentRepository
	wsRepo     repository.WorkspaceRepository
	tikaClient *tika.Client
	notifier   Notifier
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(docRepo repository.DocumentRepository, wsRepo repository.WorkspaceRepository,
	tikaClient *tika.Client, notifier Notifier) DocumentService {
	return &documentService{
		docRepo:    docRepo,
		wsRepo:     wsRepo,
		tikaClient: tikaClient,
		notifier:   notifier,
	}
}

// Upload 处理一次文档上传：
// 校验工作区归属 → Tika 提取文本 → 原始字节进 MinIO → 落库 → 投递索引事件。
// 对象存储和事件投递失败不阻断上传，文本内容入库即视为成功。
func (s *documentService) Upload(ctx context.Context, userID, workspaceID uint, filename string, data []byte) (*model.Document, error) {
	if _, err := s.wsRepo.FindByID(workspaceID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("查询工作区失败: %w", err)
	}

	text, err := s.tikaClient.ExtractText(ctx, bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("提取文本失败: %w", err)
	}
	if text == "" {
		return nil, ErrNoText
	}

	objectKey := fmt.Sprintf("documents/%s_%s", uuid.NewString(), filename)
	if err := storage.PutObject(ctx, config.Conf.MinIO.BucketName, objectKey, "application/octet-stream", data); err != nil {
		log.Errorf("上传原始文件到对象存储失败（仅保留文本）: %v", err)
		objectKey = ""
	}

	doc := &model.Document{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Filename:    filename,
		Content:     text,
		ObjectKey:   objectKey,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("保存文档失败: %w", err)
	}

	ev := events.NewDocumentIndex(events.DocumentIndexTask{
		DocumentID:  doc.ID,
		UserID:      userID,
		WorkspaceID: workspaceID,
		Filename:    filename,
	})
	if err := kafka.Produce(ctx, ev); err != nil {
		log.Errorf("投递文档索引事件失败: documentID=%d, error: %v", doc.ID, err)
	}

	s.notifier.Refresh(userID, "documents")
	return doc, nil
}

// List 列出工作区内的文档。
func (s *documentService) List(workspaceID, userID uint) ([]model.Document, error) {
	return s.docRepo.ListByWorkspace(workspaceID, userID)
}

// Delete 删除文档及其派生数据（对象存储里的原始文件、检索索引）。
// 派生数据清理失败只记录，不阻断删除。
func (s *documentService) Delete(ctx context.Context, id, userID uint) error {
	doc, err := s.docRepo.FindByID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("查询文档失败: %w", err)
	}

	s.cleanupDerived(ctx, doc)

	if err := s.docRepo.Delete(id, userID); err != nil {
		return fmt.Errorf("删除文档失败: %w", err)
	}
	s.notifier.Refresh(userID, "documents")
	return nil
}

// DeleteByWorkspace 删除工作区下的全部文档（工作区级联删除用）。
func (s *documentService) DeleteByWorkspace(ctx context.Context, workspaceID, userID uint) error {
	docs, err := s.docRepo.ListByWorkspace(workspaceID, userID)
	if err != nil {
		return fmt.Errorf("查询工作区文档失败: %w", err)
	}
	for i := range docs {
		s.cleanupDerived(ctx, &docs[i])
	}
	return s.docRepo.DeleteByWorkspace(workspaceID, userID)
}

// cleanupDerived 清理文档的派生数据，失败仅记录。
func (s *documentService) cleanupDerived(ctx context.Context, doc *model.Document) {
	if doc.ObjectKey != "" {
		if err := storage.RemoveObject(ctx, config.Conf.MinIO.BucketName, doc.ObjectKey); err != nil {
			log.Errorf("删除对象存储文件失败: %s, error: %v", doc.ObjectKey, err)
		}
	}
	if err := es.DeleteDocument(ctx, config.Conf.Elasticsearch.IndexName, doc.ID); err != nil {
		log.Errorf("删除检索索引失败: documentID=%d, error: %v", doc.ID, err)
	}
}

// Search 实现见接口说明。
func (s *documentService) Search(ctx context.Context, userID uint, query string) ([]es.SearchHit, error) {
	hits, err := es.Search(ctx, config.Conf.Elasticsearch.IndexName, userID, query, 20)
	if err != nil {
		log.Errorf("文档检索失败（返回空结果）: %v", err)
		return []es.SearchHit{}, nil
	}
	return hits, nil
}

// DownloadURL 实现见接口说明。
func (s *documentService) DownloadURL(id, userID uint) (string, error) {
	doc, err := s.docRepo.FindByID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", fmt.Errorf("查询文档失败: %w", err)
	}
	if doc.ObjectKey == "" {
		return "", fmt.Errorf("该文档没有保留原始文件")
	}
	return storage.GetPresignedURL(config.Conf.MinIO.BucketName, doc.ObjectKey, presignedURLExpiry)
}
