// Package pipeline 包含异步的后台处理流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"deskbot-go/internal/config"
	"deskbot-go/internal/repository"
	"deskbot-go/pkg/es"
	"deskbot-go/pkg/events"
	"deskbot-go/pkg/log"

	"gorm.io/gorm"
)

// Indexer 消费文档索引事件，把文档文本写入 Elasticsearch。
// 索引是上传的异步衍生步骤：失败重试由消费端控制，不影响上传本身。
type Indexer struct {
	docRepo repository.DocumentRepository
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(docRepo repository.DocumentRepository) *Indexer {
	return &Indexer{docRepo: docRepo}
}

// Process 处理单个索引任务。事件到达时文档可能已被用户删除，
// 此时任务直接作废而不是报错重试。
func (ix *Indexer) Process(ctx context.Context, task events.DocumentIndexTask) error {
	doc, err := ix.docRepo.FindByID(task.DocumentID, task.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("索引任务的文档已不存在，跳过: documentID=%d", task.DocumentID)
			return nil
		}
		return fmt.Errorf("查询文档失败: %w", err)
	}

	return es.IndexDocument(ctx, config.Conf.Elasticsearch.IndexName, es.Document{
		DocumentID:  doc.ID,
		UserID:      doc.UserID,
		WorkspaceID: doc.WorkspaceID,
		Filename:    doc.Filename,
		Content:     doc.Content,
	})
}
