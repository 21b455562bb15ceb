// Package service 包含了应用的业务逻辑层。
package service

import (
	"fmt"
	"strings"

	"deskbot-go/internal/model"
	"deskbot-go/internal/repository"
	"deskbot-go/pkg/log"
)

// ContextAssembler 负责组装每轮对话随用户消息一起提交给模型的上下文文本：
// 当前工作区的任务清单加上各文档的内容前缀。
// 刻意不做任何检索、去重或摘要——整个作用域的内容按固定顺序推入上下文，
// 仅靠截断长度约束请求体积。
type ContextAssembler struct {
	taskRepo        repository.TaskRepository
	docRepo         repository.DocumentRepository
	docContentLimit int
}

// NewContextAssembler 创建一个新的 ContextAssembler。
// docContentLimit 是每个文档内容前缀的截断长度（字节）。
func NewContextAssembler(taskRepo repository.TaskRepository, docRepo repository.DocumentRepository, docContentLimit int) *ContextAssembler {
	return &ContextAssembler{
		taskRepo:        taskRepo,
		docRepo:         docRepo,
		docContentLimit: docContentLimit,
	}
}

// BuildForWorkspace 读取作用域内的任务与文档并渲染上下文。
// workspaceID 为 nil 表示 general 范围：取用户全部任务，不附带文档。
// 读取失败退化为空列表，保证对话视图始终可用。
func (a *ContextAssembler) BuildForWorkspace(userID uint, workspaceID *uint) string {
	var tasks []model.Task
	var docs []model.Document
	var err error

	if workspaceID == nil {
		tasks, err = a.taskRepo.ListByUser(userID)
	} else {
		tasks, err = a.taskRepo.ListByWorkspace(*workspaceID, userID)
	}
	if err != nil {
		log.Warnf("组装上下文时读取任务失败（按空列表处理）: %v", err)
		tasks = nil
	}

	if workspaceID != nil {
		docs, err = a.docRepo.ListByWorkspace(*workspaceID, userID)
		if err != nil {
			log.Warnf("组装上下文时读取文档失败（按空列表处理）: %v", err)
			docs = nil
		}
	}

	return RenderContext(tasks, docs, a.docContentLimit)
}

// RenderContext 将任务与文档快照渲染为上下文文本。
// 这是一个纯函数：相同的快照与截断长度得到逐字节相同的输出。
// 顺序保持入参顺序，不排序；文档内容按字节硬截断，可能切在词中间。
func RenderContext(tasks []model.Task, docs []model.Document, docContentLimit int) string {
	var b strings.Builder

	if len(tasks) == 0 {
		b.WriteString("TASKS: None.")
	} else {
		b.WriteString("TASKS:\n")
		for _, t := range tasks {
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.String()
			}
			b.WriteString(fmt.Sprintf("%s | %s | %s\n", t.Title, due, t.Status))
		}
	}

	for _, d := range docs {
		content := d.Content
		if len(content) > docContentLimit {
			content = content[:docContentLimit]
		}
		b.WriteString(fmt.Sprintf("\nFILE: %s\nCONTENT: %s", d.Filename, content))
	}

	return b.String()
}

// TruncateContent 按字节硬截断文档内容，摘要和思维导图等调用点共用。
func TruncateContent(content string, limit int) string {
	if len(content) > limit {
		return content[:limit]
	}
	return content
}
