package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"deskbot-go/internal/repository"
	"deskbot-go/pkg/llm"
)

// Studio 相关的业务错误。
var (
	// ErrNoDocuments 表示工作区内没有任何文档可供生成。
	ErrNoDocuments = errors.New("工作区内没有文档")
	// ErrNoMindmap 表示模型的回复里找不到任何 DOT 图。
	ErrNoMindmap = errors.New("模型未生成可渲染的思维导图")
)

// StudioService 定义了基于工作区文档的一次性生成功能：
// 执行摘要和 Graphviz 思维导图。两者都走无会话状态的单轮生成，
// 不影响聊天侧的多轮会话。
type StudioService interface {
	Summarize(ctx context.Context, workspaceID, userID uint) (string, error)
	// Mindmap 返回一段 Graphviz DOT 源码；topic 可选，作为图的主题提示
	//（通常是工作区标题）。回复里找不到 DOT 时返回 ErrNoMindmap。
	Mindmap(ctx context.Context, workspaceID, userID uint, topic string) (string, error)
}

type studioService struct {
	docRepo         repository.DocumentRepository
	llmClient       llm.Client
	summaryDocLimit int
	mindmapDocLimit int
}

// NewStudioService 创建一个新的 StudioService 实例。
func NewStudioService(docRepo repository.DocumentRepository, llmClient llm.Client,
	summaryDocLimit, mindmapDocLimit int) StudioService {
	return &studioService{
		docRepo:         docRepo,
		llmClient:       llmClient,
		summaryDocLimit: summaryDocLimit,
		mindmapDocLimit: mindmapDocLimit,
	}
}

// dotBlockRe 匹配模型回复中围栏包裹的 DOT 代码块。
var dotBlockRe = regexp.MustCompile("(?s)```(?:dot|graphviz)?\\s*\\n(.*?)\\n```")

// Summarize 把工作区内全部文档的内容拼接后让模型生成结构化摘要。
func (s *studioService) Summarize(ctx context.Context, workspaceID, userID uint) (string, error) {
	corpus, err := s.corpus(workspaceID, userID, s.summaryDocLimit)
	if err != nil {
		return "", err
	}

	prompt := corpus + "\n\nProvide a structured executive summary of these documents."
	out, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("生成摘要失败: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Mindmap 让模型基于文档内容产出 Graphviz DOT 图。
// 模型往往把代码包在围栏里，这里剥掉围栏只留 DOT 源码。
func (s *studioService) Mindmap(ctx context.Context, workspaceID, userID uint, topic string) (string, error) {
	corpus, err := s.corpus(workspaceID, userID, s.mindmapDocLimit)
	if err != nil {
		return "", err
	}

	prompt := corpus + "\n\nGenerate a mind map of the key concepts in these documents " +
		"as Graphviz DOT source. Use 'digraph' with rankdir=LR. " +
		"Output only the DOT code inside a ```dot fenced block."
	if topic != "" {
		prompt += fmt.Sprintf(" Center the map on the topic %q.", topic)
	}
	out, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("生成思维导图失败: %w", err)
	}

	if m := dotBlockRe.FindStringSubmatch(out); m != nil {
		return strings.TrimSpace(m[1]), nil
	}
	// 偶尔模型会省掉围栏直接输出 DOT 源码，按原样接受
	if trimmed := strings.TrimSpace(out); looksLikeDot(trimmed) {
		return trimmed, nil
	}
	return "", ErrNoMindmap
}

// looksLikeDot 判断一段文本是否直接以 DOT 图定义开头。
func looksLikeDot(s string) bool {
	for _, prefix := range []string{"digraph", "strict digraph", "graph", "strict graph"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// corpus 拼接工作区文档内容，每个文档按 limit 字节截断。
func (s *studioService) corpus(workspaceID, userID uint, limit int) (string, error) {
	docs, err := s.docRepo.ListByWorkspace(workspaceID, userID)
	if err != nil {
		return "", fmt.Errorf("查询工作区文档失败: %w", err)
	}
	if len(docs) == 0 {
		return "", ErrNoDocuments
	}

	var b strings.Builder
	for _, d := range docs {
		b.WriteString(fmt.Sprintf("FILE: %s\nCONTENT: %s\n\n", d.Filename, TruncateContent(d.Content, limit)))
	}
	return b.String(), nil
}
