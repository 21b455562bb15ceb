// Package llm 封装了 Gemini 生成式模型客户端：
// 按 (用户, 工作区) 维护多轮会话，支持声明式函数工具与内联图片。
package llm

import (
	"context"
	"fmt"
	"sync"

	"deskbot-go/internal/config"
	"deskbot-go/pkg/log"

	"google.golang.org/genai"
)

// Client 定义了大模型客户端的接口。
type Client interface {
	// Converse 在 sessionKey 对应的多轮会话中发送一条消息并返回最终回复文本。
	// 模型在回合中发起的工具调用由 req.Tools 中的处理器同步执行。
	Converse(ctx context.Context, sessionKey string, req ConverseRequest) (string, error)
	// Generate 发起一次无会话状态的单轮生成。
	Generate(ctx context.Context, prompt string) (string, error)
	// ResetSession 丢弃 sessionKey 对应的会话历史。
	ResetSession(sessionKey string)
	// ResetSessionsByPrefix 丢弃所有以 prefix 开头的会话（如登出时按用户清理）。
	ResetSessionsByPrefix(prefix string)
}

// ConverseRequest 描述一轮对话的输入。
type ConverseRequest struct {
	System    string // 系统前导（含当前日期等指令）
	Context   string // 组装好的工作区上下文
	Message   string // 用户消息
	ImageData []byte // 可选的内联图片
	ImageMIME string
	Tools     []Tool // 本轮可用的工具，处理器携带调用方当前的作用域
}

// maxToolRounds 限制一轮对话中工具调用的往返次数，防止模型循环调用。
const maxToolRounds = 4

type geminiClient struct {
	client *genai.Client
	cfg    config.GeminiConfig

	mu       sync.Mutex
	sessions map[string]*genai.Chat
}

// NewClient 创建一个新的 Gemini 客户端。
func NewClient(ctx context.Context, cfg config.GeminiConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key 未配置")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &geminiClient{
		client:   c,
		cfg:      cfg,
		sessions: make(map[string]*genai.Chat),
	}, nil
}

// Converse 实现一轮带工具调用的对话。
func (c *geminiClient) Converse(ctx context.Context, sessionKey string, req ConverseRequest) (string, error) {
	chat, err := c.session(ctx, sessionKey, req.Tools)
	if err != nil {
		return "", err
	}

	parts := []genai.Part{
		{Text: req.System},
		{Text: "CONTEXT:\n" + req.Context},
		{Text: "USER: " + req.Message},
	}
	if len(req.ImageData) > 0 {
		parts = append(parts, genai.Part{
			InlineData: &genai.Blob{MIMEType: req.ImageMIME, Data: req.ImageData},
		})
	}

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("调用模型失败: %w", err)
	}

	// 工具调用在模型回合内同步执行，结果以 FunctionResponse 回传，
	// 直到模型给出纯文本回复为止。
	for round := 0; round < maxToolRounds; round++ {
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			break
		}
		frParts := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result := dispatch(ctx, req.Tools, call)
			frParts = append(frParts, genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: map[string]any{"result": result},
				},
			})
		}
		resp, err = chat.SendMessage(ctx, frParts...)
		if err != nil {
			return "", fmt.Errorf("回传工具结果失败: %w", err)
		}
	}

	return finalReply(resp.Text(), len(resp.FunctionCalls())), nil
}

// finalReply 收敛一轮对话的最终文本。轮次用尽时模型可能仍在请求
// 工具调用而没有给出任何文本，此时返回一条可读的提示而不是空串。
func finalReply(text string, pendingCalls int) string {
	if text == "" && pendingCalls > 0 {
		return "I couldn't complete the requested actions. Please try rephrasing your request."
	}
	return text
}

// Generate 实现一次无状态的单轮生成。
func (c *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), c.generationConfig(nil))
	if err != nil {
		return "", fmt.Errorf("调用模型失败: %w", err)
	}
	return resp.Text(), nil
}

// ResetSession 丢弃单个会话。
func (c *geminiClient) ResetSession(sessionKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionKey)
}

// ResetSessionsByPrefix 丢弃所有带指定前缀的会话。
func (c *geminiClient) ResetSessionsByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.sessions {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.sessions, key)
		}
	}
}

// session 返回 sessionKey 对应的多轮会话，不存在则创建。
// 工具声明在会话创建时固定；处理器每次调用都来自当前请求，
// 因此工具总是作用于调用方当下的工作区而非声明时的。
func (c *geminiClient) session(ctx context.Context, sessionKey string, tools []Tool) (*genai.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chat, ok := c.sessions[sessionKey]; ok {
		return chat, nil
	}

	chat, err := c.client.Chats.Create(ctx, c.cfg.Model, c.generationConfig(tools), nil)
	if err != nil {
		return nil, fmt.Errorf("创建模型会话失败: %w", err)
	}
	c.sessions[sessionKey] = chat
	log.Infof("已创建模型会话: %s", sessionKey)
	return chat, nil
}

// generationConfig 从配置注入生成参数与工具声明。
func (c *geminiClient) generationConfig(tools []Tool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if c.cfg.Generation.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(c.cfg.Generation.Temperature))
	}
	if c.cfg.Generation.TopP != 0 {
		cfg.TopP = genai.Ptr(float32(c.cfg.Generation.TopP))
	}
	if c.cfg.Generation.MaxOutputTokens != 0 {
		cfg.MaxOutputTokens = int32(c.cfg.Generation.MaxOutputTokens)
	}
	if decls := declarations(tools); decls != nil {
		cfg.Tools = decls
	}
	return cfg
}
