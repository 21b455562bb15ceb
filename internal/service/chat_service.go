package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"deskbot-go/internal/model"
	"deskbot-go/internal/repository"
	"deskbot-go/pkg/llm"
	"deskbot-go/pkg/log"
)

// Notifier 向视图层推送刷新信号，由 websocket hub 实现。
type Notifier interface {
	Refresh(userID uint, scope string)
}

// SendMessageRequest 描述一轮对话的输入。
// 作用域判定：WorkspaceID 显式给定时用它；General 为 true 时走
// general 范围（消息落在 NULL 分区）；两者都缺省时解析会话当前的
// 激活工作区。
type SendMessageRequest struct {
	Message     string
	WorkspaceID *uint
	General     bool
	SessionKey  string // 激活工作区解析用的会话标识
	ImageData   string // 可选，base64 编码的位图
}

// activeWorkspaceResolver 是对话控制器解析缺省作用域所需的最小接口，
// 由 WorkspaceService 实现。
type activeWorkspaceResolver interface {
	ResolveActive(ctx context.Context, sessionKey string, userID uint) (*model.Workspace, error)
}

// ChatService 定义了对话控制器的接口：驱动一轮完整的聊天。
type ChatService interface {
	// SendMessage 执行一轮对话并返回已持久化的用户与助手两条消息。
	SendMessage(ctx context.Context, user *model.User, req SendMessageRequest) (userMsg, assistantMsg *model.ChatMessage, err error)
	// History 按 created_at 升序返回作用域内的聊天记录。
	History(ctx context.Context, userID uint, workspaceID *uint) ([]model.ChatMessage, error)
}

type chatService struct {
	chatRepo  repository.ChatMessageRepository
	taskRepo  repository.TaskRepository
	assembler *ContextAssembler
	llmClient llm.Client
	resolver  activeWorkspaceResolver
	notifier  Notifier
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(chatRepo repository.ChatMessageRepository, taskRepo repository.TaskRepository,
	assembler *ContextAssembler, llmClient llm.Client, resolver activeWorkspaceResolver, notifier Notifier) ChatService {
	return &chatService{
		chatRepo:  chatRepo,
		taskRepo:  taskRepo,
		assembler: assembler,
		llmClient: llmClient,
		resolver:  resolver,
		notifier:  notifier,
	}
}

// SendMessage 驱动一轮对话：
//  1. 先持久化用户消息——即使后续模型调用失败，用户可见的消息也不丢失；
//  2. 组装当前作用域的上下文；
//  3. 经 (用户, 工作区) 维度的多轮会话调用模型，建任务工具绑定本次请求的工作区；
//  4. 持久化助手回复；模型调用失败时把错误描述作为回复文本落库，不向上抛；
//  5. 通知视图层刷新。
//
// 整个流程不做任何重试：失败即本轮终局。
func (s *chatService) SendMessage(ctx context.Context, user *model.User, req SendMessageRequest) (*model.ChatMessage, *model.ChatMessage, error) {
	if req.Message == "" {
		return nil, nil, fmt.Errorf("消息内容不能为空")
	}

	scope := s.resolveScope(ctx, user.ID, req)

	userMsg := &model.ChatMessage{
		UserID:      user.ID,
		WorkspaceID: scope,
		Role:        model.RoleUser,
		Content:     req.Message,
	}
	if req.ImageData != "" {
		img := req.ImageData
		userMsg.ImageData = &img
	}
	if err := s.chatRepo.Create(userMsg); err != nil {
		// 写失败按静默 no-op 处理：对话视图不能因后端抖动而不可用
		log.Errorf("持久化用户消息失败: %v", err)
	}

	contextText := s.assembler.BuildForWorkspace(user.ID, scope)

	convReq := llm.ConverseRequest{
		System:  systemPreamble(time.Now()),
		Context: contextText,
		Message: req.Message,
		Tools:   []llm.Tool{s.addTaskTool(user.ID, scope)},
	}
	if req.ImageData != "" {
		raw, err := base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			log.Warnf("图片 base64 解码失败，忽略图片: %v", err)
		} else {
			convReq.ImageData = raw
			convReq.ImageMIME = http.DetectContentType(raw)
		}
	}

	reply, err := s.llmClient.Converse(ctx, llmSessionKey(user.ID, scope), convReq)
	if err != nil {
		// 错误进入对话记录而不是向上抛：用户总能在转录里看到结果
		reply = fmt.Sprintf("AI Error: %v", err)
	}

	assistantMsg := &model.ChatMessage{
		UserID:      user.ID,
		WorkspaceID: scope,
		Role:        model.RoleAssistant,
		Content:     reply,
	}
	if err := s.chatRepo.Create(assistantMsg); err != nil {
		log.Errorf("持久化助手消息失败: %v", err)
	}

	s.notifier.Refresh(user.ID, "chat")
	return userMsg, assistantMsg, nil
}

// resolveScope 判定本轮对话的工作区作用域。
// 显式的 workspaceId 优先；general 标志强制 NULL 分区；
// 两者都缺省时解析会话当前的激活工作区。解析失败退到 general，
// 保证对话视图始终可用。
func (s *chatService) resolveScope(ctx context.Context, userID uint, req SendMessageRequest) *uint {
	if req.WorkspaceID != nil {
		return req.WorkspaceID
	}
	if req.General {
		return nil
	}
	ws, err := s.resolver.ResolveActive(ctx, req.SessionKey, userID)
	if err != nil {
		log.Warnf("解析激活工作区失败（本轮按 general 处理）: %v", err)
		return nil
	}
	return &ws.ID
}

// History 实现见接口说明。
func (s *chatService) History(ctx context.Context, userID uint, workspaceID *uint) ([]model.ChatMessage, error) {
	return s.chatRepo.ListByWorkspace(workspaceID, userID)
}

// systemPreamble 构造每轮固定的系统前导：声明当前日期，并约定
// 用户提到的钟点时间并入任务标题而不是时长字段。
func systemPreamble(now time.Time) string {
	return fmt.Sprintf("SYSTEM: Today is %s. "+
		"If the user states a wall-clock time, fold it into the task title rather than the duration. "+
		"Use the 'add_task' tool when the user wants to schedule something.",
		now.Format("2006-01-02"))
}

// llmSessionKey 生成模型会话的复合键：每个 (用户, 工作区) 一个会话，
// 工作区切换不会把模型侧的轮次历史带过去。
func llmSessionKey(userID uint, workspaceID *uint) string {
	if workspaceID == nil {
		return fmt.Sprintf("u%d:general", userID)
	}
	return fmt.Sprintf("u%d:ws%d", userID, *workspaceID)
}

// addTaskTool 构造建任务工具。工作区 id 来自本次请求的作用域，
// 以参数显式传入处理器，而不是依赖任何声明期捕获的状态。
func (s *chatService) addTaskTool(userID uint, workspaceID *uint) llm.Tool {
	return llm.Tool{
		Name:        "add_task",
		Description: "Adds a task to the user's active workspace. due_date_iso must be 'YYYY-MM-DD' format or omitted.",
		Params: []llm.ToolParam{
			{Name: "task_title", Type: "string", Description: "Title of the task", Required: true},
			{Name: "duration_minutes", Type: "integer", Description: "Estimated duration in minutes"},
			{Name: "due_date_iso", Type: "string", Description: "Due date in YYYY-MM-DD format"},
		},
		Handle: func(ctx context.Context, args map[string]any) string {
			if workspaceID == nil {
				return "Error: no active workspace to add the task to."
			}

			title, _ := args["task_title"].(string)
			if title == "" {
				return "Error: task title is required."
			}

			task := &model.Task{
				UserID:      userID,
				WorkspaceID: *workspaceID,
				Title:       title,
				EstMinutes:  coerceMinutes(args["duration_minutes"]),
				Status:      model.TaskStatusTodo,
			}
			dueText := ""
			if raw, ok := args["due_date_iso"].(string); ok && raw != "" {
				if due, err := model.ParseLocalDate(raw); err == nil {
					task.DueDate = &due
					dueText = due.String()
				}
			}

			if err := s.taskRepo.Create(task); err != nil {
				log.Errorf("工具建任务失败: %v", err)
				return "Error: could not save the task."
			}

			s.notifier.Refresh(userID, "tasks")
			if dueText != "" {
				return fmt.Sprintf("Added task: %s (Due: %s)", title, dueText)
			}
			return fmt.Sprintf("Added task: %s", title)
		},
	}
}

// coerceMinutes 把模型给出的时长参数收敛为正整数分钟数。
// 缺失、非整数或非正值一律回退到默认 60。
func coerceMinutes(raw any) int {
	switch v := raw.(type) {
	case float64:
		if v > 0 && v == float64(int(v)) {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	}
	return model.DefaultEstMinutes
}
