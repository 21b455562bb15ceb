package service

import (
	"context"
	"errors"
	"fmt"

	"deskbot-go/internal/model"
	"deskbot-go/internal/repository"
	"deskbot-go/pkg/llm"
	"deskbot-go/pkg/log"

	"gorm.io/gorm"
)

// ErrWorkspaceNotFound 表示目标工作区不存在或不属于当前用户。
var ErrWorkspaceNotFound = errors.New("工作区不存在")

// WorkspaceService 定义了工作区的业务逻辑接口，
// 包括每个会话的激活工作区选择状态。
type WorkspaceService interface {
	List(userID uint) ([]model.Workspace, error)
	Create(userID uint, title string) (*model.Workspace, error)
	// Delete 级联删除工作区：任务与文档随之删除，聊天记录改挂 general 分区。
	Delete(ctx context.Context, id, userID uint) error
	// ResolveActive 解析会话当前的激活工作区，保证总能返回一个有效的工作区：
	// 记住的选择失效时回退到最近创建的，一个都没有时自动创建默认工作区。
	ResolveActive(ctx context.Context, sessionKey string, userID uint) (*model.Workspace, error)
	// SwitchActive 切换会话的激活工作区。
	SwitchActive(ctx context.Context, sessionKey string, userID, workspaceID uint) (*model.Workspace, error)
}

type workspaceService struct {
	wsRepo      repository.WorkspaceRepository
	taskRepo    repository.TaskRepository
	chatRepo    repository.ChatMessageRepository
	sessionRepo repository.SessionRepository
	docService  DocumentService
	llmClient   llm.Client
	notifier    Notifier
}

// NewWorkspaceService 创建一个新的 WorkspaceService 实例。
func NewWorkspaceService(wsRepo repository.WorkspaceRepository, taskRepo repository.TaskRepository,
	chatRepo repository.ChatMessageRepository, sessionRepo repository.SessionRepository,
	docService DocumentService, llmClient llm.Client, notifier Notifier) WorkspaceService {
	return &workspaceService{
		wsRepo:      wsRepo,
		taskRepo:    taskRepo,
		chatRepo:    chatRepo,
		sessionRepo: sessionRepo,
		docService:  docService,
		llmClient:   llmClient,
		notifier:    notifier,
	}
}

// List 列出用户的全部工作区。
func (s *workspaceService) List(userID uint) ([]model.Workspace, error) {
	return s.wsRepo.ListByUser(userID)
}

// Create 创建一个新工作区。
func (s *workspaceService) Create(userID uint, title string) (*model.Workspace, error) {
	if title == "" {
		return nil, fmt.Errorf("工作区标题不能为空")
	}
	ws := &model.Workspace{UserID: userID, Title: title}
	if err := s.wsRepo.Create(ws); err != nil {
		return nil, fmt.Errorf("创建工作区失败: %w", err)
	}
	s.notifier.Refresh(userID, "workspaces")
	return ws, nil
}

// Delete 实现见接口说明。会话记住的选择不在此处修正：
// 下一次 ResolveActive 会发现选择失效并自动回退。
func (s *workspaceService) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.wsRepo.FindByID(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkspaceNotFound
		}
		return fmt.Errorf("查询工作区失败: %w", err)
	}

	if err := s.taskRepo.DeleteByWorkspace(id, userID); err != nil {
		return fmt.Errorf("删除工作区任务失败: %w", err)
	}
	if err := s.docService.DeleteByWorkspace(ctx, id, userID); err != nil {
		return fmt.Errorf("删除工作区文档失败: %w", err)
	}
	if err := s.chatRepo.ReassignToGeneral(id, userID); err != nil {
		return fmt.Errorf("迁移工作区聊天记录失败: %w", err)
	}
	if err := s.wsRepo.Delete(id, userID); err != nil {
		return fmt.Errorf("删除工作区失败: %w", err)
	}

	// 该作用域的模型会话随工作区一起作废
	s.llmClient.ResetSession(llmSessionKey(userID, &id))

	s.notifier.Refresh(userID, "workspaces")
	return nil
}

// ResolveActive 实现见接口说明。
func (s *workspaceService) ResolveActive(ctx context.Context, sessionKey string, userID uint) (*model.Workspace, error) {
	activeID, err := s.sessionRepo.GetActiveWorkspace(ctx, sessionKey)
	if err != nil {
		// 会话状态读不到不阻断解析，走回退路径
		log.Warnf("读取会话激活工作区失败（走回退）: %v", err)
		activeID = 0
	}

	if activeID != 0 {
		ws, err := s.wsRepo.FindByID(activeID, userID)
		if err == nil {
			return ws, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("查询工作区失败: %w", err)
		}
		// 记住的工作区已被删除，继续回退
	}

	workspaces, err := s.wsRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("查询工作区列表失败: %w", err)
	}

	var ws *model.Workspace
	if len(workspaces) > 0 {
		ws = &workspaces[0]
	} else {
		ws = &model.Workspace{UserID: userID, Title: model.DefaultWorkspaceTitle}
		if err := s.wsRepo.Create(ws); err != nil {
			return nil, fmt.Errorf("创建默认工作区失败: %w", err)
		}
		log.Infof("为用户 %d 自动创建默认工作区 %d", userID, ws.ID)
	}

	if err := s.sessionRepo.SetActiveWorkspace(ctx, sessionKey, ws.ID); err != nil {
		log.Warnf("写入会话激活工作区失败: %v", err)
	}
	return ws, nil
}

// SwitchActive 实现见接口说明。
func (s *workspaceService) SwitchActive(ctx context.Context, sessionKey string, userID, workspaceID uint) (*model.Workspace, error) {
	ws, err := s.wsRepo.FindByID(workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("查询工作区失败: %w", err)
	}
	if err := s.sessionRepo.SetActiveWorkspace(ctx, sessionKey, ws.ID); err != nil {
		return nil, err
	}
	return ws, nil
}
