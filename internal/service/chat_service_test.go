package service

import (
	"context"
	"errors"
	"testing"

	"deskbot-go/internal/model"
	"deskbot-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFixture() (*fakeChatRepo, *fakeTaskRepo, *fakeLLM, *fakeNotifier, ChatService) {
	svc, deps := newChatFixtureWithResolver(&fakeResolver{ws: &model.Workspace{ID: 1, UserID: 7, Title: "General"}})
	return deps.chatRepo, deps.taskRepo, deps.llmClient, deps.notifier, svc
}

type chatDeps struct {
	chatRepo  *fakeChatRepo
	taskRepo  *fakeTaskRepo
	llmClient *fakeLLM
	notifier  *fakeNotifier
}

func newChatFixtureWithResolver(resolver *fakeResolver) (ChatService, *chatDeps) {
	deps := &chatDeps{
		chatRepo:  &fakeChatRepo{},
		taskRepo:  &fakeTaskRepo{},
		llmClient: &fakeLLM{},
		notifier:  &fakeNotifier{},
	}
	assembler := NewContextAssembler(deps.taskRepo, &fakeDocRepo{}, 100)
	svc := NewChatService(deps.chatRepo, deps.taskRepo, assembler, deps.llmClient, resolver, deps.notifier)
	return svc, deps
}

func TestSendMessagePersistsBothTurns(t *testing.T) {
	chatRepo, _, llmClient, notifier, svc := newChatFixture()
	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		return "Sure thing.", nil
	}

	user := &model.User{ID: 7, Username: "alice"}
	wsID := uint(3)
	userMsg, assistantMsg, err := svc.SendMessage(context.Background(), user, SendMessageRequest{
		Message:     "hello",
		WorkspaceID: &wsID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleUser, userMsg.Role)
	assert.Equal(t, "hello", userMsg.Content)
	assert.Equal(t, model.RoleAssistant, assistantMsg.Role)
	assert.Equal(t, "Sure thing.", assistantMsg.Content)
	require.Len(t, chatRepo.messages, 2)
	assert.Equal(t, model.RoleUser, chatRepo.messages[0].Role)
	assert.Equal(t, model.RoleAssistant, chatRepo.messages[1].Role)
	assert.Contains(t, notifier.scopes, "chat")
}

func TestSendMessageUserTurnPersistedBeforeModelCall(t *testing.T) {
	chatRepo, _, llmClient, _, svc := newChatFixture()

	var persistedAtCall int
	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		persistedAtCall = len(chatRepo.messages)
		return "", errors.New("model unavailable")
	}

	user := &model.User{ID: 7}
	_, _, err := svc.SendMessage(context.Background(), user, SendMessageRequest{Message: "hi"})
	require.NoError(t, err)

	// 模型被调用时用户消息已经落库
	assert.Equal(t, 1, persistedAtCall)
}

func TestSendMessageEmbedsModelErrorAsReply(t *testing.T) {
	chatRepo, _, llmClient, _, svc := newChatFixture()
	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		return "", errors.New("quota exceeded")
	}

	user := &model.User{ID: 7}
	_, assistantMsg, err := svc.SendMessage(context.Background(), user, SendMessageRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Contains(t, assistantMsg.Content, "AI Error:")
	assert.Contains(t, assistantMsg.Content, "quota exceeded")
	require.Len(t, chatRepo.messages, 2)
	assert.Equal(t, assistantMsg.Content, chatRepo.messages[1].Content)
}

func TestSendMessageRejectsEmptyMessage(t *testing.T) {
	_, _, _, _, svc := newChatFixture()
	_, _, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{})
	assert.Error(t, err)
}

func TestSendMessageSessionKeyPerWorkspace(t *testing.T) {
	_, _, llmClient, _, svc := newChatFixture()

	var keys []string
	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		keys = append(keys, sessionKey)
		return "ok", nil
	}

	user := &model.User{ID: 7}
	wsID := uint(3)
	_, _, _ = svc.SendMessage(context.Background(), user, SendMessageRequest{Message: "a", WorkspaceID: &wsID})
	_, _, _ = svc.SendMessage(context.Background(), user, SendMessageRequest{Message: "b", General: true})

	require.Len(t, keys, 2)
	assert.Equal(t, "u7:ws3", keys[0])
	assert.Equal(t, "u7:general", keys[1])
}

func TestSendMessageOmittedWorkspaceResolvesActive(t *testing.T) {
	active := &model.Workspace{ID: 3, UserID: 7, Title: "Research"}
	svc, deps := newChatFixtureWithResolver(&fakeResolver{ws: active})

	var key string
	deps.llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		key = sessionKey
		return "ok", nil
	}

	// workspaceId 与 general 都缺省：落在激活工作区而不是 general 分区
	userMsg, assistantMsg, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{
		Message:    "hello",
		SessionKey: "sess-1",
	})
	require.NoError(t, err)

	require.NotNil(t, userMsg.WorkspaceID)
	assert.Equal(t, active.ID, *userMsg.WorkspaceID)
	require.NotNil(t, assistantMsg.WorkspaceID)
	assert.Equal(t, active.ID, *assistantMsg.WorkspaceID)
	assert.Equal(t, "u7:ws3", key)
}

func TestSendMessageGeneralFlagStoresNullScope(t *testing.T) {
	active := &model.Workspace{ID: 3, UserID: 7, Title: "Research"}
	svc, deps := newChatFixtureWithResolver(&fakeResolver{ws: active})

	_, _, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{
		Message: "hello",
		General: true,
	})
	require.NoError(t, err)

	require.Len(t, deps.chatRepo.messages, 2)
	assert.Nil(t, deps.chatRepo.messages[0].WorkspaceID)
	assert.Nil(t, deps.chatRepo.messages[1].WorkspaceID)
}

func TestSendMessageResolutionFailureFallsBackToGeneral(t *testing.T) {
	svc, deps := newChatFixtureWithResolver(&fakeResolver{err: errors.New("redis down")})

	_, _, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{Message: "hello"})
	require.NoError(t, err)

	require.Len(t, deps.chatRepo.messages, 2)
	assert.Nil(t, deps.chatRepo.messages[0].WorkspaceID)
}

func TestAddTaskToolCreatesTaskWithDefaults(t *testing.T) {
	_, taskRepo, llmClient, notifier, svc := newChatFixture()

	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		require.Len(t, req.Tools, 1)
		result := req.Tools[0].Handle(ctx, map[string]any{
			"task_title": "Write report",
		})
		return result, nil
	}

	user := &model.User{ID: 7}
	wsID := uint(3)
	_, assistantMsg, err := svc.SendMessage(context.Background(), user, SendMessageRequest{
		Message:     "remind me to write the report",
		WorkspaceID: &wsID,
	})
	require.NoError(t, err)

	require.Len(t, taskRepo.tasks, 1)
	task := taskRepo.tasks[0]
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, uint(3), task.WorkspaceID)
	assert.Equal(t, model.DefaultEstMinutes, task.EstMinutes)
	assert.Equal(t, model.TaskStatusTodo, task.Status)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, "Added task: Write report", assistantMsg.Content)
	assert.Contains(t, notifier.scopes, "tasks")
}

func TestAddTaskToolParsesDueDateAndDuration(t *testing.T) {
	_, taskRepo, llmClient, _, svc := newChatFixture()

	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		// JSON 解码后的数值参数是 float64
		return req.Tools[0].Handle(ctx, map[string]any{
			"task_title":       "Write report",
			"duration_minutes": float64(90),
			"due_date_iso":     "2025-03-01",
		}), nil
	}

	wsID := uint(3)
	_, assistantMsg, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{
		Message:     "schedule it",
		WorkspaceID: &wsID,
	})
	require.NoError(t, err)

	require.Len(t, taskRepo.tasks, 1)
	task := taskRepo.tasks[0]
	assert.Equal(t, 90, task.EstMinutes)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2025-03-01", task.DueDate.String())
	assert.Equal(t, "Added task: Write report (Due: 2025-03-01)", assistantMsg.Content)
}

func TestAddTaskToolBadArgumentsFallBack(t *testing.T) {
	_, taskRepo, llmClient, _, svc := newChatFixture()

	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		return req.Tools[0].Handle(ctx, map[string]any{
			"task_title":       "Fuzzy task",
			"duration_minutes": "ninety",     // 非数值
			"due_date_iso":     "next friday", // 非 ISO 日期
		}), nil
	}

	wsID := uint(3)
	_, _, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{
		Message:     "schedule it",
		WorkspaceID: &wsID,
	})
	require.NoError(t, err)

	require.Len(t, taskRepo.tasks, 1)
	task := taskRepo.tasks[0]
	assert.Equal(t, model.DefaultEstMinutes, task.EstMinutes)
	assert.Nil(t, task.DueDate)
}

func TestAddTaskToolWithoutWorkspaceReturnsError(t *testing.T) {
	_, taskRepo, llmClient, _, svc := newChatFixture()

	llmClient.converseFn = func(ctx context.Context, sessionKey string, req llm.ConverseRequest) (string, error) {
		return req.Tools[0].Handle(ctx, map[string]any{"task_title": "X"}), nil
	}

	// general 范围：没有工作区可挂任务
	_, assistantMsg, err := svc.SendMessage(context.Background(), &model.User{ID: 7}, SendMessageRequest{Message: "add it", General: true})
	require.NoError(t, err)

	assert.Empty(t, taskRepo.tasks)
	assert.Contains(t, assistantMsg.Content, "no active workspace")
}

func TestCoerceMinutes(t *testing.T) {
	assert.Equal(t, 90, coerceMinutes(float64(90)))
	assert.Equal(t, 45, coerceMinutes(45))
	assert.Equal(t, model.DefaultEstMinutes, coerceMinutes(nil))
	assert.Equal(t, model.DefaultEstMinutes, coerceMinutes("ninety"))
	assert.Equal(t, model.DefaultEstMinutes, coerceMinutes(float64(-5)))
	assert.Equal(t, model.DefaultEstMinutes, coerceMinutes(float64(7.5)))
	assert.Equal(t, model.DefaultEstMinutes, coerceMinutes(0))
}

func TestHistoryScopesByWorkspace(t *testing.T) {
	chatRepo, _, _, _, svc := newChatFixture()
	wsID := uint(3)
	require.NoError(t, chatRepo.Create(&model.ChatMessage{UserID: 7, WorkspaceID: &wsID, Role: model.RoleUser, Content: "in ws"}))
	require.NoError(t, chatRepo.Create(&model.ChatMessage{UserID: 7, Role: model.RoleUser, Content: "in general"}))

	inWs, err := svc.History(context.Background(), 7, &wsID)
	require.NoError(t, err)
	require.Len(t, inWs, 1)
	assert.Equal(t, "in ws", inWs[0].Content)

	general, err := svc.History(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, general, 1)
	assert.Equal(t, "in general", general[0].Content)
}
