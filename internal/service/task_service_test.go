package service

import (
	"testing"

	"deskbot-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaskFixture() (*fakeTaskRepo, *fakeWorkspaceRepo, TaskService) {
	taskRepo := &fakeTaskRepo{}
	wsRepo := &fakeWorkspaceRepo{}
	svc := NewTaskService(taskRepo, wsRepo, &fakeNotifier{})
	return taskRepo, wsRepo, svc
}

func TestTaskCreateAppliesDefaults(t *testing.T) {
	_, wsRepo, svc := newTaskFixture()
	require.NoError(t, wsRepo.Create(&model.Workspace{UserID: 7, Title: "W"}))

	task, err := svc.Create(7, CreateTaskRequest{WorkspaceID: 1, Title: "Write report"})
	require.NoError(t, err)

	assert.Equal(t, model.DefaultEstMinutes, task.EstMinutes)
	assert.Equal(t, model.TaskStatusTodo, task.Status)
	assert.Nil(t, task.DueDate)
}

func TestTaskCreateValidation(t *testing.T) {
	_, wsRepo, svc := newTaskFixture()
	require.NoError(t, wsRepo.Create(&model.Workspace{UserID: 7, Title: "W"}))

	_, err := svc.Create(7, CreateTaskRequest{WorkspaceID: 1, Title: "X", Status: "archived"})
	assert.Error(t, err)

	_, err = svc.Create(7, CreateTaskRequest{WorkspaceID: 1, Title: "X", DueDate: "03/01/2025"})
	assert.Error(t, err)

	_, err = svc.Create(7, CreateTaskRequest{WorkspaceID: 99, Title: "X"})
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestTaskUpdatePartialFields(t *testing.T) {
	taskRepo, wsRepo, svc := newTaskFixture()
	require.NoError(t, wsRepo.Create(&model.Workspace{UserID: 7, Title: "W"}))
	created, err := svc.Create(7, CreateTaskRequest{WorkspaceID: 1, Title: "Old", DueDate: "2025-03-01"})
	require.NoError(t, err)

	status := model.TaskStatusDone
	updated, err := svc.Update(created.ID, 7, UpdateTaskRequest{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusDone, updated.Status)
	// 未提及的字段保持不变
	assert.Equal(t, "Old", updated.Title)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2025-03-01", updated.DueDate.String())

	// 空字符串清除截止日期
	empty := ""
	updated, err = svc.Update(created.ID, 7, UpdateTaskRequest{DueDate: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	require.Len(t, taskRepo.tasks, 1)
}

func TestTaskUpdateUnknownTask(t *testing.T) {
	_, _, svc := newTaskFixture()
	title := "X"
	_, err := svc.Update(42, 7, UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCalendarEvents(t *testing.T) {
	taskRepo, _, svc := newTaskFixture()

	due, err := model.ParseLocalDate("2025-03-01")
	require.NoError(t, err)
	require.NoError(t, taskRepo.Create(&model.Task{UserID: 7, WorkspaceID: 1, Title: "Done task", Status: model.TaskStatusDone, DueDate: &due}))
	require.NoError(t, taskRepo.Create(&model.Task{UserID: 7, WorkspaceID: 1, Title: "Open task", Status: model.TaskStatusTodo, DueDate: &due}))
	require.NoError(t, taskRepo.Create(&model.Task{UserID: 7, WorkspaceID: 1, Title: "No due", Status: model.TaskStatusTodo}))

	events, err := svc.CalendarEvents(7)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byTitle := map[string]CalendarEvent{}
	for _, ev := range events {
		byTitle[ev.Title] = ev
	}
	assert.Equal(t, "#2ecc71", byTitle["Done task"].Color)
	assert.Equal(t, "#3498db", byTitle["Open task"].Color)
	assert.Equal(t, "2025-03-01", byTitle["Done task"].Start)
	assert.True(t, byTitle["Done task"].AllDay)
}
