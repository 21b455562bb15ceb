package service

import (
	"errors"
	"strings"
	"testing"

	"deskbot-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) *model.LocalDate {
	t.Helper()
	d, err := model.ParseLocalDate(s)
	require.NoError(t, err)
	return &d
}

func TestRenderContextEmpty(t *testing.T) {
	out := RenderContext(nil, nil, 100)
	assert.Equal(t, "TASKS: None.", out)
}

func TestRenderContextTaskLines(t *testing.T) {
	tasks := []model.Task{
		{Title: "Write report", DueDate: mustDate(t, "2025-03-01"), Status: model.TaskStatusTodo},
		{Title: "Ship release", Status: model.TaskStatusInProgress},
	}

	out := RenderContext(tasks, nil, 100)
	assert.Equal(t, "TASKS:\nWrite report | 2025-03-01 | todo\nShip release | - | in_progress\n", out)
}

func TestRenderContextDocumentTruncation(t *testing.T) {
	docs := []model.Document{
		{Filename: "notes.pdf", Content: strings.Repeat("a", 50)},
	}

	out := RenderContext(nil, docs, 10)
	assert.Equal(t, "TASKS: None.\nFILE: notes.pdf\nCONTENT: "+strings.Repeat("a", 10), out)
}

func TestRenderContextShortContentKeptIntact(t *testing.T) {
	docs := []model.Document{{Filename: "a.pdf", Content: "short"}}
	out := RenderContext(nil, docs, 10)
	assert.Contains(t, out, "CONTENT: short")
}

func TestRenderContextDeterministic(t *testing.T) {
	tasks := []model.Task{
		{Title: "A", Status: model.TaskStatusTodo},
		{Title: "B", Status: model.TaskStatusDone},
	}
	docs := []model.Document{
		{Filename: "x.pdf", Content: "xxx"},
		{Filename: "y.pdf", Content: "yyy"},
	}

	first := RenderContext(tasks, docs, 100)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RenderContext(tasks, docs, 100))
	}
}

func TestBuildForWorkspaceFailSoft(t *testing.T) {
	taskRepo := &fakeTaskRepo{listErr: errors.New("db down")}
	docRepo := &fakeDocRepo{listErr: errors.New("db down")}
	assembler := NewContextAssembler(taskRepo, docRepo, 100)

	wsID := uint(1)
	out := assembler.BuildForWorkspace(7, &wsID)
	assert.Equal(t, "TASKS: None.", out)
}

func TestBuildForWorkspaceGeneralScopeSkipsDocuments(t *testing.T) {
	taskRepo := &fakeTaskRepo{}
	require.NoError(t, taskRepo.Create(&model.Task{UserID: 7, WorkspaceID: 1, Title: "A", Status: model.TaskStatusTodo}))
	require.NoError(t, taskRepo.Create(&model.Task{UserID: 7, WorkspaceID: 2, Title: "B", Status: model.TaskStatusTodo}))

	docRepo := &fakeDocRepo{}
	require.NoError(t, docRepo.Create(&model.Document{UserID: 7, WorkspaceID: 1, Filename: "a.pdf", Content: "secret"}))

	assembler := NewContextAssembler(taskRepo, docRepo, 100)

	// general 范围：全部任务，不附带任何文档
	out := assembler.BuildForWorkspace(7, nil)
	assert.Contains(t, out, "A | - | todo")
	assert.Contains(t, out, "B | - | todo")
	assert.NotContains(t, out, "FILE:")
}

func TestTruncateContent(t *testing.T) {
	assert.Equal(t, "abc", TruncateContent("abc", 10))
	assert.Equal(t, "abcde", TruncateContent("abcdefgh", 5))
	assert.Len(t, TruncateContent(strings.Repeat("x", 1000), 42), 42)
}
