package service

import (
	"errors"
	"fmt"

	"deskbot-go/internal/model"
	"deskbot-go/internal/repository"

	"gorm.io/gorm"
)

// ErrTaskNotFound 表示目标任务不存在或不属于当前用户。
var ErrTaskNotFound = errors.New("任务不存在")

// CreateTaskRequest 描述手动建任务的输入。
type CreateTaskRequest struct {
	WorkspaceID uint   `json:"workspaceId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	EstMinutes  int    `json:"estMinutes"`
	DueDate     string `json:"dueDate"` // YYYY-MM-DD，可为空
	Status      string `json:"status"`
}

// UpdateTaskRequest 描述任务的部分更新，nil 字段保持不变。
type UpdateTaskRequest struct {
	Title      *string `json:"title"`
	EstMinutes *int    `json:"estMinutes"`
	DueDate    *string `json:"dueDate"` // 空字符串表示清除截止日期
	Status     *string `json:"status"`
}

// CalendarEvent 是任务在日历视图中的投影，字段对齐 FullCalendar 的事件格式。
type CalendarEvent struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	AllDay bool   `json:"allDay"`
	Color  string `json:"color"`
}

// TaskService 定义了任务的业务逻辑接口。
type TaskService interface {
	List(workspaceID, userID uint) ([]model.Task, error)
	Create(userID uint, req CreateTaskRequest) (*model.Task, error)
	Update(id, userID uint, req UpdateTaskRequest) (*model.Task, error)
	Delete(id, userID uint) error
	// CalendarEvents 把用户所有带截止日期的任务投影成日历事件。
	CalendarEvents(userID uint) ([]CalendarEvent, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
	wsRepo   repository.WorkspaceRepository
	notifier Notifier
}

// NewTaskService 创建一个新的 TaskService 实例。
func NewTaskService(taskRepo repository.TaskRepository, wsRepo repository.WorkspaceRepository, notifier Notifier) TaskService {
	return &taskService{taskRepo: taskRepo, wsRepo: wsRepo, notifier: notifier}
}

// List 列出工作区内的任务。
func (s *taskService) List(workspaceID, userID uint) ([]model.Task, error) {
	return s.taskRepo.ListByWorkspace(workspaceID, userID)
}

// Create 在指定工作区创建任务，缺省字段按默认值收敛。
func (s *taskService) Create(userID uint, req CreateTaskRequest) (*model.Task, error) {
	if _, err := s.wsRepo.FindByID(req.WorkspaceID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("查询工作区失败: %w", err)
	}

	task := &model.Task{
		UserID:      userID,
		WorkspaceID: req.WorkspaceID,
		Title:       req.Title,
		EstMinutes:  req.EstMinutes,
		Status:      req.Status,
	}
	if task.EstMinutes <= 0 {
		task.EstMinutes = model.DefaultEstMinutes
	}
	if task.Status == "" {
		task.Status = model.TaskStatusTodo
	} else if !model.ValidTaskStatus(task.Status) {
		return nil, fmt.Errorf("非法的任务状态: %s", req.Status)
	}
	if req.DueDate != "" {
		due, err := model.ParseLocalDate(req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("非法的截止日期: %s", req.DueDate)
		}
		task.DueDate = &due
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("创建任务失败: %w", err)
	}
	s.notifier.Refresh(userID, "tasks")
	return task, nil
}

// Update 对任务做部分字段更新并返回更新后的任务。
func (s *taskService) Update(id, userID uint, req UpdateTaskRequest) (*model.Task, error) {
	if _, err := s.taskRepo.FindByID(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("任务标题不能为空")
		}
		fields["title"] = *req.Title
	}
	if req.EstMinutes != nil {
		m := *req.EstMinutes
		if m <= 0 {
			m = model.DefaultEstMinutes
		}
		fields["est_minutes"] = m
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			fields["due_date"] = nil
		} else {
			due, err := model.ParseLocalDate(*req.DueDate)
			if err != nil {
				return nil, fmt.Errorf("非法的截止日期: %s", *req.DueDate)
			}
			fields["due_date"] = due
		}
	}
	if req.Status != nil {
		if !model.ValidTaskStatus(*req.Status) {
			return nil, fmt.Errorf("非法的任务状态: %s", *req.Status)
		}
		fields["status"] = *req.Status
	}

	if len(fields) > 0 {
		if err := s.taskRepo.UpdateFields(id, userID, fields); err != nil {
			return nil, fmt.Errorf("更新任务失败: %w", err)
		}
	}

	task, err := s.taskRepo.FindByID(id, userID)
	if err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	s.notifier.Refresh(userID, "tasks")
	return task, nil
}

// Delete 删除任务。
func (s *taskService) Delete(id, userID uint) error {
	if err := s.taskRepo.Delete(id, userID); err != nil {
		return fmt.Errorf("删除任务失败: %w", err)
	}
	s.notifier.Refresh(userID, "tasks")
	return nil
}

// CalendarEvents 实现见接口说明。没有截止日期的任务不进日历。
func (s *taskService) CalendarEvents(userID uint) ([]CalendarEvent, error) {
	tasks, err := s.taskRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}

	events := make([]CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		color := "#3498db"
		if t.Status == model.TaskStatusDone {
			color = "#2ecc71"
		}
		events = append(events, CalendarEvent{
			ID:     t.ID,
			Title:  t.Title,
			Start:  t.DueDate.String(),
			AllDay: true,
			Color:  color,
		})
	}
	return events, nil
}
