package handler

import (
	"errors"
	"net/http"
	"strconv"

	"deskbot-go/internal/service"
	"deskbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// TaskHandler 负责处理任务相关的 API 请求。
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler 创建一个新的 TaskHandler 实例。
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List 列出指定工作区内的任务，工作区 id 来自 query 参数。
func (h *TaskHandler) List(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Query("workspaceId"), 10, 64)
	if err != nil || workspaceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少或非法的 workspaceId",
		})
		return
	}

	user := currentUser(c)
	tasks, err := h.taskService.List(uint(workspaceID), user.ID)
	if err != nil {
		log.Errorf("List tasks failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询任务失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    tasks,
	})
}

// Create 手动创建一个任务。
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：workspaceId 和 title 不能为空",
		})
		return
	}

	user := currentUser(c)
	task, err := h.taskService.Create(user.ID, req)
	if err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    task,
	})
}

// Update 对任务做部分字段更新。
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	user := currentUser(c)
	task, err := h.taskService.Update(id, user.ID, req)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    task,
	})
}

// Delete 删除一个任务。
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := currentUser(c)
	if err := h.taskService.Delete(id, user.ID); err != nil {
		log.Errorf("Delete task %d failed for user %d: %v", id, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "删除任务失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// Calendar 返回用户所有带截止日期的任务的日历投影。
func (h *TaskHandler) Calendar(c *gin.Context) {
	user := currentUser(c)
	events, err := h.taskService.CalendarEvents(user.ID)
	if err != nil {
		log.Errorf("Calendar events failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询日历事件失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    events,
	})
}
