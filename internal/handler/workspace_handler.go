package handler

import (
	"errors"
	"net/http"
	"strconv"

	"deskbot-go/internal/service"
	"deskbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// WorkspaceHandler 负责处理工作区相关的 API 请求。
type WorkspaceHandler struct {
	wsService service.WorkspaceService
}

// NewWorkspaceHandler 创建一个新的 WorkspaceHandler 实例。
func NewWorkspaceHandler(wsService service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{wsService: wsService}
}

// List 列出当前用户的全部工作区。
func (h *WorkspaceHandler) List(c *gin.Context) {
	user := currentUser(c)
	workspaces, err := h.wsService.List(user.ID)
	if err != nil {
		log.Errorf("List workspaces failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询工作区失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    workspaces,
	})
}

// CreateWorkspaceRequest 定义了创建工作区 API 的请求体结构。
type CreateWorkspaceRequest struct {
	Title string `json:"title" binding:"required"`
}

// Create 创建一个新工作区。
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：title 不能为空",
		})
		return
	}

	user := currentUser(c)
	ws, err := h.wsService.Create(user.ID, req.Title)
	if err != nil {
		log.Errorf("Create workspace failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "创建工作区失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    ws,
	})
}

// Delete 级联删除一个工作区。
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := currentUser(c)
	if err := h.wsService.Delete(c.Request.Context(), id, user.ID); err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
			return
		}
		log.Errorf("Delete workspace %d failed for user %d: %v", id, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "删除工作区失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// GetActive 解析会话当前的激活工作区。
func (h *WorkspaceHandler) GetActive(c *gin.Context) {
	user := currentUser(c)
	ws, err := h.wsService.ResolveActive(c.Request.Context(), currentSessionKey(c), user.ID)
	if err != nil {
		log.Errorf("Resolve active workspace failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "解析激活工作区失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    ws,
	})
}

// SwitchActiveRequest 定义了切换激活工作区 API 的请求体结构。
type SwitchActiveRequest struct {
	WorkspaceID uint `json:"workspaceId" binding:"required"`
}

// SwitchActive 切换会话的激活工作区。
func (h *WorkspaceHandler) SwitchActive(c *gin.Context) {
	var req SwitchActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：workspaceId 不能为空",
		})
		return
	}

	user := currentUser(c)
	ws, err := h.wsService.SwitchActive(c.Request.Context(), currentSessionKey(c), user.ID, req.WorkspaceID)
	if err != nil {
		if errors.Is(err, service.ErrWorkspaceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
			return
		}
		log.Errorf("Switch active workspace failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "切换工作区失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    ws,
	})
}

// pathID 解析路径参数中的数字 id，非法时直接响应 400。
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "非法的 id: " + raw,
		})
		return 0, false
	}
	return uint(id), true
}
