package handler

import (
	"errors"
	"net/http"

	"deskbot-go/internal/service"
	"deskbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// StudioHandler 负责处理基于工作区文档的一次性生成请求。
type StudioHandler struct {
	studioService service.StudioService
}

// NewStudioHandler 创建一个新的 StudioHandler 实例。
func NewStudioHandler(studioService service.StudioService) *StudioHandler {
	return &StudioHandler{studioService: studioService}
}

// StudioRequest 定义了生成端点的请求体结构。Topic 仅思维导图使用。
type StudioRequest struct {
	WorkspaceID uint   `json:"workspaceId" binding:"required"`
	Topic       string `json:"topic"`
}

// Summary 为工作区内的全部文档生成一份结构化摘要。
func (h *StudioHandler) Summary(c *gin.Context) {
	req, ok := bindStudioRequest(c)
	if !ok {
		return
	}

	user := currentUser(c)
	out, err := h.studioService.Summarize(c.Request.Context(), req.WorkspaceID, user.ID)
	h.respond(c, out, err, "生成摘要失败")
}

// Mindmap 为工作区内的全部文档生成一张 Graphviz DOT 思维导图。
func (h *StudioHandler) Mindmap(c *gin.Context) {
	req, ok := bindStudioRequest(c)
	if !ok {
		return
	}

	user := currentUser(c)
	out, err := h.studioService.Mindmap(c.Request.Context(), req.WorkspaceID, user.ID, req.Topic)
	h.respond(c, out, err, "生成思维导图失败")
}

func bindStudioRequest(c *gin.Context) (StudioRequest, bool) {
	var req StudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：workspaceId 不能为空",
		})
		return req, false
	}
	return req, true
}

func (h *StudioHandler) respond(c *gin.Context, out string, err error, failMessage string) {
	if err != nil {
		if errors.Is(err, service.ErrNoDocuments) || errors.Is(err, service.ErrNoMindmap) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":    http.StatusUnprocessableEntity,
				"message": err.Error(),
			})
			return
		}
		log.Errorf("Studio generate failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": failMessage,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"content": out},
	})
}
