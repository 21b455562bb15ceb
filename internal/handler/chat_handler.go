package handler

import (
	"net/http"
	"strconv"

	"deskbot-go/internal/service"
	"deskbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责处理聊天相关的 API 请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
// workspaceId 和 general 都缺省时，消息落在会话当前的激活工作区；
// general 为 true 时强制 general 范围（不挂任何工作区）。
type SendMessageRequest struct {
	Message     string `json:"message" binding:"required"`
	WorkspaceID *uint  `json:"workspaceId"`
	General     bool   `json:"general"`
	ImageData   string `json:"imageData"`
}

// SendMessage 执行一轮对话并返回持久化后的两条消息。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：message 不能为空",
		})
		return
	}

	user := currentUser(c)
	userMsg, assistantMsg, err := h.chatService.SendMessage(c.Request.Context(), user, service.SendMessageRequest{
		Message:     req.Message,
		WorkspaceID: req.WorkspaceID,
		General:     req.General,
		SessionKey:  currentSessionKey(c),
		ImageData:   req.ImageData,
	})
	if err != nil {
		log.Errorf("SendMessage failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "发送消息失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"userMessage":      userMsg,
			"assistantMessage": assistantMsg,
		},
	})
}

// History 按时间升序返回某个作用域的聊天记录。
// 按 workspaceId 查询某个工作区，general=true（或两者都缺省）查询
// general 分区。
func (h *ChatHandler) History(c *gin.Context) {
	var workspaceID *uint
	if raw := c.Query("workspaceId"); raw != "" && c.Query("general") != "true" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "非法的 workspaceId: " + raw,
			})
			return
		}
		v := uint(id)
		workspaceID = &v
	}

	user := currentUser(c)
	messages, err := h.chatService.History(c.Request.Context(), user.ID, workspaceID)
	if err != nil {
		log.Errorf("History failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询聊天记录失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    messages,
	})
}
