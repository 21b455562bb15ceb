package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"deskbot-go/internal/service"
	"deskbot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// maxUploadSize 限制单个上传文件的大小（32MB）。
const maxUploadSize = 32 << 20

// DocumentHandler 负责处理文档相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload 处理 multipart 文档上传，表单字段为 file 和 workspaceId。
func (h *DocumentHandler) Upload(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.PostForm("workspaceId"), 10, 64)
	if err != nil || workspaceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少或非法的 workspaceId",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少上传文件",
		})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"code":    http.StatusRequestEntityTooLarge,
			"message": "文件过大",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "读取上传文件失败",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "读取上传文件失败",
		})
		return
	}

	user := currentUser(c)
	doc, err := h.docService.Upload(c.Request.Context(), user.ID, uint(workspaceID), fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkspaceNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
		case errors.Is(err, service.ErrNoText):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":    http.StatusUnprocessableEntity,
				"message": err.Error(),
			})
		default:
			log.Errorf("Upload failed for user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "上传文档失败",
			})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    doc,
	})
}

// List 列出指定工作区内的文档。
func (h *DocumentHandler) List(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Query("workspaceId"), 10, 64)
	if err != nil || workspaceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少或非法的 workspaceId",
		})
		return
	}

	user := currentUser(c)
	docs, err := h.docService.List(uint(workspaceID), user.ID)
	if err != nil {
		log.Errorf("List documents failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "查询文档失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    docs,
	})
}

// Delete 删除一个文档及其派生数据。
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := currentUser(c)
	if err := h.docService.Delete(c.Request.Context(), id, user.ID); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
			return
		}
		log.Errorf("Delete document %d failed for user %d: %v", id, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "删除文档失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
	})
}

// Search 在当前用户的全部文档上做关键词检索。
func (h *DocumentHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少检索关键词 q",
		})
		return
	}

	user := currentUser(c)
	hits, err := h.docService.Search(c.Request.Context(), user.ID, query)
	if err != nil {
		log.Errorf("Search failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "检索失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    hits,
	})
}

// Download 为文档的原始文件生成限时下载链接。
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := currentUser(c)
	url, err := h.docService.DownloadURL(id, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": err.Error(),
			})
			return
		}
		log.Errorf("Download URL for document %d failed for user %d: %v", id, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "生成下载链接失败",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"url": url},
	})
}
