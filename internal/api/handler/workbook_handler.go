package handler

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"wow-insight/internal/service"
	"wow-insight/pkg/response"
)

// WorkbookHandler 名册工作簿载入 HTTP 处理器
type WorkbookHandler struct {
	analysisSvc service.AnalysisService
}

// NewWorkbookHandler 创建 WorkbookHandler
func NewWorkbookHandler(analysisSvc service.AnalysisService) *WorkbookHandler {
	return &WorkbookHandler{analysisSvc: analysisSvc}
}

// Upload 上传名册工作簿并整体重建快照
// POST /api/v1/workbook  (multipart/form-data, 字段名 file)
func (h *WorkbookHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}

	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".xlsx" {
		response.BadRequest(c, 12101, "仅支持 .xlsx 格式")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	resp, err := h.analysisSvc.LoadFromReader(c.Request.Context(), f, fileHeader.Filename)
	if err != nil {
		h.handleLoadError(c, err)
		return
	}

	response.OK(c, resp)
}

func (h *WorkbookHandler) handleLoadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkbookParse):
		response.BadRequest(c, 12102, "工作簿解析失败")
	case errors.Is(err, service.ErrWorkbookEmpty):
		response.BadRequest(c, 12103, "工作簿中没有可处理的工作表")
	default:
		response.InternalError(c)
	}
}
