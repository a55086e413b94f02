package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"wow-insight/internal/dto"
	"wow-insight/internal/service"
	"wow-insight/pkg/response"
)

// AnalysisHandler 分析模块 HTTP 处理器
type AnalysisHandler struct {
	analysisSvc service.AnalysisService
}

// NewAnalysisHandler 创建 AnalysisHandler
func NewAnalysisHandler(analysisSvc service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisSvc: analysisSvc}
}

// Overview 当前快照概览
// GET /api/v1/overview
func (h *AnalysisHandler) Overview(c *gin.Context) {
	resp, err := h.analysisSvc.Overview(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, resp)
}

// ListSessions 场次列表
// GET /api/v1/sessions
func (h *AnalysisHandler) ListSessions(c *gin.Context) {
	sessions, err := h.analysisSvc.Sessions(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// ListSummaries 全部单场汇总
// GET /api/v1/sessions/summaries
func (h *AnalysisHandler) ListSummaries(c *gin.Context) {
	summaries, err := h.analysisSvc.Summaries(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": summaries})
}

// GetSummary 指定场次的汇总
// GET /api/v1/sessions/:id/summary
func (h *AnalysisHandler) GetSummary(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "场次ID不能为空")
		return
	}

	summary, err := h.analysisSvc.Summary(c.Request.Context(), id)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, summary)
}

// GetOverlap 成对重合矩阵
// GET /api/v1/overlap
func (h *AnalysisHandler) GetOverlap(c *gin.Context) {
	overlap, err := h.analysisSvc.Overlap(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, overlap)
}

// GetGlobal 全局统计
// GET /api/v1/global
func (h *AnalysisHandler) GetGlobal(c *gin.Context) {
	global, err := h.analysisSvc.Global(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, global)
}

// ListIdentities 身份画像列表
// GET /api/v1/identities?page=1&page_size=50&tier=exact&session=xxx&min_sessions=2
func (h *AnalysisHandler) ListIdentities(c *gin.Context) {
	var req dto.IdentityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.analysisSvc.Identities(c.Request.Context(), &req)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListIssues 数据问题清单
// GET /api/v1/issues?page=1&type=row_parse_error&session=xxx
func (h *AnalysisHandler) ListIssues(c *gin.Context) {
	var req dto.IssueListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.analysisSvc.Issues(c.Request.Context(), &req)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ── 分析视图 ──

// GetTrend 财年捐赠趋势
// GET /api/v1/views/trend
func (h *AnalysisHandler) GetTrend(c *gin.Context) {
	trend, err := h.analysisSvc.Trend(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, trend)
}

// GetAskBanding 请求额与末笔捐赠对照
// GET /api/v1/views/ask-banding
func (h *AnalysisHandler) GetAskBanding(c *gin.Context) {
	bands, err := h.analysisSvc.AskBanding(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bands})
}

// ListProspects 高潜力非捐赠人名单
// GET /api/v1/views/prospects?limit=25
func (h *AnalysisHandler) ListProspects(c *gin.Context) {
	limit := 25
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			response.BadRequest(c, 10001, "limit 参数无效")
			return
		}
		limit = v
	}

	prospects, err := h.analysisSvc.Prospects(c.Request.Context(), limit)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": prospects})
}

// ListEmployers 雇主分布统计
// GET /api/v1/views/employers?min_attendees=2
func (h *AnalysisHandler) ListEmployers(c *gin.Context) {
	min := 0
	if raw := c.Query("min_attendees"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			response.BadRequest(c, 10001, "min_attendees 参数无效")
			return
		}
		min = v
	}

	employers, err := h.analysisSvc.Employers(c.Request.Context(), min)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": employers})
}

// GetEngagementByAttendance 按出席次数分组的参与度
// GET /api/v1/views/engagement
func (h *AnalysisHandler) GetEngagementByAttendance(c *gin.Context) {
	rows, err := h.analysisSvc.EngagementByAttendance(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

// GetCouples 各场的配偶参与统计
// GET /api/v1/views/couples
func (h *AnalysisHandler) GetCouples(c *gin.Context) {
	rows, err := h.analysisSvc.Couples(c.Request.Context())
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

func (h *AnalysisHandler) handleAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSnapshot):
		response.NotFound(c, 12001, "尚未载入任何工作簿")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 12002, "场次不存在")
	default:
		response.InternalError(c)
	}
}
