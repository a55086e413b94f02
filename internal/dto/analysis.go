package dto

// ── 载入模块 ──

// SessionBrief 场次简要信息（按载入顺序）
type SessionBrief struct {
	ID          string `json:"id"`
	Index       int    `json:"index"`
	RecordCount int    `json:"record_count"`
}

// ResolutionBrief 身份解析统计
type ResolutionBrief struct {
	Exact     int `json:"exact"`
	Fuzzy     int `json:"fuzzy"`
	Synthetic int `json:"synthetic"`
}

// LoadResponse 工作簿载入结果 / 当前快照概览
type LoadResponse struct {
	Source             string          `json:"source"`
	LoadedAt           string          `json:"loaded_at"`
	SchemaVersion      string          `json:"schema_version"`
	Sessions           []SessionBrief  `json:"sessions"`
	RecordCount        int             `json:"record_count"`
	DistinctIdentities int             `json:"distinct_identities"`
	Resolution         ResolutionBrief `json:"resolution"`
	IssueCount         int             `json:"issue_count"`
}

// ── 聚合查询 ──

// OverlapResponse 成对重合矩阵（行列均按场次载入顺序）
type OverlapResponse struct {
	Sessions []string `json:"sessions"`
	Matrix   [][]int  `json:"matrix"`
}

// IdentityListRequest 身份画像列表查询
type IdentityListRequest struct {
	PaginationRequest
	// Tier 按匹配层级过滤：exact / fuzzy / synthetic，空为不过滤
	Tier string `form:"tier" binding:"omitempty,oneof=exact fuzzy synthetic"`
	// Session 按场次过滤（仅列出参加过该场的身份）
	Session string `form:"session" binding:"omitempty"`
	// MinSessions 至少参加的场次数（0 为不过滤）
	MinSessions int `form:"min_sessions" binding:"omitempty,min=0"`
}

// IssueListRequest 数据问题清单查询
type IssueListRequest struct {
	PaginationRequest
	Type    string `form:"type" binding:"omitempty"`
	Session string `form:"session" binding:"omitempty"`
}
