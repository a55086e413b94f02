package model

import "fmt"

// IssueType 数据问题分类
// 核心从不因单条坏记录或单张坏表中止整个运行：
// 一律降级为部分结果 + 结构化问题清单，由展示层呈现给用户
type IssueType string

const (
	// IssueSchemaError 表缺少必需列：仅该表致命，其余表继续处理
	IssueSchemaError IssueType = "schema_error"
	// IssueRowParse 单行/单元格类型强转失败：该行被排除并记录，不致命
	IssueRowParse IssueType = "row_parse_error"
	// IssueUnknownLabel 序数字段出现未配置的标签：保留原样、排序最后，并上报
	IssueUnknownLabel IssueType = "unknown_label"
	// IssueDuplicateRawID 同一表内 raw_id 重复：录入错误，标记而非静默合并
	IssueDuplicateRawID IssueType = "duplicate_raw_id"
	// IssueIdentityAmbiguity 空 raw_id 记录命中多个既有身份：分配合成身份并上报，从不猜测
	IssueIdentityAmbiguity IssueType = "identity_ambiguity"
	// IssueRawIDConflict 同一 raw_id 的身份界定字段不一致：记录保留在既有身份下但标记不可信
	IssueRawIDConflict IssueType = "duplicate_raw_id_conflict"
)

// Issue 单条数据问题
type Issue struct {
	Type      IssueType `json:"type"`
	SessionID string    `json:"session_id,omitempty"` // 跨场次问题时为空
	Row       int       `json:"row,omitempty"`        // 0 表示不适用
	Column    string    `json:"column,omitempty"`
	Message   string    `json:"message"`
}

// Issuef 构造带格式化消息的 Issue
func Issuef(t IssueType, sessionID string, row int, column, format string, args ...interface{}) Issue {
	return Issue{
		Type:      t,
		SessionID: sessionID,
		Row:       row,
		Column:    column,
		Message:   fmt.Sprintf(format, args...),
	}
}
