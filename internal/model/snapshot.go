package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session 一场活动（对应工作簿中的一张签到表）
type Session struct {
	ID    string `json:"id"`    // Sheet 名
	Index int    `json:"index"` // 工作簿中的顺序（承载时间先后含义，不得重排）
	// RecordCount 规范化后的记录行数（空表为 0）
	RecordCount int `json:"record_count"`
}

// CategoryCount 类别分布中的一项
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MoneyStats 货币字段统计：仅非空值参与求和与均值分母
type MoneyStats struct {
	NonNull int             `json:"non_null"`
	Sum     decimal.Decimal `json:"sum"`
	Mean    decimal.Decimal `json:"mean"` // NonNull 为 0 时为 0
}

// ScoreStats 数值分数字段统计
type ScoreStats struct {
	NonNull int     `json:"non_null"`
	Sum     float64 `json:"sum"`
	Mean    float64 `json:"mean"`
}

// SessionSummary 单场汇总：计数 + 每个富化字段的分布
// 所有分布均为有序切片，保证输出与 map 迭代顺序无关
type SessionSummary struct {
	SessionID          string `json:"session_id"`
	RecordCount        int    `json:"record_count"`
	DistinctIdentities int    `json:"distinct_identities"`

	Constituency     []CategoryCount `json:"constituency"`
	Greek            []CategoryCount `json:"greek"`
	Decade           []CategoryCount `json:"decade"`
	State            []CategoryCount `json:"state"`
	Country          []CategoryCount `json:"country"`
	Major            []CategoryCount `json:"major"`
	WealthRange      []CategoryCount `json:"wealth_range"`
	GivingLevel      []CategoryCount `json:"giving_level"`
	EngagementBucket []CategoryCount `json:"engagement_bucket"`

	EngagementScore ScoreStats `json:"engagement_score"`
	TotalGiving     MoneyStats `json:"total_giving"`
	LastGiftAmount  MoneyStats `json:"last_gift_amount"`
}

// AttendedCount 参加场次数直方图中的一项
type AttendedCount struct {
	Sessions  int `json:"sessions"`  // 参加的场次数
	Attendees int `json:"attendees"` // 对应的身份数
}

// ComboCount 场次组合及其人数
type ComboCount struct {
	Sessions []string `json:"sessions"` // 按载入顺序排列的场次组合
	Count    int      `json:"count"`
}

// GlobalStats 跨场次全局统计
type GlobalStats struct {
	// TotalDistinctIdentities 所有场次合计的去重身份数
	TotalDistinctIdentities int `json:"total_distinct_identities"`
	// SingleSession 恰好参加一场的身份数（unique attendees）
	SingleSession int `json:"single_session"`
	// MultiSession 参加两场及以上的身份数
	MultiSession int `json:"multi_session"`
	// AllSessions 每场都参加的身份数（most loyal）
	AllSessions int `json:"all_sessions"`
	// AttendedHistogram 参加 n 场的人数分布（n 升序）
	AttendedHistogram []AttendedCount `json:"attended_histogram"`
	// TopCombinations 人数最多的多场组合（至多 10 项）
	TopCombinations []ComboCount `json:"top_combinations"`
}

// IdentityProfile 按身份聚合后的画像（供展示层直接消费）
type IdentityProfile struct {
	Identity  string    `json:"identity"`
	Tier      MatchTier `json:"tier"`
	Untrusted bool      `json:"untrusted,omitempty"`
	Name      string    `json:"name"`
	ClassYear *int      `json:"class_year,omitempty"`
	// Sessions 参加过的场次，按载入顺序
	Sessions         []string        `json:"sessions"`
	TotalGiving      decimal.Decimal `json:"total_giving"`
	GivingLevel      string          `json:"giving_level,omitempty"`
	WealthRange      string          `json:"wealth_range,omitempty"`
	EngagementScore  *float64        `json:"engagement_score,omitempty"`
	EngagementBucket string          `json:"engagement_bucket,omitempty"`
}

// ResolutionTally 载入时按记录计数的身份解析统计
// 概览与载入响应共用同一份计数，口径一致（逐记录，非逐身份）
type ResolutionTally struct {
	Exact     int `json:"exact"`
	Fuzzy     int `json:"fuzzy"`
	Synthetic int `json:"synthetic"`
}

// Snapshot 单次运行的不可变快照
//
// 设计说明：不使用任何进程级全局缓存；每次载入构造一个快照对象，
// 传给各组件消费，生命周期不超过该次运行。输入变化时整体重算，
// 不做增量更新。
type Snapshot struct {
	LoadedAt      time.Time `json:"loaded_at"`
	Source        string    `json:"source"` // 工作簿文件名
	SchemaVersion string    `json:"schema_version"`

	// Resolution 载入时按记录计数的身份解析统计
	Resolution ResolutionTally `json:"resolution"`

	// Sessions 调用方给定的稳定顺序（工作簿 Sheet 顺序）
	Sessions []Session `json:"sessions"`
	// Records sessionID → 富化记录；进入快照后不再修改
	Records map[string][]AttendanceRecord `json:"-"`

	Summaries []SessionSummary `json:"summaries"`
	// Overlap 成对重合矩阵（含自对角线 = 该场去重身份数），与 Sessions 同序
	Overlap [][]int     `json:"overlap"`
	Global  GlobalStats `json:"global"`

	// Identities 按身份键升序排列的画像
	Identities []IdentityProfile `json:"identities"`
	// Issues 本次载入收集的全部数据问题
	Issues []Issue `json:"issues"`
}

// SessionIndex 按场次 ID 查找其在 Sessions 中的下标；未找到返回 -1
func (s *Snapshot) SessionIndex(sessionID string) int {
	for i, sess := range s.Sessions {
		if sess.ID == sessionID {
			return i
		}
	}
	return -1
}
