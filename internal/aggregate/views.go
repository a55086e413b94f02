package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"wow-insight/internal/model"
)

// ── 分析视图 ──────────────────────────────────────────────
//
// 原始仪表盘的各项"分析"（逐图一函数的临时代码）在此统一为
// 聚合输出之上的确定性查询：无逐图定制逻辑，全部视图共享
// 同一条 规范化 → 身份解析 → 指标推导 → 聚合 流水线的产物。
// 类别对比类分析（选区、希腊会、年代、地域、专业、财富区间、
// 捐赠等级、参与度档位）直接读取 SessionSummary 的分布，
// 此处仅实现需要跨记录计算的视图。
// ─────────────────────────────────────────────────────────────

// YearTotal 单一财年的合计
type YearTotal struct {
	Year          int             `json:"year"`
	Gifts         decimal.Decimal `json:"gifts"`
	PledgeBalance decimal.Decimal `json:"pledge_balance"`
	Donors        int             `json:"donors"` // 该年礼金非空的记录数
}

// SessionTrend 单场的逐财年捐赠走势
type SessionTrend struct {
	SessionID string      `json:"session_id"`
	Years     []YearTotal `json:"years"`
}

// Trend 多年走势视图：各场 + 全体
type Trend struct {
	Sessions []SessionTrend `json:"sessions"`
	Overall  []YearTotal    `json:"overall"`
}

// FiscalYearTrend 逐财年捐赠走势（财年升序；各场按载入顺序）
func FiscalYearTrend(sessions []string, records map[string][]model.AttendanceRecord) *Trend {
	trend := &Trend{}
	overall := map[int]*YearTotal{}

	for _, sid := range sessions {
		perYear := map[int]*YearTotal{}
		for i := range records[sid] {
			for year, fy := range records[sid][i].Giving.FiscalYears {
				accumulateYear(perYear, year, fy)
				accumulateYear(overall, year, fy)
			}
		}
		trend.Sessions = append(trend.Sessions, SessionTrend{
			SessionID: sid,
			Years:     sortedYears(perYear),
		})
	}

	trend.Overall = sortedYears(overall)
	return trend
}

func accumulateYear(m map[int]*YearTotal, year int, fy model.FiscalYearGiving) {
	yt, ok := m[year]
	if !ok {
		yt = &YearTotal{Year: year}
		m[year] = yt
	}
	if fy.Gifts != nil {
		yt.Gifts = yt.Gifts.Add(*fy.Gifts)
		yt.Donors++
	}
	if fy.PledgeBalance != nil {
		yt.PledgeBalance = yt.PledgeBalance.Add(*fy.PledgeBalance)
	}
}

func sortedYears(m map[int]*YearTotal) []YearTotal {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]YearTotal, 0, len(years))
	for _, y := range years {
		out = append(out, *m[y])
	}
	return out
}

// AskBanding 末笔礼金与问询档位的对照（单场）
type AskBanding struct {
	SessionID string `json:"session_id"`
	// AboveHigh 末笔礼金高于高档问询额
	AboveHigh int `json:"above_high"`
	// WithinRange 末笔礼金落在低档与高档之间（含边界）
	WithinRange int `json:"within_range"`
	// BelowLow 末笔礼金低于低档问询额
	BelowLow int `json:"below_low"`
	// NoData 末笔礼金或问询档位缺失
	NoData int `json:"no_data"`
}

// AskVsLastGift 末笔礼金相对问询档位的分带统计
func AskVsLastGift(sessions []string, records map[string][]model.AttendanceRecord) []AskBanding {
	out := make([]AskBanding, 0, len(sessions))
	for _, sid := range sessions {
		band := AskBanding{SessionID: sid}
		for i := range records[sid] {
			rec := &records[sid][i]
			gift := rec.Giving.LastGiftAmount
			hi, lo := rec.Capacity.HiAsk, rec.Capacity.LowAsk
			switch {
			case gift == nil || hi == nil || lo == nil:
				band.NoData++
			case gift.GreaterThan(*hi):
				band.AboveHigh++
			case gift.LessThan(*lo):
				band.BelowLow++
			default:
				band.WithinRange++
			}
		}
		out = append(out, band)
	}
	return out
}

// Prospect 高潜力非捐赠人（prospect targeting 视图的一行）
type Prospect struct {
	Identity        string   `json:"identity"`
	Name            string   `json:"name"`
	Sessions        []string `json:"sessions"`
	WealthRange     string   `json:"wealth_range,omitempty"`
	WealthKnown     bool     `json:"wealth_known"`
	wealthRank      int
	EngagementScore *float64 `json:"engagement_score,omitempty"`
	Constituency    string   `json:"constituency,omitempty"`
	Email           string   `json:"email,omitempty"`
}

// NonDonorProspects 无任何捐赠记录的出席者，按给予能力与参与度排序
// 非捐赠判定：财年合计为 0 且终身捐赠与末笔礼金均缺失
// 排序：财富区间已知优先、区间降序，再按参与度降序（缺失最后），同分按身份键
func NonDonorProspects(sessions []string, records map[string][]model.AttendanceRecord, limit int) []Prospect {
	byIdentity := make(map[string]*Prospect)
	var order []string

	for _, sid := range sessions {
		for i := range records[sid] {
			rec := &records[sid][i]
			if !rec.TotalGiving.IsZero() || rec.Giving.Lifetime != nil || rec.Giving.LastGiftAmount != nil {
				continue
			}

			p, ok := byIdentity[rec.Identity]
			if !ok {
				p = &Prospect{
					Identity:     rec.Identity,
					Name:         rec.Name,
					Constituency: rec.Demographic.Constituency,
					Email:        rec.Demographic.Email,
				}
				byIdentity[rec.Identity] = p
				order = append(order, rec.Identity)
			}
			if len(p.Sessions) == 0 || p.Sessions[len(p.Sessions)-1] != sid {
				p.Sessions = append(p.Sessions, sid)
			}
			if !p.WealthKnown && rec.Capacity.WealthRange.IsSet() && rec.Capacity.WealthRange.Known {
				p.WealthKnown = true
				p.WealthRange = rec.Capacity.WealthRange.Label
				p.wealthRank = rec.Capacity.WealthRange.Rank
			}
			if p.EngagementScore == nil && rec.Capacity.EngagementScore != nil {
				p.EngagementScore = rec.Capacity.EngagementScore
			}
		}
	}

	// 同一身份出现在多个场次时也可能带有捐赠记录：凡任一记录显示有捐赠即剔除
	for _, sid := range sessions {
		for i := range records[sid] {
			rec := &records[sid][i]
			if !rec.TotalGiving.IsZero() || rec.Giving.Lifetime != nil || rec.Giving.LastGiftAmount != nil {
				delete(byIdentity, rec.Identity)
			}
		}
	}

	out := make([]Prospect, 0, len(byIdentity))
	for _, id := range order {
		if p, ok := byIdentity[id]; ok {
			out = append(out, *p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.WealthKnown != b.WealthKnown {
			return a.WealthKnown
		}
		if a.WealthKnown && a.wealthRank != b.wealthRank {
			return a.wealthRank > b.wealthRank // 区间越高越优先
		}
		as, bs := scoreOrNeg(a.EngagementScore), scoreOrNeg(b.EngagementScore)
		if as != bs {
			return as > bs
		}
		return a.Identity < b.Identity
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func scoreOrNeg(s *float64) float64 {
	if s == nil {
		return -1
	}
	return *s
}

// EmployerStat 雇主组织聚合（professional networking 视图的一行）
type EmployerStat struct {
	Employer       string          `json:"employer"`
	Attendees      int             `json:"attendees"` // 去重身份数
	ScoredCount    int             `json:"scored_count"`
	MeanEngagement float64         `json:"mean_engagement"`
	TotalGiving    decimal.Decimal `json:"total_giving"`
}

// EmployerSummary 按雇主组织聚合出席者
// 同一身份跨表重复时只计一次；捐赠取该身份各记录的最高合计（不跨表相加）
// 仅报告出席身份数 >= minAttendees 的组织，按人数降序、同数按名称升序
func EmployerSummary(sessions []string, records map[string][]model.AttendanceRecord, minAttendees int) []EmployerStat {
	type identityAgg struct {
		score  *float64
		giving decimal.Decimal
	}
	byEmployer := map[string]map[string]*identityAgg{}

	for _, sid := range sessions {
		for i := range records[sid] {
			rec := &records[sid][i]
			emp := rec.Professional.Employer
			if emp == "" {
				continue
			}
			m, ok := byEmployer[emp]
			if !ok {
				m = map[string]*identityAgg{}
				byEmployer[emp] = m
			}
			agg, ok := m[rec.Identity]
			if !ok {
				agg = &identityAgg{}
				m[rec.Identity] = agg
			}
			if agg.score == nil && rec.Capacity.EngagementScore != nil {
				agg.score = rec.Capacity.EngagementScore
			}
			if rec.TotalGiving.GreaterThan(agg.giving) {
				agg.giving = rec.TotalGiving
			}
		}
	}

	out := make([]EmployerStat, 0, len(byEmployer))
	for emp, identities := range byEmployer {
		if len(identities) < minAttendees {
			continue
		}
		stat := EmployerStat{Employer: emp, Attendees: len(identities)}
		// 浮点累加按身份键序进行，保证逐位可复现
		ids := make([]string, 0, len(identities))
		for id := range identities {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			agg := identities[id]
			if agg.score != nil {
				stat.ScoredCount++
				stat.MeanEngagement += *agg.score
			}
			stat.TotalGiving = stat.TotalGiving.Add(agg.giving)
		}
		if stat.ScoredCount > 0 {
			stat.MeanEngagement /= float64(stat.ScoredCount)
		}
		out = append(out, stat)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Attendees != out[j].Attendees {
			return out[i].Attendees > out[j].Attendees
		}
		return out[i].Employer < out[j].Employer
	})
	return out
}

// EngagementByAttendance 参加场次数与参与度的关联（一行 = 参加 n 场的群体）
type EngagementByAttendance struct {
	Sessions  int     `json:"sessions"`
	Attendees int     `json:"attendees"`
	Scored    int     `json:"scored"`
	MeanScore float64 `json:"mean_score"`
}

// EngagementBySessionsAttended 多次出席者是否参与度更高
// 身份级参与度取该身份首个非空分数（按场次顺序）
func EngagementBySessionsAttended(sessions []string, records map[string][]model.AttendanceRecord) []EngagementByAttendance {
	type identityInfo struct {
		count int
		last  string
		score *float64
	}
	identities := map[string]*identityInfo{}

	for _, sid := range sessions {
		for i := range records[sid] {
			rec := &records[sid][i]
			info, ok := identities[rec.Identity]
			if !ok {
				info = &identityInfo{}
				identities[rec.Identity] = info
			}
			if info.last != sid {
				info.count++
				info.last = sid
			}
			if info.score == nil && rec.Capacity.EngagementScore != nil {
				info.score = rec.Capacity.EngagementScore
			}
		}
	}

	rows := map[int]*EngagementByAttendance{}
	// 同样按身份键序累加，避免遍历顺序影响浮点结果
	ids := make([]string, 0, len(identities))
	for id := range identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		info := identities[id]
		row, ok := rows[info.count]
		if !ok {
			row = &EngagementByAttendance{Sessions: info.count}
			rows[info.count] = row
		}
		row.Attendees++
		if info.score != nil {
			row.Scored++
			row.MeanScore += *info.score
		}
	}

	ns := make([]int, 0, len(rows))
	for n := range rows {
		ns = append(ns, n)
	}
	sort.Ints(ns)

	out := make([]EngagementByAttendance, 0, len(ns))
	for _, n := range ns {
		row := rows[n]
		if row.Scored > 0 {
			row.MeanScore /= float64(row.Scored)
		}
		out = append(out, *row)
	}
	return out
}

// CouplesBySession 配偶同行情况（一行 = 一场）
type CouplesBySession struct {
	SessionID string `json:"session_id"`
	// Couples 该场带配偶标识（SP ID 非空）的记录数
	Couples int `json:"couples"`
	Records int `json:"records"`
	// BothAttended 配偶本人也以独立记录出现在同一场的对数
	BothAttended int `json:"both_attended"`
}

// SpousalEngagement 各场的配偶参与统计（按载入顺序）
func SpousalEngagement(sessions []string, records map[string][]model.AttendanceRecord) []CouplesBySession {
	out := make([]CouplesBySession, 0, len(sessions))
	for _, sid := range sessions {
		recs := records[sid]
		present := map[string]bool{}
		for i := range recs {
			if recs[i].RawID != "" {
				present[recs[i].RawID] = true
			}
		}
		row := CouplesBySession{SessionID: sid, Records: len(recs)}
		for i := range recs {
			spID := recs[i].Demographic.SpouseRawID
			if spID == "" {
				continue
			}
			row.Couples++
			if present[spID] {
				row.BothAttended++
			}
		}
		out = append(out, row)
	}
	return out
}
