package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"wow-insight/config"
	"wow-insight/internal/model"
)

// ── 指标推导 ──
//
// 契约：纯粹的逐记录变换，无跨场次状态。所有函数对任意合法输入
// 都有定义（全函数）：可选字段缺失不得导致失败。
//   - 年代分组：floor(届别/10)*10；届别缺失 → 不分组（不是归入 0）
//   - 捐赠等级：各财年礼金求和（仅此求和中 nil 按 0 计），
//     映射到配置阈值档位（取不超过总额的最高档，边界含等于）
//   - 参与度档位：按配置切点映射 low/medium/high
// 阈值与切点全部来自配置，修订字典无需改代码。

// 参与度档位标签
const (
	BucketLow    = "low"
	BucketMedium = "medium"
	BucketHigh   = "high"
)

// Deriver 按配置执行指标推导
type Deriver struct {
	levels []config.GivingLevel // 阈值升序（配置校验保证）
	cuts   config.EngagementCuts
}

// NewDeriver 创建 Deriver
func NewDeriver(cfg *config.AnalysisConfig) *Deriver {
	return &Deriver{levels: cfg.GivingLevels, cuts: cfg.EngagementCuts}
}

// EnrichAll 富化全部场次的记录（原地写入推导字段）
func (d *Deriver) EnrichAll(sessions []string, records map[string][]model.AttendanceRecord) {
	for _, sid := range sessions {
		recs := records[sid]
		for i := range recs {
			d.Enrich(&recs[i])
		}
	}
}

// Enrich 富化单条记录
func (d *Deriver) Enrich(rec *model.AttendanceRecord) {
	rec.Decade = DecadeBucket(rec.Demographic.ClassYear)
	rec.TotalGiving = TotalFiscalGiving(rec.Giving.FiscalYears)
	rec.GivingLevel = d.GivingLevel(rec.TotalGiving)
	rec.EngagementBucket = d.EngagementBucket(rec.Capacity.EngagementScore)
}

// DecadeBucket 毕业年代分组；届别缺失返回 nil
func DecadeBucket(classYear *int) *int {
	if classYear == nil {
		return nil
	}
	d := (*classYear / 10) * 10
	return &d
}

// TotalFiscalGiving 各财年礼金合计
// 仅在此合计中 nil 按 0 计；认捐余额不计入
func TotalFiscalGiving(fiscal map[int]model.FiscalYearGiving) decimal.Decimal {
	if len(fiscal) == 0 {
		return decimal.Zero
	}
	years := make([]int, 0, len(fiscal))
	for y := range fiscal {
		years = append(years, y)
	}
	sort.Ints(years)

	total := decimal.Zero
	for _, y := range years {
		if g := fiscal[y].Gifts; g != nil {
			total = total.Add(*g)
		}
	}
	return total
}

// GivingLevel 捐赠总额映射到配置档位
// 取阈值不超过总额的最高档，边界含等于（合计恰为 1000 落入阈值 1000 的档）。
// 全空捐赠史 → 合计 0 → 最低档，不是错误。
func (d *Deriver) GivingLevel(total decimal.Decimal) string {
	label := d.levels[0].Label
	for _, lv := range d.levels {
		if total.GreaterThanOrEqual(decimal.NewFromFloat(lv.Threshold)) {
			label = lv.Label
		} else {
			break
		}
	}
	return label
}

// EngagementBucket 参与度分数映射档位；分数缺失返回空串（不分档）
func (d *Deriver) EngagementBucket(score *float64) string {
	if score == nil {
		return ""
	}
	switch {
	case *score < d.cuts.Low:
		return BucketLow
	case *score >= d.cuts.High:
		return BucketHigh
	default:
		return BucketMedium
	}
}
