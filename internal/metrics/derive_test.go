package metrics

import (
	"testing"

	"github.com/shopspring/decimal"

	"wow-insight/config"
	"wow-insight/internal/model"
)

// ── 测试辅助 ──

func testDeriver() *Deriver {
	return NewDeriver(&config.AnalysisConfig{
		GivingLevels: []config.GivingLevel{
			{Threshold: 0, Label: "Non-Donor"},
			{Threshold: 0.01, Label: "<$100"},
			{Threshold: 100, Label: "$100-$999"},
			{Threshold: 1000, Label: "$1,000-$4,999"},
			{Threshold: 5000, Label: "$5,000-$9,999"},
			{Threshold: 10000, Label: "$10,000-$24,999"},
			{Threshold: 25000, Label: "$25,000+"},
		},
		EngagementCuts: config.EngagementCuts{Low: 34, High: 67},
	})
}

func amt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// ── 年代分组测试 ──

func TestDecadeBucket(t *testing.T) {
	cases := []struct {
		year int
		want int
	}{
		{1985, 1980},
		{1990, 1990},
		{1999, 1990},
		{2001, 2000},
	}
	for _, tc := range cases {
		got := DecadeBucket(&tc.year)
		if got == nil || *got != tc.want {
			t.Errorf("DecadeBucket(%d) 期望 %d，实际=%v", tc.year, tc.want, got)
		}
	}
}

func TestDecadeBucket_MissingYear(t *testing.T) {
	// 届别缺失 → 不分组，不是归入 0
	if got := DecadeBucket(nil); got != nil {
		t.Errorf("届别缺失应返回 nil，实际=%v", got)
	}
}

// ── 财年合计测试 ──

func TestTotalFiscalGiving(t *testing.T) {
	fiscal := map[int]model.FiscalYearGiving{
		2017: {Gifts: amt(100)},
		2018: {Gifts: nil, PledgeBalance: amt(999)}, // 认捐余额不计入
		2019: {Gifts: amt(250)},
	}
	total := TotalFiscalGiving(fiscal)
	if !total.Equal(decimal.NewFromInt(350)) {
		t.Errorf("期望合计 350，实际=%s", total)
	}
}

func TestTotalFiscalGiving_Empty(t *testing.T) {
	if total := TotalFiscalGiving(nil); !total.IsZero() {
		t.Errorf("无财年数据应合计为 0，实际=%s", total)
	}
}

// ── 捐赠等级测试 ──

func TestGivingLevel_Boundaries(t *testing.T) {
	d := testDeriver()
	cases := []struct {
		total string
		want  string
	}{
		{"0", "Non-Donor"}, // 全空捐赠史 → 最低档，不是错误
		{"0.01", "<$100"},
		{"99.99", "<$100"},
		{"100", "$100-$999"},
		{"999.99", "$100-$999"},
		{"1000", "$1,000-$4,999"}, // 边界含等于
		{"4999", "$1,000-$4,999"},
		{"25000", "$25,000+"},
		{"1000000", "$25,000+"},
	}
	for _, tc := range cases {
		got := d.GivingLevel(decimal.RequireFromString(tc.total))
		if got != tc.want {
			t.Errorf("GivingLevel(%s) 期望 %q，实际=%q", tc.total, tc.want, got)
		}
	}
}

// ── 参与度档位测试 ──

func TestEngagementBucket(t *testing.T) {
	d := testDeriver()
	cases := []struct {
		score float64
		want  string
	}{
		{0, BucketLow},
		{33.9, BucketLow},
		{34, BucketMedium},
		{66.9, BucketMedium},
		{67, BucketHigh},
		{100, BucketHigh},
	}
	for _, tc := range cases {
		got := d.EngagementBucket(&tc.score)
		if got != tc.want {
			t.Errorf("EngagementBucket(%.1f) 期望 %q，实际=%q", tc.score, tc.want, got)
		}
	}
}

func TestEngagementBucket_MissingScore(t *testing.T) {
	d := testDeriver()
	if got := d.EngagementBucket(nil); got != "" {
		t.Errorf("分数缺失应不分档，实际=%q", got)
	}
}

// ── 整体富化测试 ──

func TestEnrich(t *testing.T) {
	d := testDeriver()
	year := 1987
	score := 72.5
	rec := model.AttendanceRecord{}
	rec.Demographic.ClassYear = &year
	rec.Capacity.EngagementScore = &score
	rec.Giving.FiscalYears = map[int]model.FiscalYearGiving{
		2018: {Gifts: amt(600)},
		2019: {Gifts: amt(500)},
	}

	d.Enrich(&rec)

	if rec.Decade == nil || *rec.Decade != 1980 {
		t.Errorf("年代推导错误: %v", rec.Decade)
	}
	if !rec.TotalGiving.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("合计推导错误: %s", rec.TotalGiving)
	}
	if rec.GivingLevel != "$1,000-$4,999" {
		t.Errorf("捐赠等级推导错误: %q", rec.GivingLevel)
	}
	if rec.EngagementBucket != BucketHigh {
		t.Errorf("参与度档位推导错误: %q", rec.EngagementBucket)
	}
}

func TestEnrich_AllFieldsMissing(t *testing.T) {
	// 全函数性：可选字段全缺失不得失败
	d := testDeriver()
	rec := model.AttendanceRecord{}
	d.Enrich(&rec)

	if rec.Decade != nil {
		t.Error("届别缺失不应有年代")
	}
	if !rec.TotalGiving.IsZero() {
		t.Error("无捐赠史合计应为 0")
	}
	if rec.GivingLevel != "Non-Donor" {
		t.Errorf("无捐赠史应落最低档，实际=%q", rec.GivingLevel)
	}
	if rec.EngagementBucket != "" {
		t.Error("分数缺失不应分档")
	}
}
