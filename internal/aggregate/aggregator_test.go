package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"wow-insight/internal/model"
)

// ── 测试辅助 ──

var (
	testWealthOrder = []string{
		"Under $100K", "$100K-$250K", "$250K-$500K", "$500K-$1M", "$1M-$5M", "Over $5M",
	}
	testGivingOrder = []string{
		"Non-Donor", "<$100", "$100-$999", "$1,000-$4,999",
		"$5,000-$9,999", "$10,000-$24,999", "$25,000+",
	}
)

func attendee(identity string) model.AttendanceRecord {
	return model.AttendanceRecord{Identity: identity, Tier: model.MatchExact}
}

// threeSessionFixture 经典场景：A={1,2,3}, B={2,3,4}, C={3}
func threeSessionFixture() ([]string, map[string][]model.AttendanceRecord) {
	sessions := []string{"A", "B", "C"}
	records := map[string][]model.AttendanceRecord{
		"A": {attendee("id:1"), attendee("id:2"), attendee("id:3")},
		"B": {attendee("id:2"), attendee("id:3"), attendee("id:4")},
		"C": {attendee("id:3")},
	}
	return sessions, records
}

// ── 重合矩阵测试 ──

func TestBuild_OverlapMatrix(t *testing.T) {
	sessions, records := threeSessionFixture()
	out := Build(sessions, records, testWealthOrder, testGivingOrder)

	want := [][]int{
		{3, 2, 1},
		{2, 3, 1},
		{1, 1, 1},
	}
	for i := range want {
		for j := range want[i] {
			if out.Overlap[i][j] != want[i][j] {
				t.Errorf("Overlap[%d][%d] 期望 %d，实际=%d", i, j, want[i][j], out.Overlap[i][j])
			}
		}
	}
}

func TestBuild_OverlapSymmetric(t *testing.T) {
	sessions, records := threeSessionFixture()
	out := Build(sessions, records, testWealthOrder, testGivingOrder)

	for i := range out.Overlap {
		for j := range out.Overlap {
			if out.Overlap[i][j] != out.Overlap[j][i] {
				t.Errorf("重合矩阵应对称: [%d][%d]=%d vs [%d][%d]=%d",
					i, j, out.Overlap[i][j], j, i, out.Overlap[j][i])
			}
		}
	}
}

func TestBuild_DiagonalIsDistinctCount(t *testing.T) {
	// 同场重复身份行折叠：自对角线 = 去重身份数
	sessions := []string{"A"}
	records := map[string][]model.AttendanceRecord{
		"A": {attendee("id:1"), attendee("id:1"), attendee("id:2")},
	}
	out := Build(sessions, records, testWealthOrder, testGivingOrder)

	if out.Overlap[0][0] != 2 {
		t.Errorf("自对角线应为去重身份数 2，实际=%d", out.Overlap[0][0])
	}
	if out.Summaries[0].RecordCount != 3 || out.Summaries[0].DistinctIdentities != 2 {
		t.Errorf("汇总计数错误: %+v", out.Summaries[0])
	}
}

// ── 全局统计测试 ──

func TestBuild_GlobalStats(t *testing.T) {
	sessions, records := threeSessionFixture()
	out := Build(sessions, records, testWealthOrder, testGivingOrder)
	g := out.Global

	if g.TotalDistinctIdentities != 4 {
		t.Errorf("总去重身份数期望 4，实际=%d", g.TotalDistinctIdentities)
	}
	if g.SingleSession != 2 { // id:1 仅 A，id:4 仅 B
		t.Errorf("仅一场期望 2，实际=%d", g.SingleSession)
	}
	if g.MultiSession != 2 { // id:2 两场，id:3 三场
		t.Errorf("多场期望 2，实际=%d", g.MultiSession)
	}
	if g.AllSessions != 1 { // 只有 id:3 全勤
		t.Errorf("全勤期望 1，实际=%d", g.AllSessions)
	}

	// 划分律：仅一场 + 多场 = 总数
	if g.SingleSession+g.MultiSession != g.TotalDistinctIdentities {
		t.Error("仅一场与多场应划分总身份数")
	}
}

func TestBuild_AttendedHistogram(t *testing.T) {
	sessions, records := threeSessionFixture()
	out := Build(sessions, records, testWealthOrder, testGivingOrder)

	want := []model.AttendedCount{
		{Sessions: 1, Attendees: 2},
		{Sessions: 2, Attendees: 1},
		{Sessions: 3, Attendees: 1},
	}
	if len(out.Global.AttendedHistogram) != len(want) {
		t.Fatalf("直方图长度期望 %d，实际=%d", len(want), len(out.Global.AttendedHistogram))
	}
	for i, w := range want {
		got := out.Global.AttendedHistogram[i]
		if got != w {
			t.Errorf("直方图第 %d 项期望 %+v，实际=%+v", i, w, got)
		}
	}
}

func TestBuild_EmptySessionExcludedFromLoyalty(t *testing.T) {
	// 已知的空表不应让全勤恒为 0
	sessions := []string{"A", "B", "Empty"}
	records := map[string][]model.AttendanceRecord{
		"A":     {attendee("id:1"), attendee("id:2")},
		"B":     {attendee("id:1")},
		"Empty": {},
	}
	out := Build(sessions, records, testWealthOrder, testGivingOrder)

	if out.Global.AllSessions != 1 {
		t.Errorf("全勤以非空场次为基准，期望 1，实际=%d", out.Global.AllSessions)
	}
	// 空场仍出现在汇总与矩阵中
	if len(out.Summaries) != 3 || out.Overlap[2][2] != 0 {
		t.Error("空场应保留为 0 计数场次")
	}
}

func TestBuild_TopCombinations(t *testing.T) {
	sessions, records := threeSessionFixture()
	out := Build(sessions, records, testWealthOrder, testGivingOrder)

	if len(out.Global.TopCombinations) != 2 {
		t.Fatalf("期望 2 个组合，实际=%d", len(out.Global.TopCombinations))
	}
	// 各 1 人，同数按场次顺序靠前者优先：{A,B} 先于 {A,B,C}
	first := out.Global.TopCombinations[0]
	if len(first.Sessions) != 2 || first.Sessions[0] != "A" || first.Sessions[1] != "B" {
		t.Errorf("首个组合期望 [A B]，实际=%v", first.Sessions)
	}
	if first.Count != 1 {
		t.Errorf("组合人数期望 1，实际=%d", first.Count)
	}
}

// ── 单场汇总测试 ──

func TestSummarize_Distributions(t *testing.T) {
	score1, score2 := 80.0, 40.0
	lastGift := decimal.NewFromInt(200)
	gift := decimal.NewFromInt(500)

	recA := attendee("id:1")
	recA.Demographic.Constituency = "Alumni"
	recA.Demographic.State = "OH"
	decade := 1980
	recA.Decade = &decade
	recA.Capacity.EngagementScore = &score1
	recA.Giving.LastGiftAmount = &lastGift
	recA.Giving.FiscalYears = map[int]model.FiscalYearGiving{2019: {Gifts: &gift}}
	recA.TotalGiving = gift
	recA.GivingLevel = "$100-$999"

	recB := attendee("id:2")
	recB.Demographic.Constituency = "Alumni"
	recB.Capacity.EngagementScore = &score2
	recB.GivingLevel = "Non-Donor"

	recC := attendee("id:3")
	recC.Demographic.Constituency = "Parent"
	recC.GivingLevel = "Non-Donor"

	out := Build([]string{"A"}, map[string][]model.AttendanceRecord{
		"A": {recA, recB, recC},
	}, testWealthOrder, testGivingOrder)
	sum := out.Summaries[0]

	// 类别分布：计数降序、同数按标签升序
	if len(sum.Constituency) != 2 || sum.Constituency[0].Label != "Alumni" || sum.Constituency[0].Count != 2 {
		t.Errorf("选区分布错误: %+v", sum.Constituency)
	}
	// 届别缺失的记录不落入年代分组
	if len(sum.Decade) != 1 || sum.Decade[0].Label != "1980s" || sum.Decade[0].Count != 1 {
		t.Errorf("年代分布错误: %+v", sum.Decade)
	}
	// 序数类别按既定顺序报告
	if len(sum.GivingLevel) != 2 || sum.GivingLevel[0].Label != "Non-Donor" || sum.GivingLevel[1].Label != "$100-$999" {
		t.Errorf("捐赠等级分布应按既定顺序: %+v", sum.GivingLevel)
	}

	// 数值统计：仅非空值参与分母
	if sum.EngagementScore.NonNull != 2 {
		t.Errorf("参与度非空计数期望 2，实际=%d", sum.EngagementScore.NonNull)
	}
	if sum.EngagementScore.Mean != 60 {
		t.Errorf("参与度均值期望 60，实际=%v", sum.EngagementScore.Mean)
	}
	if sum.TotalGiving.NonNull != 1 {
		t.Errorf("捐赠非空计数期望 1，实际=%d", sum.TotalGiving.NonNull)
	}
	if !sum.TotalGiving.Sum.Equal(gift) {
		t.Errorf("捐赠合计期望 500，实际=%s", sum.TotalGiving.Sum)
	}
	if sum.LastGiftAmount.NonNull != 1 || !sum.LastGiftAmount.Mean.Equal(lastGift) {
		t.Errorf("末笔礼金统计错误: %+v", sum.LastGiftAmount)
	}
}

func TestSummarize_UnknownOrdinalAfterKnown(t *testing.T) {
	recA := attendee("id:1")
	recA.Capacity.WealthRange = model.OrdinalLabel{Label: "$10M-$20M", Rank: 6, Known: false}
	recB := attendee("id:2")
	recB.Capacity.WealthRange = model.OrdinalLabel{Label: "Under $100K", Rank: 0, Known: true}

	out := Build([]string{"A"}, map[string][]model.AttendanceRecord{
		"A": {recA, recB},
	}, testWealthOrder, testGivingOrder)

	wr := out.Summaries[0].WealthRange
	if len(wr) != 2 || wr[0].Label != "Under $100K" || wr[1].Label != "$10M-$20M" {
		t.Errorf("未知标签应排在已知标签之后: %+v", wr)
	}
}

// ── 身份画像测试 ──

func TestBuildProfiles_GivingIsMaxNotSum(t *testing.T) {
	// 同一人的捐赠史跨表重复：画像取最高合计，绝不相加
	recA := attendee("id:1")
	recA.Name = "Smith, John"
	recA.TotalGiving = decimal.NewFromInt(500)
	recA.GivingLevel = "$100-$999"
	recB := attendee("id:1")
	recB.Name = "Smith, John"
	recB.TotalGiving = decimal.NewFromInt(1200)
	recB.GivingLevel = "$1,000-$4,999"

	out := Build([]string{"A", "B"}, map[string][]model.AttendanceRecord{
		"A": {recA},
		"B": {recB},
	}, testWealthOrder, testGivingOrder)

	if len(out.Identities) != 1 {
		t.Fatalf("期望 1 个画像，实际=%d", len(out.Identities))
	}
	p := out.Identities[0]
	if !p.TotalGiving.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("画像捐赠应取最高合计 1200（不跨表相加），实际=%s", p.TotalGiving)
	}
	if p.GivingLevel != "$1,000-$4,999" {
		t.Errorf("画像等级应随最高合计，实际=%q", p.GivingLevel)
	}
	if len(p.Sessions) != 2 {
		t.Errorf("画像应记录全部场次: %v", p.Sessions)
	}
}

func TestBuildProfiles_BetterTierWins(t *testing.T) {
	recA := attendee("id:1")
	recA.Tier = model.MatchFuzzy
	recB := attendee("id:1")
	recB.Tier = model.MatchExact

	out := Build([]string{"A", "B"}, map[string][]model.AttendanceRecord{
		"A": {recA},
		"B": {recB},
	}, testWealthOrder, testGivingOrder)

	if out.Identities[0].Tier != model.MatchExact {
		t.Errorf("画像层级应取更可信者，实际=%q", out.Identities[0].Tier)
	}
}

func TestBuildProfiles_SortedByIdentity(t *testing.T) {
	out := Build([]string{"A"}, map[string][]model.AttendanceRecord{
		"A": {attendee("id:9"), attendee("id:1"), attendee("syn:0001")},
	}, testWealthOrder, testGivingOrder)

	if len(out.Identities) != 3 {
		t.Fatalf("期望 3 个画像，实际=%d", len(out.Identities))
	}
	want := []string{"id:1", "id:9", "syn:0001"}
	for i, w := range want {
		if out.Identities[i].Identity != w {
			t.Errorf("画像第 %d 项期望 %q，实际=%q", i, w, out.Identities[i].Identity)
		}
	}
}
