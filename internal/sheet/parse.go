package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wow-insight/internal/model"
)

// ── 单元格强转 ──
//
// 约定：空白一律解析为 nil（而非 0）；nil 不参与求和/均值的分母。
// 无法按规则恢复的值返回 error，由规范化器将整行排除并记录。

// parseCurrency 解析货币串
// 支持：货币符号、千分位逗号、括号表负数、空白 → nil
func parseCurrency(raw string) (*decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return nil, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("无法解析货币值 %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("无法解析货币值 %q", raw)
	}
	if neg {
		d = d.Neg()
	}
	return &d, nil
}

// dateLayouts 接受的日期格式（含 excelize 对日期单元格的默认文本形态）
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"Jan 2, 2006",
	"2-Jan-06",
}

// parseDate 解析日历日期；空白或不可解析 → nil
// 不可解析不视为行级错误：日期缺失在源数据中常见，按缺失处理
func parseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseYear 解析届别年份；容忍 "1985.0" 这类电子表格浮点残留
func parseYear(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac := s[i+1:]
		if strings.Trim(frac, "0") != "" {
			return nil, fmt.Errorf("无法解析年份 %q", raw)
		}
		s = s[:i]
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("无法解析年份 %q", raw)
	}
	if y < 1900 || y > 2100 {
		return nil, fmt.Errorf("年份 %d 超出合理范围", y)
	}
	return &y, nil
}

// parseScore 解析数值分数
func parseScore(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("无法解析分数 %q", raw)
	}
	return &f, nil
}

// rangeNumRe 匹配区间标签中的首个数字组（允许千分位逗号）
var rangeNumRe = regexp.MustCompile(`([\d,]+)\s*([KkMm]?)`)

// parseOrdinal 将区间标签映射到既定有序枚举
// 已知标签（大小写不敏感）取配置序；未知标签原样保留、排在所有已知标签之后
// 返回值 known=false 时调用方应上报（不得静默丢弃）
func parseOrdinal(raw string, order []string) model.OrdinalLabel {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.OrdinalLabel{}
	}

	for i, label := range order {
		if strings.EqualFold(s, label) {
			return model.OrdinalLabel{
				Label:      label, // 取配置中的标准写法
				Rank:       i,
				Known:      true,
				LowerBound: rangeLowerBound(label),
			}
		}
	}
	return model.OrdinalLabel{
		Label:      s,
		Rank:       len(order),
		Known:      false,
		LowerBound: rangeLowerBound(s),
	}
}

// rangeLowerBound 从区间标签提取可排序的数值下界
// "$100,000-$249,999" → 100000；"$1M-$5M" → 1000000；无数字 → 0
func rangeLowerBound(label string) decimal.Decimal {
	m := rangeNumRe.FindStringSubmatch(label)
	if m == nil {
		return decimal.Zero
	}
	n, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero
	}
	switch strings.ToUpper(m[2]) {
	case "K":
		n = n.Mul(decimal.NewFromInt(1000))
	case "M":
		n = n.Mul(decimal.NewFromInt(1000000))
	}
	return n
}

// splitName 拆分姓名串
// "Last, First M." → (First M., Last)；无逗号时末词为姓
func splitName(name string) (first, last string) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return strings.TrimSpace(s[i+1:]), strings.TrimSpace(s[:i])
	}
	fields := strings.Fields(s)
	if len(fields) == 1 {
		return "", fields[0]
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
