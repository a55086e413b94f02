package sheet

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ── 工作簿载入 ──
//
// 一场活动对应工作簿中的一张 Sheet；Sheet 在工作簿中的顺序即
// 场次的稳定顺序（承载时间先后含义），载入后不得重排。
// 空 Sheet（0 行）是合法输入，产出一张空的 RawTable。

// LoadWorkbook 从数据流读取工作簿，按 Sheet 顺序返回原始表
// skipSheets 中列出的 Sheet 名被跳过（大小写不敏感）
func LoadWorkbook(r io.Reader, skipSheets []string) ([]RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("无法解析工作簿: %w", err)
	}
	defer f.Close()

	return readTables(f, skipSheets)
}

// LoadWorkbookFile 从文件路径读取工作簿
// 文件本身缺失或不可读是整次运行唯一的致命条件
func LoadWorkbookFile(path string, skipSheets []string) ([]RawTable, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开工作簿文件: %w", err)
	}
	defer fh.Close()

	return LoadWorkbook(fh, skipSheets)
}

func readTables(f *excelize.File, skipSheets []string) ([]RawTable, error) {
	skip := make(map[string]bool, len(skipSheets))
	for _, name := range skipSheets {
		skip[strings.ToLower(strings.TrimSpace(name))] = true
	}

	sheets := f.GetSheetList()
	tables := make([]RawTable, 0, len(sheets))

	for _, name := range sheets {
		if skip[strings.ToLower(name)] {
			continue
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("读取工作表 %q 失败: %w", name, err)
		}

		tbl := RawTable{SessionID: name}
		if len(rows) > 0 {
			tbl.Header = rows[0]
			tbl.Rows = rows[1:]
		}
		tables = append(tables, tbl)
	}

	return tables, nil
}
