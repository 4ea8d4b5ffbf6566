package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ── Excel 导出公共辅助 ──

// xlsxContentType .xlsx 文件的 MIME 类型
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// newSheetFile 创建仅含一个命名工作表的文件
func newSheetFile(sheetName string) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	return f, nil
}

// headerStyle 表头样式
func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return style
}

// writeHeader 在指定行写入表头并应用样式
func writeHeader(f *excelize.File, sheet string, row int, titles []string) {
	for i, t := range titles {
		f.SetCellValue(sheet, cell(colName(i), row), t)
	}
	if len(titles) > 0 {
		f.SetCellStyle(sheet, cell("A", row), cell(colName(len(titles)-1), row), headerStyle(f))
	}
}
