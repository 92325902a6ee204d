package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook saves every summary as its own sheet of one xlsx file.
func WriteWorkbook(path string, summaries []Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("write workbook: no summaries")
	}
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	used := map[string]bool{}
	for i, s := range summaries {
		name := sheetName(s.Name, used)
		used[name] = true
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
		for r, row := range s.Grid() {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = cellValue(v, r == 0 || c == 0)
			}
			ref, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, ref, &cells); err != nil {
				return fmt.Errorf("write sheet %s: %w", name, err)
			}
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// cellValue stores numeric cells as numbers so spreadsheets can compute with them.
func cellValue(v string, label bool) any {
	if label || v == "" {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

var sheetReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// sheetName makes name a valid, unique sheet name (at most 31 characters).
func sheetName(name string, used map[string]bool) string {
	base := sheetReplacer.Replace(strings.TrimSpace(name))
	if base == "" {
		base = "summary"
	}
	if len(base) > 31 {
		base = base[:31]
	}
	out := base
	for n := 2; used[out]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		cut := base
		if len(cut)+len(suffix) > 31 {
			cut = cut[:31-len(suffix)]
		}
		out = cut + suffix
	}
	return out
}
