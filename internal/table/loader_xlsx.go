package table

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// loadXLSX reads one worksheet with the same header and padding rules as the
// delimited loader.
func loadXLSX(path string, opt LoadOptions) LoadResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return failed(path, fmt.Errorf("open xlsx: %w", err))
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return failed(path, fmt.Errorf("open xlsx: workbook has no sheets"))
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return failed(path, fmt.Errorf("read sheet %q: %w", sheet, err))
	}

	var header []string
	var recs [][]string
	skipped := 0
	for _, row := range rows {
		if header == nil {
			if len(row) == 0 {
				continue
			}
			header = trimAll(row)
			continue
		}
		if opt.MaxRows > 0 && len(recs) >= opt.MaxRows {
			break
		}
		if len(row) > len(header) {
			skipped++
			continue
		}
		recs = append(recs, row)
	}
	if header == nil {
		return failed(path, ErrNoHeader)
	}
	t := New(filepath.Base(path), header, recs)
	return finish(path, t, 0, skipped)
}
