// Package export renders analysis history as spreadsheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"boxcounter/internal/model"
)

// SheetName is the worksheet holding one row per analysis.
const SheetName = "Analyses"

var headers = []string{
	"Analysis ID",
	"Date",
	"Time",
	"File",
	"618 Confirmed",
	"623 Confirmed",
	"618 Visual",
	"623 Visual",
	"618 Total",
	"623 Total",
	"Boxes Detected",
	"Labels Detected",
	"Unidentified Labels",
	"Duration (ms)",
}

// AnalysesXLSX returns an XLSX workbook (as bytes) listing records in the
// given order, followed by a totals row.
func AnalysesXLSX(records []model.AnalysisRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if index, _ := f.GetSheetIndex(SheetName); index == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return nil, err
		}
	}
	// Drop the default sheet so the workbook opens on the history.
	if f.GetSheetName(0) != SheetName {
		_ = f.DeleteSheet(f.GetSheetName(0))
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	var totals [8]int
	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		local := r.CreatedAt.Local()
		write(1, r.ID)
		write(2, local.Format("2006-01-02"))
		write(3, local.Format("15:04:05"))
		write(4, r.Filename)

		values := []int{
			r.Confirmed618, r.Confirmed623, r.Visual618, r.Visual623,
			r.Confirmed618 + r.Visual618, r.Confirmed623 + r.Visual623,
			r.TotalBoxesDetected, r.LabelsDetected,
		}
		for i, v := range values {
			write(5+i, v)
			totals[i] += v
		}
		write(13, r.UnidentifiedLabels)
		write(14, r.DurationMs)

		row++
	}

	if len(records) > 0 {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(SheetName, cell, "Total")
		for i, v := range totals {
			cell, _ := excelize.CoordinatesToCellName(5+i, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38) // id
	_ = f.SetColWidth(SheetName, "B", "C", 12)
	_ = f.SetColWidth(SheetName, "D", "D", 30) // file
	_ = f.SetColWidth(SheetName, "E", "N", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
