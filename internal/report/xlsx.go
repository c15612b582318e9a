package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"docsense/internal/domain"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// XLSX renders a batch as a workbook with a Results sheet and a Summary sheet.
func XLSX(batch *domain.BatchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("creating summary sheet: %w", err)
	}
	index, _ := f.GetSheetIndex(resultsSheet)
	f.SetActiveSheet(index)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for i, h := range columns {
		write(resultsSheet, i+1, 1, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(resultsSheet, "A1", last, bold)

	for r, row := range Rows(batch) {
		for c, v := range row {
			write(resultsSheet, c+1, r+2, v)
		}
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 32) // name
	_ = f.SetColWidth(resultsSheet, "B", "F", 16)
	_ = f.SetColWidth(resultsSheet, "G", "G", 60) // fields
	_ = f.SetColWidth(resultsSheet, "H", "H", 40) // error

	summary := [][2]string{
		{"Total Files", "0"},
		{"Processed", "0"},
		{"Failed", "0"},
		{"Total Detections", "0"},
		{"Average Confidence", domain.FormatConfidence(0)},
	}
	if batch != nil {
		summary[0][1] = strconv.Itoa(len(batch.Results) + len(batch.Failed))
		summary[1][1] = strconv.Itoa(len(batch.Results))
		summary[2][1] = strconv.Itoa(len(batch.Failed))
		summary[3][1] = strconv.Itoa(batch.TotalDetections)
		summary[4][1] = domain.FormatConfidence(batch.AverageConfidence())
	}
	for i, kv := range summary {
		write(summarySheet, 1, i+1, kv[0])
		write(summarySheet, 2, i+1, kv[1])
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
