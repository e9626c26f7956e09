package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

const sheetName = "Trade"

// RenderWorkbook writes the chart series into a single-sheet xlsx workbook with a
// column chart next to the data. The latest month is set in bold.
func RenderWorkbook(chart *model.TradeChart) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &[]any{"Month", "Total Value"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "B1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, point := range chart.Points {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{point.Month, point.TotalValue.InexactFloat64()}); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if point.IsLatest {
			end, _ := excelize.CoordinatesToCellName(2, row)
			if err := f.SetCellStyle(sheetName, cell, end, bold); err != nil {
				return nil, fmt.Errorf("failed to style latest row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	if n := len(chart.Points); n > 0 {
		last := n + 1
		title := fmt.Sprintf("Monthly trade value for %s", chart.HSCode)
		if chart.LatestLabel != "" {
			title += " (latest: " + chart.LatestLabel + ")"
		}
		if err := f.AddChart(sheetName, "D2", &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$1", sheetName),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheetName, last),
			}},
			Title:  []excelize.RichTextRun{{Text: title}},
			Legend: excelize.ChartLegend{Position: "none"},
		}); err != nil {
			return nil, fmt.Errorf("failed to add chart: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
