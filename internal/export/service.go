package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/solar-quotes/constants"
	processor "github.com/joseph-ayodele/solar-quotes/internal/pipeline"
	"github.com/joseph-ayodele/solar-quotes/internal/quote"
)

const (
	comparisonSheet = "Comparison"
	glossarySheet   = "Glossary"
)

// Service renders processed quotes as a side-by-side comparison workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// displayColumns are the field labels shown in the comparison, customer contact excluded.
func displayColumns() []string {
	var cols []string
	for _, label := range constants.FieldOrder() {
		if !constants.IsPrivate(label) {
			cols = append(cols, label)
		}
	}
	return cols
}

// ComparisonXLSX returns a workbook (as bytes) with one row per document and a glossary sheet.
// Failed documents keep their row with the error in the last column.
func (s *Service) ComparisonXLSX(results []processor.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", comparisonSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(glossarySheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	flagged, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE699"}},
	})
	if err != nil {
		return nil, err
	}

	fields := displayColumns()
	headers := append([]string{"File"}, fields...)
	headers = append(headers, "Computed Cost per Watt", "Cost Check", "Analysis", "Sheet Appended", "Error")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(comparisonSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(comparisonSheet, "A1", lastHeader, bold)

	for i, r := range results {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(comparisonSheet, cell, v)
		}

		col := 1
		write(col, r.Filename)
		for _, label := range fields {
			col++
			write(col, r.Display[label])
		}

		computed := ""
		if r.CostCheck.Computed > 0 {
			computed = quote.FormatCostPerWatt(r.CostCheck.Computed)
		}
		write(col+1, computed)
		write(col+2, string(r.CostCheck.Status))
		write(col+3, r.Analysis)
		write(col+4, r.SheetAppended)
		errMsg := ""
		switch {
		case r.Err != nil:
			errMsg = r.Err.Error()
		case r.Skipped:
			errMsg = "already recorded"
		}
		write(col+5, errMsg)

		if r.CostCheck.Status == quote.CostCheckMismatch || r.Err != nil {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(comparisonSheet, first, last, flagged)
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(comparisonSheet, "A", "A", 28)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(comparisonSheet, "B", lastCol, 22)
	_ = f.SetPanes(comparisonSheet, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})

	if err := writeGlossary(f, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeGlossary(f *excelize.File, headerStyle int) error {
	if err := f.SetSheetRow(glossarySheet, "A1", &[]interface{}{"Term", "Definition"}); err != nil {
		return err
	}
	for i, e := range quote.Terms() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(glossarySheet, cell, &[]interface{}{e.Term, e.Definition}); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(glossarySheet, "A1", "B1", headerStyle)
	_ = f.SetColWidth(glossarySheet, "A", "A", 22)
	_ = f.SetColWidth(glossarySheet, "B", "B", 90)
	return nil
}
