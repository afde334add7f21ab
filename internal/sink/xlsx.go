package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/solar-quotes/constants"
)

// XLSXAppender appends rows to a local workbook, creating it with a header row.
type XLSXAppender struct {
	path  string
	sheet string
	log   *slog.Logger

	mu sync.Mutex
}

func NewXLSXAppender(path, sheet string, log *slog.Logger) *XLSXAppender {
	if log == nil {
		log = slog.Default()
	}
	if sheet == "" {
		sheet = "Quotes"
	}
	return &XLSXAppender{path: path, sheet: sheet, log: log}
}

func (a *XLSXAppender) Name() string { return "xlsx" }

func (a *XLSXAppender) AppendRow(ctx context.Context, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			a.log.Warn("xlsx close failed", "path", a.path, "error", err)
		}
	}()

	rows, err := f.GetRows(a.sheet)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	if err := f.SetSheetRow(a.sheet, cell, &values); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := f.SaveAs(a.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// open loads the workbook, or creates it, and makes sure the sheet has a header.
func (a *XLSXAppender) open() (*excelize.File, error) {
	var f *excelize.File
	if _, err := os.Stat(a.path); errors.Is(err, fs.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", a.sheet); err != nil {
			return nil, err
		}
		a.log.Info("xlsx workbook created", "path", a.path, "sheet", a.sheet)
	} else {
		f, err = excelize.OpenFile(a.path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
	}

	idx, err := f.GetSheetIndex(a.sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if idx == -1 {
		if _, err := f.NewSheet(a.sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	rows, err := f.GetRows(a.sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if len(rows) == 0 {
		header := make([]interface{}, 0, len(constants.FieldOrder()))
		for _, label := range constants.FieldOrder() {
			header = append(header, label)
		}
		if err := f.SetSheetRow(a.sheet, "A1", &header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}
