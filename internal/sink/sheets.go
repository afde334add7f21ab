package sink

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// valueInputUserEntered parses values as if typed into the sheet.
const valueInputUserEntered = "USER_ENTERED"

// SheetsAppender appends rows to a Google Sheets range.
type SheetsAppender struct {
	srv           *sheets.Service
	spreadsheetID string
	rangeName     string
	log           *slog.Logger
}

func NewSheetsAppender(ctx context.Context, credsJSON []byte, spreadsheetID, rangeName string, log *slog.Logger) (*SheetsAppender, error) {
	return newSheetsAppender(ctx, spreadsheetID, rangeName, log,
		option.WithCredentialsJSON(credsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

func newSheetsAppender(ctx context.Context, spreadsheetID, rangeName string, log *slog.Logger, opts ...option.ClientOption) (*SheetsAppender, error) {
	if log == nil {
		log = slog.Default()
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsAppender{srv: srv, spreadsheetID: spreadsheetID, rangeName: rangeName, log: log}, nil
}

func (a *SheetsAppender) Name() string { return "sheets" }

func (a *SheetsAppender) AppendRow(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	resp, err := a.srv.Spreadsheets.Values.
		Append(a.spreadsheetID, a.rangeName, &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	if resp.Updates != nil {
		a.log.Debug("sheets.append.updated", "range", resp.Updates.UpdatedRange, "cells", resp.Updates.UpdatedCells)
	}
	return nil
}
