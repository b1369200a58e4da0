// Package store holds the persistence sinks for canonical rate records.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/deporate/crawler/internal/pkg/model"
)

const sheetName = "Select Rates"

var columns = []string{
	"bank", "nkb", "full_name", "group_1", "product",
	"date", "day", "month", "year", "week",
	"currency", "term", "rate", "source_url",
}

// XLSX appends records to one sheet of a workbook. Existing rows are never
// rewritten and the header row is written only when the sheet is new.
type XLSX struct {
	path   string
	logger *zap.Logger
}

func NewXLSX(path string, logger *zap.Logger) *XLSX {
	return &XLSX{path: path, logger: logger}
}

// Append writes all records below the last used row and returns the workbook
// path. Any error here is fatal for the run.
func (s *XLSX) Append(_ context.Context, records []model.CanonicalRecord) (string, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("create output dir: %w", err))
	}

	file, startRow, err := s.open()
	if err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", err)
	}
	defer file.Close()

	if startRow == 1 {
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := file.SetCellValue(sheetName, cell, col); err != nil {
				return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("write header: %w", err))
			}
		}
		startRow = 2
	}

	for i, rec := range records {
		if err := s.writeRow(file, startRow+i, rec); err != nil {
			return "", model.NewFailure(model.FailureSink, "", "", err)
		}
	}

	if err := s.applyFormats(file, startRow, len(records)); err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", err)
	}

	if err := file.SaveAs(s.path); err != nil {
		return "", model.NewFailure(model.FailureSink, "", "", fmt.Errorf("save %s: %w", s.path, err))
	}
	s.logger.Info("saved workbook", zap.String("path", s.path), zap.Int("rows", len(records)))
	return s.path, nil
}

// open returns the workbook and the first free row (1-based). A missing file
// or sheet starts at row 1 so the header gets written.
func (s *XLSX) open() (*excelize.File, int, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		file := excelize.NewFile()
		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, 0, fmt.Errorf("create sheet: %w", err)
		}
		if err := file.DeleteSheet("Sheet1"); err != nil {
			return nil, 0, fmt.Errorf("drop default sheet: %w", err)
		}
		return file, 1, nil
	}

	file, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", s.path, err)
	}

	idx, err := file.GetSheetIndex(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("sheet lookup: %w", err)
	}
	if idx < 0 {
		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, 0, fmt.Errorf("create sheet: %w", err)
		}
		return file, 1, nil
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) == 0 {
		return file, 1, nil
	}
	return file, len(rows) + 1, nil
}

func (s *XLSX) writeRow(file *excelize.File, row int, rec model.CanonicalRecord) error {
	date := civil.DateOf(rec.CapturedAt)
	_, week := rec.CapturedAt.ISOWeek()

	values := []interface{}{
		rec.BankID,
		rec.BankCode,
		rec.BankFullName,
		string(rec.OwnershipGroup),
		rec.ProductName,
		rec.CapturedAt,
		date.Day,
		int(date.Month),
		date.Year,
		week,
		string(rec.Currency),
		fmt.Sprintf("%dm", rec.TermMonths),
		rec.RatePercent,
		rec.SourceURL,
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := file.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}

// applyFormats sets the date and rate number formats on the appended block.
func (s *XLSX) applyFormats(file *excelize.File, startRow, count int) error {
	if count == 0 {
		return nil
	}
	endRow := startRow + count - 1

	dateFmt := "dd.mm.yyyy"
	dateStyle, err := file.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	if err := file.SetCellStyle(sheetName, fmt.Sprintf("F%d", startRow), fmt.Sprintf("F%d", endRow), dateStyle); err != nil {
		return fmt.Errorf("date format: %w", err)
	}

	rateFmt := "0.00"
	rateStyle, err := file.NewStyle(&excelize.Style{CustomNumFmt: &rateFmt})
	if err != nil {
		return fmt.Errorf("rate style: %w", err)
	}
	if err := file.SetCellStyle(sheetName, fmt.Sprintf("M%d", startRow), fmt.Sprintf("M%d", endRow), rateStyle); err != nil {
		return fmt.Errorf("rate format: %w", err)
	}
	return nil
}
