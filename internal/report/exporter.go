// Package report renders case audit trails as Excel workbooks for offline
// review boards.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

const sheetName = "Audit Trail"

// Exporter builds audit-trail workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// BuildHistoryWorkbook renders the case summary and its full transition
// ledger into a single-sheet workbook. The caller owns closing the file.
func (e *Exporter) BuildHistoryWorkbook(c *entity.Case, entries []*entity.TransitionHistoryEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	// Case summary block
	setCell(f, "A1", "Case Number")
	setCell(f, "B1", c.CaseNumber)
	setCell(f, "A2", "Variant")
	setCell(f, "B2", c.Variant)
	setCell(f, "A3", "Current State")
	setCell(f, "B3", c.CurrentState)
	setCell(f, "A4", "Member")
	setCell(f, "B4", c.MemberName)

	// Ledger header
	headers := []string{"#", "From", "To", "Trigger", "Authority", "Timestamp", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		setCell(f, cell, h)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A6", "G6", style)
	}

	for i, entry := range entries {
		row := 7 + i
		setCell(f, fmt.Sprintf("A%d", row), i+1)
		setCell(f, fmt.Sprintf("B%d", row), entry.FromState)
		setCell(f, fmt.Sprintf("C%d", row), entry.ToState)
		setCell(f, fmt.Sprintf("D%d", row), entry.Trigger)
		setCell(f, fmt.Sprintf("E%d", row), entry.Authority)
		setCell(f, fmt.Sprintf("F%d", row), entry.Timestamp.Format("2006-01-02 15:04:05 UTC"))
		setCell(f, fmt.Sprintf("G%d", row), entry.Notes)
	}

	_ = f.SetColWidth(sheetName, "A", "G", 22)

	e.logger.Debug("Audit workbook built",
		zap.String("case_number", c.CaseNumber),
		zap.Int("entries", len(entries)))
	return f, nil
}

func setCell(f *excelize.File, cell string, value interface{}) {
	_ = f.SetCellValue(sheetName, cell, value)
}
