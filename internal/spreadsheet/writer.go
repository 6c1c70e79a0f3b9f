package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Built-in excelize number formats
const (
	numFmtFixed2 = 2  // 0.00
	numFmtText   = 49 // @
)

// Writer renders rows into an xlsx workbook.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a new spreadsheet writer
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Render builds a workbook with a bold header row followed by one row per
// entry of rows and returns its bytes. Values of currency columns must be
// decimal strings such as "1500.00"; an empty value leaves the cell blank.
func (w *Writer) Render(sheet string, columns []Column, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		NumFmt:    numFmtText,
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return nil, fmt.Errorf("failed to create text style: %w", err)
	}
	currencyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtFixed2})
	if err != nil {
		return nil, fmt.Errorf("failed to create currency style: %w", err)
	}

	for col, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(sheet, cell, c.Header); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", cell, err)
		}
		style := textStyle
		if c.Kind == KindCurrency {
			style = currencyStyle
		}
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColStyle(sheet, colName, style); err != nil {
			return nil, fmt.Errorf("failed to style column %s: %w", colName, err)
		}
		if c.Width > 0 {
			if err := f.SetColWidth(sheet, colName, colName, c.Width); err != nil {
				return nil, fmt.Errorf("failed to size column %s: %w", colName, err)
			}
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", r+1, len(row), len(columns))
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := w.setCell(f, sheet, cell, columns[col], value, textStyle, currencyStyle); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Debug("Workbook rendered",
		zap.String("sheet", sheet),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(rows)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

// setCell writes one data cell with the type of its column
func (w *Writer) setCell(f *excelize.File, sheet, cell string, c Column, value string, textStyle, currencyStyle int) error {
	if c.Kind == KindCurrency && value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("cell %s: invalid amount %q: %w", cell, value, err)
		}
		f64, _ := d.Float64()
		if err := f.SetCellFloat(sheet, cell, f64, -1, 64); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
		return f.SetCellStyle(sheet, cell, cell, currencyStyle)
	}
	if err := f.SetCellStr(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to write cell %s: %w", cell, err)
	}
	return f.SetCellStyle(sheet, cell, cell, textStyle)
}
