package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Format is a spreadsheet container format.
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatUnknown Format = "unknown"
)

var (
	ErrUnknownFormat = errors.New("unrecognized spreadsheet format")
	ErrNoSheet       = errors.New("workbook has no sheets")

	// ErrNoWorkbookStream is returned for OLE2 files that are not Excel workbooks.
	ErrNoWorkbookStream = errors.New("compound document has no workbook stream")
)

var (
	magicOLE2 = []byte{0xD0, 0xCF, 0x11, 0xE0}
	magicZIP  = []byte{0x50, 0x4B, 0x03, 0x04}
)

// DetectFormat checks the magic bytes of a workbook: legacy XLS files are
// OLE2 compound documents, XLSX files are ZIP archives.
func DetectFormat(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, magicOLE2):
		return FormatXLS
	case bytes.HasPrefix(head, magicZIP):
		return FormatXLSX
	default:
		return FormatUnknown
	}
}

// Reader loads the first sheet of a workbook as rows of cell text.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a new spreadsheet reader
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadRows returns every row of the first sheet, header included. Cells
// hold their raw stored value, so numbers come back without display
// formatting.
func (r *Reader) ReadRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	head := make([]byte, 8)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read header bytes: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	format := DetectFormat(head[:n])
	r.logger.Debug("Reading spreadsheet",
		zap.String("path", path),
		zap.String("format", string(format)))

	switch format {
	case FormatXLSX:
		return readXLSX(file)
	case FormatXLS:
		return readXLS(file)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func readXLSX(rd io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", sheet, err)
	}
	return rows, nil
}

// xlsSource is what readXLS needs: the xls package reads through a
// ReadSeeker, the compound document reader through a ReaderAt.
type xlsSource interface {
	io.ReadSeeker
	io.ReaderAt
}

// readXLS reads a BIFF workbook. Text cells come from the xls package; RK
// number cells are then replaced with their plain value read straight from
// the record stream, see sheetNumbers. The xls package panics on some
// corrupt streams, which is turned into an error here.
func readXLS(src xlsSource) (rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("corrupt xls workbook: %v", p)
		}
	}()

	wb, err := xls.OpenReader(src, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if wb == nil {
		return nil, ErrNoWorkbookStream
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheet
	}
	if sheet.MaxRow == 0 {
		rows = firstRow(sheet)
	} else {
		rows = wb.ReadAllCells(int(sheet.MaxRow) + 1)
	}

	stream, err := workbookStream(src)
	if err != nil {
		return nil, err
	}
	if start, ok := firstSheetOffset(stream); ok {
		rows = overlayNumbers(rows, sheetNumbers(stream, start))
	}
	return rows, nil
}

// firstRow reads a sheet holding at most one row, which ReadAllCells skips.
func firstRow(sheet *xls.WorkSheet) (rows [][]string) {
	// Row dereferences a missing row.
	defer func() {
		if recover() != nil {
			rows = nil
		}
	}()
	row := sheet.Row(0)
	cells := make([]string, row.LastCol())
	for j := row.FirstCol(); j < row.LastCol(); j++ {
		cells[j] = row.Col(j)
	}
	return [][]string{cells}
}

// PadRow extends row with empty cells up to width.
func PadRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// IsBlankRow reports whether every cell of row is empty or whitespace.
func IsBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
