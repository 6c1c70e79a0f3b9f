package spreadsheet

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/richardlehane/mscfb"
	"github.com/shopspring/decimal"
)

// BIFF record identifiers.
const (
	recordEOF        = 0x000A
	recordBoundSheet = 0x0085
	recordMulRK      = 0x00BD
	recordRK         = 0x027E
)

// numericCell is one RK value of a worksheet, zero-based.
type numericCell struct {
	row   int
	col   int
	value string
}

// workbookStream returns the BIFF record stream of a compound document.
// BIFF8 names it Workbook, BIFF5 Book.
func workbookStream(ra io.ReaderAt) ([]byte, error) {
	doc, err := mscfb.New(ra)
	if err != nil {
		return nil, fmt.Errorf("failed to open compound document: %w", err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		data := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, data); err != nil {
			return nil, fmt.Errorf("failed to read %s stream: %w", entry.Name, err)
		}
		return data, nil
	}
	return nil, ErrNoWorkbookStream
}

// nextRecord splits off the record starting at off. ok is false once the
// stream has no complete record left.
func nextRecord(stream []byte, off int) (id uint16, data []byte, next int, ok bool) {
	if off < 0 || off+4 > len(stream) {
		return 0, nil, off, false
	}
	id = binary.LittleEndian.Uint16(stream[off:])
	size := int(binary.LittleEndian.Uint16(stream[off+2:]))
	next = off + 4 + size
	if next > len(stream) {
		return 0, nil, off, false
	}
	return id, stream[off+4 : next], next, true
}

// firstSheetOffset finds the stream position of the first sheet's BOF in
// the workbook globals.
func firstSheetOffset(stream []byte) (int, bool) {
	for off := 0; ; {
		id, data, next, ok := nextRecord(stream, off)
		if !ok || id == recordEOF {
			return 0, false
		}
		if id == recordBoundSheet && len(data) >= 4 {
			return int(binary.LittleEndian.Uint32(data)), true
		}
		off = next
	}
}

// sheetNumbers collects the RK and MULRK cells of the sheet substream at
// start, up to its EOF record.
func sheetNumbers(stream []byte, start int) []numericCell {
	var cells []numericCell
	// Skip the sheet's own BOF.
	_, _, off, ok := nextRecord(stream, start)
	for ok {
		var id uint16
		var data []byte
		id, data, off, ok = nextRecord(stream, off)
		if !ok || id == recordEOF {
			break
		}
		switch id {
		case recordRK:
			if len(data) < 10 {
				continue
			}
			cells = append(cells, numericCell{
				row:   int(binary.LittleEndian.Uint16(data)),
				col:   int(binary.LittleEndian.Uint16(data[2:])),
				value: rkString(binary.LittleEndian.Uint32(data[6:])),
			})
		case recordMulRK:
			// row, first column, n * (xf, rk), last column
			if len(data) < 12 {
				continue
			}
			row := int(binary.LittleEndian.Uint16(data))
			first := int(binary.LittleEndian.Uint16(data[2:]))
			for i, p := 0, 4; p+6 <= len(data)-2; i, p = i+1, p+6 {
				cells = append(cells, numericCell{
					row:   row,
					col:   first + i,
					value: rkString(binary.LittleEndian.Uint32(data[p+2:])),
				})
			}
		}
	}
	return cells
}

// rkString decodes an RK number. Bit 1 marks a signed 30-bit integer,
// otherwise the upper 30 bits are the high bits of a float64. Bit 0 divides
// the value by 100.
func rkString(rk uint32) string {
	var d decimal.Decimal
	if rk&0x02 != 0 {
		d = decimal.NewFromInt(int64(int32(rk) >> 2))
	} else {
		d = decimal.NewFromFloat(math.Float64frombits(uint64(rk&^0x03) << 32))
	}
	if rk&0x01 != 0 {
		d = d.Shift(-2)
	}
	return d.String()
}

// overlayNumbers writes cells over rows, growing rows as needed.
func overlayNumbers(rows [][]string, cells []numericCell) [][]string {
	for _, c := range cells {
		for len(rows) <= c.row {
			rows = append(rows, nil)
		}
		rows[c.row] = PadRow(rows[c.row], c.col+1)
		rows[c.row][c.col] = c.value
	}
	return rows
}
