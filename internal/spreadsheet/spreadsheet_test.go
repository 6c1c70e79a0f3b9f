package spreadsheet

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func renderToFile(t *testing.T, columns []Column, rows [][]string) string {
	t.Helper()
	w := NewWriter(zap.NewNop())
	data, err := w.Render("数据", columns, rows)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "offer.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestWriter_Render_TextAmounts(t *testing.T) {
	path := renderToFile(t, LocalOfferColumns(KindText), [][]string{
		{"张三", "6222000011112222", "1500.00", "0007", "", ""},
	})

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "数据", f.GetSheetName(0))

	header, err := f.GetCellValue("数据", "A1")
	require.NoError(t, err)
	assert.Equal(t, HeaderName, header)

	styleID, err := f.GetCellStyle("数据", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	amount, err := f.GetCellValue("数据", "C2")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", amount)

	remark, err := f.GetCellValue("数据", "D2")
	require.NoError(t, err)
	assert.Equal(t, "0007", remark)

	card, err := f.GetCellValue("数据", "B2")
	require.NoError(t, err)
	assert.Equal(t, "6222000011112222", card)
}

func TestWriter_Render_CurrencyAmounts(t *testing.T) {
	path := renderToFile(t, LocalOfferColumns(KindCurrency), [][]string{
		{"张三", "6222000011112222", "1500.00", "0007", "", ""},
		{"李四", "6222000033334444", "31.60", "0012", "", ""},
	})

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	shown, err := f.GetCellValue("数据", "C3")
	require.NoError(t, err)
	assert.Equal(t, "31.60", shown)

	raw, err := f.GetCellValue("数据", "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1500", raw)
}

func TestWriter_Render_Errors(t *testing.T) {
	w := NewWriter(zap.NewNop())

	_, err := w.Render("", LocalOfferColumns(KindCurrency), [][]string{{"a", "b", "not money"}})
	assert.Error(t, err)

	_, err = w.Render("", []Column{{Header: "only"}}, [][]string{{"a", "b"}})
	assert.Error(t, err)
}

func TestReader_ReadRows_XLSX(t *testing.T) {
	path := renderToFile(t, OtherOfferColumns(KindText), [][]string{
		{"某公司", "6222000011112222", "1", "104100000123", "00201", "AG2024001", "", "31.60", "0012", "", "全部成功"},
	})

	rows, err := NewReader(zap.NewNop()).ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Len(t, rows[0], 11)
	assert.Equal(t, HeaderFlag, rows[0][10])
	assert.Equal(t, "31.60", rows[1][7])
	assert.Equal(t, "全部成功", rows[1][10])
}

func TestReader_ReadRows_Errors(t *testing.T) {
	r := NewReader(zap.NewNop())

	_, err := r.ReadRows(filepath.Join(t.TempDir(), "missing.xls"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	plain := filepath.Join(t.TempDir(), "reply.xls")
	require.NoError(t, os.WriteFile(plain, []byte("name,card\n"), 0644))
	_, err = r.ReadRows(plain)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReader_ReadRows_XLS(t *testing.T) {
	// The first amount carries a custom number format, the second is stored
	// as 3160 with the divide-by-100 flag.
	rows, err := NewReader(zap.NewNop()).ReadRows(filepath.Join("testdata", "reply_local.xls"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"姓名", "卡号", "金额", "备注", "实处理金额", "处理标志"},
		{"张三", "6222000011112222", "1500", "0007", "1500", "全部成功"},
		{"李四", "6222000033334444", "31.6", "0012", "0", "余额不足"},
	}, rows)
}

func biffRecord(id uint16, payload ...any) []byte {
	var buf bytes.Buffer
	for _, p := range payload {
		_ = binary.Write(&buf, binary.LittleEndian, p)
	}
	data := buf.Bytes()
	rec := binary.LittleEndian.AppendUint16(nil, id)
	rec = binary.LittleEndian.AppendUint16(rec, uint16(len(data)))
	return append(rec, data...)
}

func TestSheetNumbers(t *testing.T) {
	var stream []byte
	stream = append(stream, biffRecord(0x0809, uint16(0x0600), uint16(0x0010))...)
	// MULRK on row 1, columns 2 and 3
	stream = append(stream, biffRecord(recordMulRK,
		uint16(1), uint16(2),
		uint16(0), uint32(1500<<2|2),
		uint16(0), uint32(3160<<2|3),
		uint16(3))...)
	stream = append(stream, biffRecord(recordRK, uint16(2), uint16(4), uint16(0), uint32(7<<2|2))...)
	stream = append(stream, biffRecord(recordEOF)...)
	stream = append(stream, biffRecord(recordRK, uint16(9), uint16(0), uint16(0), uint32(1<<2|2))...)

	cells := sheetNumbers(stream, 0)
	assert.Equal(t, []numericCell{
		{row: 1, col: 2, value: "1500"},
		{row: 1, col: 3, value: "31.6"},
		{row: 2, col: 4, value: "7"},
	}, cells)

	rows := overlayNumbers([][]string{{"h"}, {"a", "b", "2024-01-01T00:00:00Z"}}, cells)
	assert.Equal(t, [][]string{
		{"h"},
		{"a", "b", "1500", "31.6"},
		{"", "", "", "", "7"},
	}, rows)
}

func TestFirstSheetOffset(t *testing.T) {
	globals := biffRecord(0x0809, uint16(0x0600), uint16(0x0005))
	globals = append(globals, biffRecord(recordBoundSheet, uint32(96), uint8(0), uint8(0))...)
	globals = append(globals, biffRecord(recordEOF)...)

	off, ok := firstSheetOffset(globals)
	require.True(t, ok)
	assert.Equal(t, 96, off)

	_, ok = firstSheetOffset(biffRecord(recordEOF))
	assert.False(t, ok)
	_, ok = firstSheetOffset([]byte{0x85, 0x00, 0xFF})
	assert.False(t, ok)
}

func TestRKString(t *testing.T) {
	floatRK := func(f float64) uint32 { return uint32(math.Float64bits(f) >> 32) }
	intRK := func(v int32) uint32 { return uint32(v<<2) | 2 }

	tests := []struct {
		name string
		rk   uint32
		want string
	}{
		{"integer", intRK(1500), "1500"},
		{"integer divided by 100", 3160<<2 | 3, "31.6"},
		{"negative integer", intRK(-5), "-5"},
		{"float", floatRK(1500.5), "1500.5"},
		{"float divided by 100", floatRK(1234) | 1, "12.34"},
		{"zero", 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rkString(tt.rk))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLS, DetectFormat([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1}))
	assert.Equal(t, FormatXLSX, DetectFormat([]byte("PK\x03\x04rest")))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("PK")))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
}

func TestPadRowAndBlank(t *testing.T) {
	assert.Equal(t, []string{"a", "", ""}, PadRow([]string{"a"}, 3))
	assert.Equal(t, []string{"a", "b"}, PadRow([]string{"a", "b"}, 1))
	assert.True(t, IsBlankRow([]string{"", "  "}))
	assert.True(t, IsBlankRow(nil))
	assert.False(t, IsBlankRow([]string{"", "x"}))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Currency")
	require.NoError(t, err)
	assert.Equal(t, KindCurrency, k)
	assert.Equal(t, "currency", k.String())

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindText, k)

	_, err = ParseKind("date")
	assert.Error(t, err)
}
