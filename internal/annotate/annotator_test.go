package annotate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/garyjia/settlement-converter/internal/parser"
	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/internal/textdecode"
)

type plainDecoder struct{}

func (plainDecoder) DecodeLine(raw []byte) (string, error) { return string(raw), nil }

type mapFlags map[string]string

func (m mapFlags) Flag(key settlement.IdentityKey) (string, bool) {
	f, ok := m[key.ID()]
	return f, ok
}

func flagsFor(pairs ...any) mapFlags {
	m := mapFlags{}
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(settlement.IdentityKey).ID()] = pairs[i+1].(string)
	}
	return m
}

var (
	keyZhang = settlement.IdentityKey{"张三", "6222000011112222", "150000", "0007"}
	keyLi    = settlement.IdentityKey{"李四", "6222000033334444", "3160", "0012"}
)

const replyText = "HEADER 20240101\r\n" +
	"B 0001 X 6222000011112222 张三 1 150000 M    0007   R1\r\n" +
	"B 0002 X 6222000033334444 李四 1 3160   M    0012 R2\r\n" +
	"TOTAL 2 153160"

func annotateText(t *testing.T, style Style, text string, flags FlagLookup) *Output {
	t.Helper()
	scan := parser.ScanReply([]byte(text), plainDecoder{}, settlement.LocalReplySchema, parser.PolicySkip)
	a := NewAnnotator(settlement.LocalReplySchema, style, "", zap.NewNop())
	return a.Annotate(scan.Lines, flags)
}

func TestAnnotator_Widen(t *testing.T) {
	out := annotateText(t, StyleWiden, replyText, flagsFor(keyZhang, "全部成功", keyLi, "失败"))

	want := "HEADER 20240101\r\n" +
		"B 0001 X 6222000011112222 张三 1 150000 M 0010007   R1\r\n" +
		"B 0002 X 6222000033334444 李四 1 3160   M 0020012 R2\r\n" +
		"TOTAL 2 153160"

	assert.Equal(t, want, string(out.Data))
	assert.Equal(t, 2, out.Annotated)
	assert.Empty(t, out.Issues)
	assert.Equal(t, len(replyText), len(out.Data), "line lengths are preserved")
}

func TestAnnotator_Compact(t *testing.T) {
	out := annotateText(t, StyleCompact, replyText, flagsFor(keyZhang, "全部成功", keyLi, "部分成功"))

	want := "HEADER 20240101\r\n" +
		"B 0001 X 6222000011112222 张三 1 150000 M    0017   R1\r\n" +
		"B 0002 X 6222000033334444 李四 1 3160   M    0022 R2\r\n" +
		"TOTAL 2 153160"

	assert.Equal(t, want, string(out.Data))
	assert.Equal(t, 2, out.Annotated)
}

func TestAnnotator_OnlyRemarkSpanChanges(t *testing.T) {
	out := annotateText(t, StyleCompact, replyText, flagsFor(keyZhang, "全部成功"))

	in := []byte(replyText)
	require.Equal(t, len(in), len(out.Data))

	var changed []int
	for i := range in {
		if in[i] != out.Data[i] {
			changed = append(changed, i)
		}
	}
	span := bytes.Index(in, []byte("0007"))
	require.NotEmpty(t, changed)
	for _, pos := range changed {
		assert.True(t, pos >= span && pos < span+4, "byte %d changed outside the remark span", pos)
	}
	assert.Equal(t, 1, out.Annotated)
}

func TestAnnotator_NarrowPadding(t *testing.T) {
	text := "B 0001 X 6222000011112222 张三 1 150000 M 0007 R1\n"

	out := annotateText(t, StyleWiden, text, flagsFor(keyZhang, "全部成功"))

	assert.Equal(t, text, string(out.Data))
	assert.Zero(t, out.Annotated)
	assert.Equal(t, []settlement.LineIssue{{Line: 1, Reason: settlement.ReasonNarrowPadding}}, out.Issues)

	out = annotateText(t, StyleCompact, text, flagsFor(keyZhang, "全部成功"))
	assert.Equal(t, "B 0001 X 6222000011112222 张三 1 150000 M 0017 R1\n", string(out.Data))
}

func TestAnnotator_UnsetStyleKeepsSpacing(t *testing.T) {
	text := "A 0001 X CARD123 AliceCo 1 150000 M 0007 R\n"
	key := settlement.IdentityKey{"AliceCo", "CARD123", "150000", "0007"}

	out := annotateText(t, "", text, flagsFor(key, "全部成功"))

	assert.Equal(t, "A 0001 X CARD123 AliceCo 1 150000 M 0017 R\n", string(out.Data))
	assert.Equal(t, 1, out.Annotated)
	assert.Empty(t, out.Issues)
}

func TestAnnotator_RemarkNotDigits(t *testing.T) {
	text := "B 0001 X 6222000011112222 张三 1 150000 M    00A7 R1\n"
	key := settlement.IdentityKey{"张三", "6222000011112222", "150000", "00A7"}

	out := annotateText(t, StyleWiden, text, flagsFor(key, "全部成功"))

	assert.Equal(t, text, string(out.Data))
	assert.Equal(t, []settlement.LineIssue{{Line: 1, Reason: settlement.ReasonNoRemarkSpan}}, out.Issues)
}

func TestAnnotator_RerunOnAnnotatedFile(t *testing.T) {
	flags := flagsFor(keyZhang, "全部成功", keyLi, "失败")
	first := annotateText(t, StyleWiden, replyText, flags)

	again := annotateText(t, StyleWiden, replyText, flags)
	assert.Equal(t, first.Data, again.Data, "same inputs give the same bytes")

	annotatedKeys := flagsFor(
		settlement.IdentityKey{"张三", "6222000011112222", "150000", "0010007"}, "全部成功",
	)
	second := annotateText(t, StyleWiden, string(first.Data), annotatedKeys)
	assert.Equal(t, first.Data, second.Data)
	assert.Zero(t, second.Annotated)
	assert.Len(t, second.Issues, 1)
}

func TestAnnotator_GBKBytesPreserved(t *testing.T) {
	src := "B 0001 X 6222000011112222 张三 1 150000 M    0007 R1\n" +
		"天津某某有限公司 合计 1\n"
	data, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(src))
	require.NoError(t, err)

	dec, err := textdecode.NewOrderedDecoder("gbk")
	require.NoError(t, err)
	res, err := dec.Decode(data)
	require.NoError(t, err)

	scan := parser.ScanReply(data, res, settlement.LocalReplySchema, parser.PolicyReport)
	require.Len(t, scan.Keys, 1)

	a := NewAnnotator(settlement.LocalReplySchema, StyleWiden, settlement.DefaultSuccessFlag, zap.NewNop())
	out := a.Annotate(scan.Lines, flagsFor(keyZhang, "全部成功"))

	want, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(
		"B 0001 X 6222000011112222 张三 1 150000 M 0010007 R1\n" +
			"天津某某有限公司 合计 1\n"))
	require.NoError(t, err)
	assert.Equal(t, want, out.Data)
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleCompact, s)

	s, err = ParseStyle("Widen")
	require.NoError(t, err)
	assert.Equal(t, StyleWiden, s)

	_, err = ParseStyle("inline")
	assert.Error(t, err)
}
