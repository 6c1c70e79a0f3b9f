package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/settlement-converter/internal/settlement"
)

type plainDecoder struct{}

func (plainDecoder) DecodeLine(raw []byte) (string, error) { return string(raw), nil }

type failingDecoder struct{}

func (failingDecoder) DecodeLine(raw []byte) (string, error) { return "", errors.New("bad bytes") }

func TestScanReply(t *testing.T) {
	data := []byte("B 0001 X 6222000011112222 张三 1 150000 M 0007 R\r\n" +
		"B 0002 X 6222000033334444 李四 1 3160 M 0012 R\r\n" +
		"B 0001 X 6222000011112222 张三 1 150000 M 0007 R\r\n" +
		"\r\n" +
		"TOTAL 3 303160\r\n")

	scan := ScanReply(data, plainDecoder{}, settlement.LocalReplySchema, PolicyReport)

	require.Len(t, scan.Lines, 5)
	assert.Equal(t, []settlement.IdentityKey{
		{"张三", "6222000011112222", "150000", "0007"},
		{"李四", "6222000033334444", "3160", "0012"},
	}, scan.Keys)
	assert.NotNil(t, scan.Lines[2].Key, "duplicate lines still carry their key")
	assert.Nil(t, scan.Lines[3].Key)
	assert.Nil(t, scan.Lines[4].Key)
	assert.Equal(t, []settlement.LineIssue{{Line: 5, Reason: settlement.ReasonFieldCount}}, scan.Issues)
}

func TestScanReply_SkipPolicy(t *testing.T) {
	scan := ScanReply([]byte("TOTAL 1 100\n"), plainDecoder{}, settlement.OtherReplySchema, PolicySkip)
	assert.Empty(t, scan.Keys)
	assert.Empty(t, scan.Issues)
	assert.Len(t, scan.Lines, 1)
}

func TestScanReply_UndecodableLine(t *testing.T) {
	scan := ScanReply([]byte("x\n"), failingDecoder{}, settlement.LocalReplySchema, PolicyReport)
	require.Len(t, scan.Issues, 1)
	assert.Equal(t, settlement.ReasonUndecodableLine, scan.Issues[0].Reason)
	assert.Len(t, scan.Lines, 1)
}
