package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/settlement-converter/internal/settlement"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Skip")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyReport, p)

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}

func TestLocalOfferParser_Parse(t *testing.T) {
	lines := []string{
		"B 0001 X 6222000011112222 张三 1 150000 M 0007 R",
		"B 0002 X 6222000033334444 天津 某某 公司 1 3160 M 0012 R",
		"",
		"B 0003 X 6222000055556666 李四 1 000 M 0013",
		"this line is not a record",
		"TOTAL 3 153160",
	}

	res := NewLocalOfferParser(PolicyReport).Parse(lines)

	require.Len(t, res.Records, 3)

	assert.Equal(t, settlement.Record{
		Line:       1,
		Name:       "张三",
		CardNumber: "6222000011112222",
		Amount:     150000,
		Remark:     "0007",
	}, res.Records[0])

	assert.Equal(t, "天津 某某 公司", res.Records[1].Name)
	assert.Equal(t, "31.60", res.Records[1].Amount.String())
	assert.Equal(t, "0012", res.Records[1].Remark)

	assert.Equal(t, "李四", res.Records[2].Name)
	assert.Equal(t, "0.00", res.Records[2].Amount.String())
	assert.Equal(t, "0013", res.Records[2].Remark)

	assert.Equal(t, []settlement.LineIssue{{Line: 5, Reason: settlement.ReasonFormatMismatch}}, res.Issues)
}

func TestLocalOfferParser_IdeographicSpace(t *testing.T) {
	lines := []string{"B　0001　X　6222　张三　1　100　M　0007　R", "TOTAL"}

	res := NewLocalOfferParser(PolicyReport).Parse(lines)

	require.Len(t, res.Records, 1)
	assert.Equal(t, "张三", res.Records[0].Name)
	assert.Equal(t, settlement.Amount(100), res.Records[0].Amount)
}

func TestLocalOfferParser_TrailerHandling(t *testing.T) {
	lines := []string{"B 0001 X 6222 张三 1 100 M 0007 R"}

	assert.Empty(t, NewLocalOfferParser(PolicyReport).Parse(lines).Records, "the only line is the trailer")

	p := &LocalOfferParser{Policy: PolicyReport}
	assert.Len(t, p.Parse(lines).Records, 1)
}

func TestLocalOfferParser_SkipPolicy(t *testing.T) {
	res := NewLocalOfferParser(PolicySkip).Parse([]string{"garbage", "trailer"})
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Issues)
}

func TestOtherOfferParser_Parse(t *testing.T) {
	sentinel := "天津泰达津联自来水有限公司"
	lines := []string{
		"HDR " + sentinel + " 20240101",
		"T00201 0001 X104100000123 6222000011112222 某公司 1 3160 AG2024001 0012 R",
		"   ",
		"T1 0002 SHORT 6222000033334444 李四 2 abc AG2024002 0013 R",
		"too few tokens",
	}

	t.Run("skip policy drops malformed lines silently", func(t *testing.T) {
		res := NewOtherOfferParser(PolicySkip, sentinel).Parse(lines)

		require.Len(t, res.Records, 2)
		assert.Empty(t, res.Issues)

		assert.Equal(t, settlement.Record{
			Line:          2,
			Name:          "某公司",
			CardNumber:    "6222000011112222",
			Amount:        3160,
			Remark:        "0012",
			BankType:      "1",
			InterbankCode: "104100000123",
			BusinessType:  "00201",
			AgreementNo:   "AG2024001",
		}, res.Records[0])

		second := res.Records[1]
		assert.Equal(t, DefaultBusinessType, second.BusinessType)
		assert.Empty(t, second.InterbankCode)
		assert.Equal(t, "2", second.BankType)
		assert.Equal(t, settlement.Amount(0), second.Amount)
	})

	t.Run("report policy lists malformed lines", func(t *testing.T) {
		res := NewOtherOfferParser(PolicyReport, sentinel).Parse(lines)
		assert.Equal(t, []settlement.LineIssue{{Line: 5, Reason: settlement.ReasonFieldCount}}, res.Issues)
	})

	t.Run("last line is kept", func(t *testing.T) {
		res := NewOtherOfferParser(PolicySkip, "").Parse(lines[1:2])
		assert.Len(t, res.Records, 1)
	})
}
