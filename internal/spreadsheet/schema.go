// Package spreadsheet writes offer spreadsheets and reads reply spreadsheets.
package spreadsheet

import (
	"fmt"
	"strings"
)

// Kind is the cell type of a column.
type Kind int

const (
	// KindText cells are stored as strings with the "@" format so card
	// numbers keep their leading zeros and never turn into 6.22E+18.
	KindText Kind = iota
	// KindCurrency cells are stored as numbers formatted "0.00".
	KindCurrency
)

// ParseKind reads a column kind from configuration.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return KindText, nil
	case "currency", "number", "numeric":
		return KindCurrency, nil
	default:
		return KindText, fmt.Errorf("unknown column kind: %s", s)
	}
}

func (k Kind) String() string {
	if k == KindCurrency {
		return "currency"
	}
	return "text"
}

// Column is one column of an output sheet.
type Column struct {
	Header string
	Kind   Kind
	Width  float64
}

// Header texts shared by both offer layouts
const (
	HeaderName          = "姓名\n(不超过60个字节)"
	HeaderCard          = "卡号"
	HeaderBankType      = "行别"
	HeaderInterbankCode = "跨行行号"
	HeaderBusinessType  = "业务种类"
	HeaderAgreementNo   = "协议书号"
	HeaderAccountAddr   = "账号地址"
	HeaderAmount        = "应处理金额(必须小于1亿)"
	HeaderRemark        = "备注(不超过12个字节)"
	HeaderActualAmount  = "实处理金额"
	HeaderFlag          = "处理标志"
)

// LocalOfferColumns is the 6-column 本行报盘 layout.
func LocalOfferColumns(amount Kind) []Column {
	return []Column{
		{Header: HeaderName, Width: 30},
		{Header: HeaderCard, Width: 24},
		{Header: HeaderAmount, Kind: amount, Width: 18},
		{Header: HeaderRemark, Width: 16},
		{Header: HeaderActualAmount, Width: 12},
		{Header: HeaderFlag, Width: 12},
	}
}

// OtherOfferColumns is the 11-column 他行报盘 layout.
func OtherOfferColumns(amount Kind) []Column {
	return []Column{
		{Header: HeaderName, Width: 30},
		{Header: HeaderCard, Width: 24},
		{Header: HeaderBankType, Width: 8},
		{Header: HeaderInterbankCode, Width: 16},
		{Header: HeaderBusinessType, Width: 10},
		{Header: HeaderAgreementNo, Width: 16},
		{Header: HeaderAccountAddr, Width: 16},
		{Header: HeaderAmount, Kind: amount, Width: 18},
		{Header: HeaderRemark, Width: 16},
		{Header: HeaderActualAmount, Width: 12},
		{Header: HeaderFlag, Width: 12},
	}
}
