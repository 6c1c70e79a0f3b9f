package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/garyjia/settlement-converter/internal/settlement"
)

// Policy decides what happens to lines that do not have the expected shape.
type Policy string

const (
	// PolicyReport records a LineIssue for every malformed line.
	PolicyReport Policy = "report"
	// PolicySkip drops malformed lines without a trace.
	PolicySkip Policy = "skip"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyReport, PolicySkip:
		return p, nil
	case "":
		return PolicyReport, nil
	default:
		return "", fmt.Errorf("unknown malformed line policy: %s", s)
	}
}

// Result collects the records of one offer file and the lines left out.
type Result struct {
	Records []settlement.Record
	Issues  []settlement.LineIssue
}

func (r *Result) reject(p Policy, line int, reason string) {
	if p == PolicySkip {
		return
	}
	r.Issues = append(r.Issues, settlement.LineIssue{Line: line, Reason: reason})
}

// OfferParser turns decoded offer lines into records.
type OfferParser interface {
	Parse(lines []string) *Result
}

// Whitespace classes also cover U+3000 and other Unicode spaces that
// Chinese fixed-width reports pad with.
const (
	ws    = `[\s\p{Zs}]`
	nonWS = `[^\s\p{Zs}]`
)

// localOfferPattern has 10 groups: prefix, sequence number, fixed code, card
// number, name (may contain spaces), fixed value, amount, code 1, remark,
// trailing note (may be empty).
var localOfferPattern = regexp.MustCompile(strings.NewReplacer(`\s`, ws, `\S`, nonWS).Replace(
	`^(\S+)\s+(\d+)\s+(\S+)\s+(\S+)\s+(.+?)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S*)\s*(\S*)$`,
))

// LocalOfferParser parses 本行报盘 files.
type LocalOfferParser struct {
	Policy Policy
	// DropTrailer drops the final line, which holds the batch totals.
	DropTrailer bool
}

// NewLocalOfferParser creates a parser that drops the summary line.
func NewLocalOfferParser(policy Policy) *LocalOfferParser {
	return &LocalOfferParser{Policy: policy, DropTrailer: true}
}

// Parse implements OfferParser.
func (p *LocalOfferParser) Parse(lines []string) *Result {
	res := &Result{}
	if p.DropTrailer && len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		n := i + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := localOfferPattern.FindStringSubmatch(line)
		if m == nil {
			res.reject(p.Policy, n, settlement.ReasonFormatMismatch)
			continue
		}
		res.Records = append(res.Records, settlement.Record{
			Line:       n,
			CardNumber: m[4],
			Name:       strings.TrimSpace(m[5]),
			Amount:     settlement.ParseMinorUnits(m[7]),
			Remark:     strings.TrimSpace(m[9]),
		})
	}
	return res
}

// Defaults applied to interbank offer fields
const (
	DefaultBusinessType = "00201"
	DefaultBankType     = "1"
	// DefaultSentinel is the payer company whose header lines precede the
	// records in interbank offers.
	DefaultSentinel = "天津泰达津联自来水有限公司"
)

// OtherOfferParser parses 他行报盘 files.
type OtherOfferParser struct {
	Policy Policy
	// Sentinel marks header lines (the payer company name); such lines are
	// never records.
	Sentinel string
}

// NewOtherOfferParser creates a parser for interbank offers.
func NewOtherOfferParser(policy Policy, sentinel string) *OtherOfferParser {
	return &OtherOfferParser{Policy: policy, Sentinel: sentinel}
}

// Parse implements OfferParser.
func (p *OtherOfferParser) Parse(lines []string) *Result {
	res := &Result{}
	for i, line := range lines {
		n := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		if p.Sentinel != "" && strings.Contains(line, p.Sentinel) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) != 10 {
			res.reject(p.Policy, n, settlement.ReasonFieldCount)
			continue
		}

		businessType := DefaultBusinessType
		if utf8.RuneCountInString(tokens[0]) >= 5 {
			businessType = lastRunes(tokens[0], 5)
		}
		var interbankCode string
		if utf8.RuneCountInString(tokens[2]) >= 12 {
			interbankCode = lastRunes(tokens[2], 12)
		}
		bankType := tokens[5]
		if bankType == "" {
			bankType = DefaultBankType
		}

		res.Records = append(res.Records, settlement.Record{
			Line:          n,
			BusinessType:  businessType,
			InterbankCode: interbankCode,
			CardNumber:    tokens[3],
			Name:          tokens[4],
			BankType:      bankType,
			Amount:        settlement.ParseMinorUnits(tokens[6]),
			AgreementNo:   tokens[7],
			Remark:        tokens[8],
		})
	}
	return res
}
