package parser

import (
	"strings"

	"github.com/garyjia/settlement-converter/internal/settlement"
)

// LineDecoder decodes one raw line with a file's charset.
type LineDecoder interface {
	DecodeLine(raw []byte) (string, error)
}

// ReplyLine is a source line together with its identity key. Key is nil for
// lines that do not take part in reconciliation.
type ReplyLine struct {
	RawLine
	Key settlement.IdentityKey
}

// ReplyScan is the text side of a reply reconciliation.
type ReplyScan struct {
	Lines  []ReplyLine
	Keys   []settlement.IdentityKey
	Issues []settlement.LineIssue
}

// ScanReply extracts identity keys from every line of an offer file. Keys
// are unique and kept in first-seen order. Blank lines pass through
// silently; other ineligible lines are reported according to policy.
func ScanReply(data []byte, dec LineDecoder, schema settlement.KeySchema, policy Policy) *ReplyScan {
	scan := &ReplyScan{}
	seen := make(map[string]struct{})
	report := func(line int, reason string) {
		if policy != PolicySkip {
			scan.Issues = append(scan.Issues, settlement.LineIssue{Line: line, Reason: reason})
		}
	}

	for _, raw := range SplitRawLines(data) {
		rl := ReplyLine{RawLine: raw}
		scan.Lines = append(scan.Lines, rl)
		idx := len(scan.Lines) - 1

		text, err := dec.DecodeLine(raw.Body)
		if err != nil {
			report(raw.Number, settlement.ReasonUndecodableLine)
			continue
		}
		tokens := strings.Fields(text)
		if len(tokens) == 0 {
			continue
		}
		key, ok := schema.KeyFromTokens(tokens)
		if !ok {
			report(raw.Number, settlement.ReasonFieldCount)
			continue
		}
		scan.Lines[idx].Key = key
		if _, dup := seen[key.ID()]; !dup {
			seen[key.ID()] = struct{}{}
			scan.Keys = append(scan.Keys, key)
		}
	}
	return scan
}
