// Package annotate writes disposition codes into the remark field of offer
// lines to produce a reply file.
package annotate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/parser"
	"github.com/garyjia/settlement-converter/internal/settlement"
)

// Style selects how the disposition code is laid into the line.
type Style string

const (
	// StyleCompact writes prefix + the last remark character over the
	// 4-digit remark only. This is the default.
	StyleCompact Style = "compact"
	// StyleWiden writes prefix+remark (7 bytes) over the 4-digit remark and
	// the 3 padding bytes before it. Line length is unchanged, so it needs
	// fixed-width layouts with at least 4 spaces before the remark.
	StyleWiden Style = "widen"
)

// ParseStyle validates a style name from configuration.
func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleCompact, StyleWiden:
		return st, nil
	case "":
		return StyleCompact, nil
	default:
		return "", fmt.Errorf("unknown annotate style: %s", s)
	}
}

// FlagLookup resolves the processing flag of a key.
type FlagLookup interface {
	Flag(key settlement.IdentityKey) (string, bool)
}

// Output is the rebuilt reply file.
type Output struct {
	Data      []byte
	Annotated int
	Issues    []settlement.LineIssue
}

// Annotator rewrites matched lines byte for byte.
type Annotator struct {
	schema      settlement.KeySchema
	style       Style
	successFlag string
	pattern     *regexp.Regexp
	logger      *zap.Logger
}

// NewAnnotator creates a new line annotator
func NewAnnotator(schema settlement.KeySchema, style Style, successFlag string, logger *zap.Logger) *Annotator {
	if successFlag == "" {
		successFlag = settlement.DefaultSuccessFlag
	}
	return &Annotator{
		schema:      schema,
		style:       style,
		successFlag: successFlag,
		pattern:     regexp.MustCompile(fmt.Sprintf(`^((?:\S+\s+){%d})(\d{4})(\s+\S+.*)$`, schema.RemarkToken)),
		logger:      logger,
	}
}

// Annotate rebuilds the file from lines. Lines without a key or without a
// flag are copied verbatim, as are lines whose remark span cannot be
// located; the latter are reported.
func (a *Annotator) Annotate(lines []parser.ReplyLine, flags FlagLookup) *Output {
	var buf bytes.Buffer
	out := &Output{}

	for _, line := range lines {
		if line.Key == nil {
			buf.Write(line.Bytes())
			continue
		}
		flag, ok := flags.Flag(line.Key)
		if !ok {
			buf.Write(line.Bytes())
			continue
		}

		body, reason := a.rewrite(line.Body, flag, a.schema.Remark(line.Key))
		if reason != "" {
			out.Issues = append(out.Issues, settlement.LineIssue{Line: line.Number, Reason: reason})
			buf.Write(line.Bytes())
			continue
		}
		buf.Write(body)
		buf.Write(line.Terminator)
		out.Annotated++
	}

	out.Data = buf.Bytes()
	a.logger.Debug("Reply lines annotated",
		zap.String("style", string(a.style)),
		zap.Int("lines", len(lines)),
		zap.Int("annotated", out.Annotated),
		zap.Int("issues", len(out.Issues)))

	return out
}

// rewrite returns the new line body, or a reason when the line keeps its
// original bytes.
func (a *Annotator) rewrite(body []byte, flag, remark string) ([]byte, string) {
	m := a.pattern.FindSubmatchIndex(body)
	if m == nil {
		return nil, settlement.ReasonNoRemarkSpan
	}
	start, end := m[4], m[5]
	code := settlement.DispositionCode(flag, a.successFlag)

	var replacement string
	switch a.style {
	case StyleWiden:
		replacement = code + remark
		// The code is wider than the remark; take the extra width from the
		// padding in front of it but keep at least one separator.
		extra := len(replacement) - (end - start)
		if extra > 0 {
			if paddingBefore(body, start) <= extra {
				return nil, settlement.ReasonNarrowPadding
			}
			start -= extra
		}
	default:
		replacement = code + lastChar(remark)
	}

	out := make([]byte, 0, len(body)-(end-start)+len(replacement))
	out = append(out, body[:start]...)
	out = append(out, replacement...)
	out = append(out, body[end:]...)
	return out, ""
}

// paddingBefore counts the whitespace bytes immediately before pos.
func paddingBefore(body []byte, pos int) int {
	n := 0
	for i := pos - 1; i >= 0; i-- {
		switch body[i] {
		case ' ', '\t':
			n++
		default:
			return n
		}
	}
	return n
}

func lastChar(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}
