package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/settlement-converter/internal/pipeline"
	"github.com/garyjia/settlement-converter/internal/settlement"
)

// Report formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown report format %q (want text, json or yaml)", f)
	}
}

// report is a command result that also knows its plain text rendering.
type report interface {
	value() interface{}
	text(w io.Writer)
}

func writeReport(w io.Writer, format string, r report) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r.value())
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.value()); err != nil {
			return err
		}
		return enc.Close()
	default:
		r.text(w)
		return nil
	}
}

func offerReport(res *pipeline.OfferResult) report { return offerView{res} }

func replyReport(res *pipeline.ReplyResult) report { return replyView{res} }

type offerView struct{ res *pipeline.OfferResult }

func (v offerView) value() interface{} { return v.res }

func (v offerView) text(w io.Writer) {
	r := v.res
	if r.OutputPath != "" {
		fmt.Fprintf(w, "Output:  %s\n", r.OutputPath)
	} else {
		fmt.Fprintln(w, "Output:  (none)")
	}
	fmt.Fprintf(w, "Charset: %s\n", r.Charset)
	fmt.Fprintf(w, "Records: %d\n", len(r.Records))
	writeIssues(w, r.Issues)
}

type replyView struct{ res *pipeline.ReplyResult }

func (v replyView) value() interface{} { return v.res }

func (v replyView) text(w io.Writer) {
	r := v.res
	fmt.Fprintf(w, "Status:    %s (%s)\n", r.Message, r.Status)
	fmt.Fprintf(w, "Charset:   %s\n", r.Charset)
	if r.Consistent() {
		fmt.Fprintf(w, "Output:    %s\n", r.OutputPath)
		fmt.Fprintf(w, "Annotated: %d\n", r.Annotated)
	}
	if len(r.DuplicateKeys) > 0 {
		writeKeys(w, "Duplicate spreadsheet keys", r.DuplicateKeys)
	}
	if !r.Consistent() {
		writeKeys(w, "Only in text", r.OnlyInText)
		writeKeys(w, "Only in spreadsheet", r.OnlyInSpreadsheet)
	}
	writeIssues(w, r.Issues)
}

func writeKeys(w io.Writer, title string, keys []settlement.IdentityKey) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(keys))
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\n", strings.Join(k, " | "))
	}
}

func writeIssues(w io.Writer, issues []settlement.LineIssue) {
	fmt.Fprintf(w, "Issues:  %d\n", len(issues))
	for _, is := range issues {
		fmt.Fprintf(w, "  line %d: %s\n", is.Line, is.Reason)
	}
}
