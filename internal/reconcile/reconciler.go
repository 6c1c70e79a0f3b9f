package reconcile

import (
	"sort"

	"github.com/garyjia/settlement-converter/internal/settlement"
)

// Status is the outcome of comparing two key sets.
type Status string

const (
	StatusConsistent   Status = "consistent"
	StatusInconsistent Status = "inconsistent"
)

// Message is the operator-facing text of the status.
func (s Status) Message() string {
	if s == StatusConsistent {
		return "文件信息一致"
	}
	return "报盘txt与回盘xls信息不一致"
}

// Result holds both one-sided differences. Both are empty when Status is
// StatusConsistent.
type Result struct {
	Status            Status                   `json:"status" yaml:"status"`
	OnlyInText        []settlement.IdentityKey `json:"only_in_text" yaml:"only_in_text"`
	OnlyInSpreadsheet []settlement.IdentityKey `json:"only_in_spreadsheet" yaml:"only_in_spreadsheet"`
}

// Consistent reports whether the sets were equal.
func (r *Result) Consistent() bool {
	return r.Status == StatusConsistent
}

// Reconcile compares the text keys with the spreadsheet keys as sets.
// Duplicates and order on either side do not matter.
func Reconcile(textKeys, sheetKeys []settlement.IdentityKey) *Result {
	text := toSet(textKeys)
	sheet := toSet(sheetKeys)

	res := &Result{
		OnlyInText:        difference(text, sheet),
		OnlyInSpreadsheet: difference(sheet, text),
	}
	if len(res.OnlyInText) == 0 && len(res.OnlyInSpreadsheet) == 0 {
		res.Status = StatusConsistent
	} else {
		res.Status = StatusInconsistent
	}
	return res
}

func toSet(keys []settlement.IdentityKey) map[string]settlement.IdentityKey {
	set := make(map[string]settlement.IdentityKey, len(keys))
	for _, k := range keys {
		set[k.ID()] = k
	}
	return set
}

// difference returns a - b sorted by the first two key fields.
func difference(a, b map[string]settlement.IdentityKey) []settlement.IdentityKey {
	var out []settlement.IdentityKey
	for id, k := range a {
		if _, ok := b[id]; !ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
