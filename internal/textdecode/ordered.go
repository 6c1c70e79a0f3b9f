package textdecode

import (
	"fmt"
	"strings"
)

// DefaultEncodings is the trial order used for Chinese bank files.
var DefaultEncodings = []string{"gbk", "utf-8", "gb18030"}

// OrderedDecoder tries each candidate in turn; the first one that decodes
// the whole input wins.
type OrderedDecoder struct {
	candidates []Candidate
}

// NewOrderedDecoder resolves names into candidates. An empty list means
// DefaultEncodings.
func NewOrderedDecoder(names ...string) (*OrderedDecoder, error) {
	if len(names) == 0 {
		names = DefaultEncodings
	}
	d := &OrderedDecoder{}
	for _, name := range names {
		c, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		d.candidates = append(d.candidates, c)
	}
	return d, nil
}

// Decode implements TextDecoder.
func (d *OrderedDecoder) Decode(data []byte) (*Result, error) {
	for _, c := range d.candidates {
		if text, ok := decodeStrict(c.Encoding, data); ok {
			return &Result{Text: text, Charset: c.Name, encoding: c.Encoding}, nil
		}
	}
	return nil, fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(d.Names(), ", "))
}

// Names lists the candidate names in trial order.
func (d *OrderedDecoder) Names() []string {
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.Name
	}
	return names
}
