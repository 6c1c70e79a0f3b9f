// Package textdecode turns the raw bytes of a legacy settlement file into
// text. Encodings are never declared by the files, so a decoder either tries
// an ordered list of candidates or sniffs the charset statistically.
package textdecode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

var (
	ErrUndecodable       = errors.New("no candidate encoding decodes the input")
	ErrUnknownEncoding   = errors.New("unknown encoding")
	ErrUnsupportedLayout = errors.New("encoding is not ASCII compatible")
)

// Strategy names accepted by New
const (
	StrategyOrdered = "ordered"
	StrategySniff   = "sniff"
)

// TextDecoder decodes a whole file and reports which charset was used.
type TextDecoder interface {
	Decode(data []byte) (*Result, error)
}

// Result is a successfully decoded file.
type Result struct {
	Text    string
	Charset string
	// Confidence is the detector's score when the charset was sniffed, zero
	// when it came from the ordered candidates.
	Confidence int
	encoding   encoding.Encoding
}

// DecodeLine decodes one raw line with the charset chosen for the file.
func (r *Result) DecodeLine(raw []byte) (string, error) {
	s, ok := decodeStrict(r.encoding, raw)
	if !ok {
		return "", fmt.Errorf("%w as %s", ErrUndecodable, r.Charset)
	}
	return s, nil
}

// Candidate is a named encoding tried by a decoder.
type Candidate struct {
	Name     string
	Encoding encoding.Encoding
}

// aliases covers names used by Windows and by charset detectors that the
// WHATWG index does not know.
var aliases = map[string]encoding.Encoding{
	"gbk":      simplifiedchinese.GBK,
	"cp936":    simplifiedchinese.GBK,
	"gb2312":   simplifiedchinese.GBK,
	"gb18030":  simplifiedchinese.GB18030,
	"gb-18030": simplifiedchinese.GB18030,
	"utf-8":    unicode.UTF8,
	"utf8":     unicode.UTF8,
	"ascii":    unicode.UTF8,
}

// Lookup resolves an encoding name to a Candidate.
func Lookup(name string) (Candidate, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(key, "utf-16") || strings.HasPrefix(key, "utf-32") {
		return Candidate{}, fmt.Errorf("%w: %s", ErrUnsupportedLayout, name)
	}
	if enc, ok := aliases[key]; ok {
		return Candidate{Name: key, Encoding: enc}, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return Candidate{Name: key, Encoding: enc}, nil
}

// New builds the decoder for a strategy. names is the ordered candidate list,
// which also serves as the fallback of the sniffing strategy.
func New(strategy string, names []string, sampleSize int) (TextDecoder, error) {
	ordered, err := NewOrderedDecoder(names...)
	if err != nil {
		return nil, err
	}
	switch strategy {
	case StrategyOrdered, "":
		return ordered, nil
	case StrategySniff:
		return NewSniffDecoder(sampleSize, ordered), nil
	default:
		return nil, fmt.Errorf("unknown decoding strategy: %s", strategy)
	}
}

// decodeStrict decodes data and rejects any input that needed a
// replacement character.
func decodeStrict(enc encoding.Encoding, data []byte) (string, bool) {
	if enc == unicode.UTF8 {
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
