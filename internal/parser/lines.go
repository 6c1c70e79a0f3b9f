// Package parser tokenizes settlement text lines into offer records and
// reply identity keys.
package parser

import (
	"bytes"
	"strings"
)

// RawLine is one line of a source file exactly as stored on disk.
type RawLine struct {
	Number     int
	Body       []byte
	Terminator []byte
}

// Bytes returns the original line including its terminator.
func (l RawLine) Bytes() []byte {
	out := make([]byte, 0, len(l.Body)+len(l.Terminator))
	out = append(out, l.Body...)
	return append(out, l.Terminator...)
}

// SplitRawLines splits data after every '\n'. A trailing "\r\n" or "\n" is
// kept as the terminator so the file can be rebuilt byte for byte. A final
// line without terminator is kept when it is not empty.
func SplitRawLines(data []byte) []RawLine {
	var lines []RawLine
	for n := 1; len(data) > 0; n++ {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, RawLine{Number: n, Body: data})
			break
		}
		body, term := data[:i], data[i:i+1]
		if i > 0 && data[i-1] == '\r' {
			body, term = data[:i-1], data[i-1:i+1]
		}
		lines = append(lines, RawLine{Number: n, Body: body, Terminator: term})
		data = data[i+1:]
	}
	return lines
}

// SplitTextLines splits decoded text the same way as SplitRawLines but
// drops the terminators.
func SplitTextLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// lastRunes returns the trailing n characters of s.
func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
