package textdecode

import (
	"github.com/saintfish/chardet"
)

// DefaultSampleSize is how many leading bytes are fed to the detector.
const DefaultSampleSize = 10000

// SniffDecoder guesses the charset from a sample of the input. When the
// guess cannot decode the whole input, the fallback decoder takes over.
type SniffDecoder struct {
	detector   *chardet.Detector
	sampleSize int
	fallback   TextDecoder
}

// NewSniffDecoder creates a sniffing decoder with the given fallback.
func NewSniffDecoder(sampleSize int, fallback TextDecoder) *SniffDecoder {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &SniffDecoder{
		detector:   chardet.NewTextDetector(),
		sampleSize: sampleSize,
		fallback:   fallback,
	}
}

// Decode implements TextDecoder.
func (d *SniffDecoder) Decode(data []byte) (*Result, error) {
	if name, confidence, err := d.Detect(data); err == nil {
		if c, err := Lookup(name); err == nil {
			if text, ok := decodeStrict(c.Encoding, data); ok {
				return &Result{Text: text, Charset: c.Name, Confidence: confidence, encoding: c.Encoding}, nil
			}
		}
	}
	return d.fallback.Decode(data)
}

// Detect returns the detector's best guess for the sample of data and its
// confidence from 0 to 100, without decoding.
func (d *SniffDecoder) Detect(data []byte) (string, int, error) {
	sample := data
	if len(sample) > d.sampleSize {
		sample = sample[:d.sampleSize]
	}
	best, err := d.detector.DetectBest(sample)
	if err != nil {
		return "", 0, err
	}
	return best.Charset, best.Confidence, nil
}
