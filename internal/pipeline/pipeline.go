// Package pipeline wires decoding, parsing, spreadsheet I/O, reconciliation
// and annotation into the four settlement file flows.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/config"
	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/internal/storage"
)

// Variant selects the bank flavour of a flow.
type Variant string

const (
	// VariantLocal is 本行: accounts held at the paying bank.
	VariantLocal Variant = "local"
	// VariantOther is 他行: interbank accounts.
	VariantOther Variant = "other"
)

var ErrUnknownVariant = errors.New("unknown variant")

// ParseVariant accepts "local" or "other".
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantLocal, VariantOther:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Output file name suffixes
const (
	OfferOutputSuffix = "_报盘结果.xlsx"
	ReplyOutputSuffix = "_回盘结果.txt"
)

// DefaultOfferOutput places the offer spreadsheet next to its source.
func DefaultOfferOutput(sourcePath string) string {
	return stem(sourcePath) + OfferOutputSuffix
}

// DefaultReplyOutput places the annotated reply next to its source.
func DefaultReplyOutput(sourcePath string) string {
	return stem(sourcePath) + ReplyOutputSuffix
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// readSource reads a settlement text file in full.
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", settlement.ErrEmptySource, path)
	}
	return data, nil
}

// Service holds the configured pipelines of both variants.
type Service struct {
	offers  map[Variant]*OfferPipeline
	replies map[Variant]*ReplyPipeline
}

// NewService builds every pipeline from configuration.
func NewService(cfg *config.Config, store storage.FileStorage, logger *zap.Logger) (*Service, error) {
	s := &Service{
		offers:  make(map[Variant]*OfferPipeline),
		replies: make(map[Variant]*ReplyPipeline),
	}

	offerCfgs := map[Variant]config.OfferVariantConfig{
		VariantLocal: cfg.Offer.Local,
		VariantOther: cfg.Offer.Other,
	}
	for _, v := range []Variant{VariantLocal, VariantOther} {
		op, err := NewOfferPipeline(v, offerCfgs[v], store, logger)
		if err != nil {
			return nil, fmt.Errorf("%s offer pipeline: %w", v, err)
		}
		s.offers[v] = op

		rp, err := NewReplyPipeline(v, cfg.Reply, store, logger)
		if err != nil {
			return nil, fmt.Errorf("%s reply pipeline: %w", v, err)
		}
		s.replies[v] = rp
	}

	return s, nil
}

// Offer returns the offer pipeline of a variant.
func (s *Service) Offer(v Variant) (*OfferPipeline, error) {
	p, ok := s.offers[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return p, nil
}

// Reply returns the reply pipeline of a variant.
func (s *Service) Reply(v Variant) (*ReplyPipeline, error) {
	p, ok := s.replies[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return p, nil
}
