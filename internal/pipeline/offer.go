package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/config"
	"github.com/garyjia/settlement-converter/internal/parser"
	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/internal/spreadsheet"
	"github.com/garyjia/settlement-converter/internal/storage"
	"github.com/garyjia/settlement-converter/internal/textdecode"
	"github.com/garyjia/settlement-converter/pkg/utils"
)

// OfferResult reports one offer conversion.
type OfferResult struct {
	OutputPath string                 `json:"output_path" yaml:"output_path"`
	Charset    string                 `json:"charset" yaml:"charset"`
	Records    []settlement.Record    `json:"records" yaml:"records"`
	Issues     []settlement.LineIssue `json:"issues" yaml:"issues"`
}

// OfferPipeline converts an offer text file into an offer spreadsheet.
type OfferPipeline struct {
	variant Variant
	decoder textdecode.TextDecoder
	parser  parser.OfferParser
	columns []spreadsheet.Column
	toRow   func(settlement.Record) []string
	writer  *spreadsheet.Writer
	storage storage.FileStorage
	logger  *zap.Logger
}

// NewOfferPipeline creates the offer pipeline of a variant.
func NewOfferPipeline(variant Variant, cfg config.OfferVariantConfig, store storage.FileStorage, logger *zap.Logger) (*OfferPipeline, error) {
	policy, err := parser.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	kind, err := spreadsheet.ParseKind(cfg.AmountColumn)
	if err != nil {
		return nil, err
	}
	decoder, err := cfg.Decoding.Decoder()
	if err != nil {
		return nil, err
	}

	p := &OfferPipeline{
		variant: variant,
		decoder: decoder,
		writer:  spreadsheet.NewWriter(logger),
		storage: store,
		logger:  logger.With(zap.String("pipeline", string(variant)+"-offer")),
	}

	switch variant {
	case VariantLocal:
		lp := parser.NewLocalOfferParser(policy)
		lp.DropTrailer = cfg.DropTrailer
		p.parser = lp
		p.columns = spreadsheet.LocalOfferColumns(kind)
		p.toRow = localOfferRow
	case VariantOther:
		p.parser = parser.NewOtherOfferParser(policy, cfg.Sentinel)
		p.columns = spreadsheet.OtherOfferColumns(kind)
		p.toRow = otherOfferRow
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	return p, nil
}

// Convert parses sourcePath and writes the offer spreadsheet to outputPath,
// or next to the source when outputPath is empty. No file is written when
// no record could be parsed.
func (p *OfferPipeline) Convert(ctx context.Context, sourcePath, outputPath string) (*OfferResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = DefaultOfferOutput(sourcePath)
	}
	if err := utils.ValidateOutputPath(outputPath, sourcePath); err != nil {
		return nil, fmt.Errorf("%w: %w", settlement.ErrWrite, err)
	}

	data, err := readSource(sourcePath)
	if err != nil {
		return nil, err
	}
	decoded, err := p.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", settlement.ErrEncoding, sourcePath, err)
	}

	parsed := p.parser.Parse(parser.SplitTextLines(decoded.Text))
	result := &OfferResult{
		Charset: decoded.Charset,
		Records: parsed.Records,
		Issues:  parsed.Issues,
	}
	for _, issue := range parsed.Issues {
		p.logger.Warn("Offer line not converted",
			zap.Int("line", issue.Line),
			zap.String("reason", issue.Reason))
	}
	if len(parsed.Records) == 0 {
		return result, fmt.Errorf("%w: %s", settlement.ErrNoRecords, sourcePath)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(parsed.Records))
	for _, rec := range parsed.Records {
		rows = append(rows, p.toRow(rec))
	}
	content, err := p.writer.Render("Sheet1", p.columns, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", settlement.ErrWrite, outputPath, err)
	}
	if err := p.storage.SaveFileWithType(outputPath, content, storage.FileTypeSpreadsheet); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", settlement.ErrWrite, outputPath, err)
	}
	result.OutputPath = outputPath

	p.logger.Info("Offer converted",
		zap.String("source", sourcePath),
		zap.String("output", outputPath),
		zap.String("charset", decoded.Charset),
		zap.Int("charset_confidence", decoded.Confidence),
		zap.Int("records", len(parsed.Records)),
		zap.Int("issues", len(parsed.Issues)))

	return result, nil
}

func localOfferRow(r settlement.Record) []string {
	return []string{r.Name, r.CardNumber, r.Amount.String(), r.Remark, "", ""}
}

func otherOfferRow(r settlement.Record) []string {
	return []string{
		r.Name, r.CardNumber, r.BankType, r.InterbankCode, r.BusinessType,
		r.AgreementNo, "", r.Amount.String(), r.Remark, "", "",
	}
}
