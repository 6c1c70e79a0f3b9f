package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/garyjia/settlement-converter/internal/annotate"
	"github.com/garyjia/settlement-converter/internal/config"
	"github.com/garyjia/settlement-converter/internal/parser"
	"github.com/garyjia/settlement-converter/internal/reconcile"
	"github.com/garyjia/settlement-converter/internal/settlement"
	"github.com/garyjia/settlement-converter/internal/spreadsheet"
	"github.com/garyjia/settlement-converter/internal/storage"
	"github.com/garyjia/settlement-converter/internal/textdecode"
	"github.com/garyjia/settlement-converter/pkg/utils"
)

// ReplyResult reports one reconciliation. OutputPath is empty when the
// files disagree.
type ReplyResult struct {
	Status            reconcile.Status         `json:"status" yaml:"status"`
	Message           string                   `json:"message" yaml:"message"`
	OnlyInText        []settlement.IdentityKey `json:"only_in_text" yaml:"only_in_text"`
	OnlyInSpreadsheet []settlement.IdentityKey `json:"only_in_spreadsheet" yaml:"only_in_spreadsheet"`
	OutputPath        string                   `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Annotated         int                      `json:"annotated" yaml:"annotated"`
	Issues            []settlement.LineIssue   `json:"issues" yaml:"issues"`
	Charset           string                   `json:"charset" yaml:"charset"`
	CharsetConfidence int                      `json:"charset_confidence,omitempty" yaml:"charset_confidence,omitempty"`
	DuplicateKeys     []settlement.IdentityKey `json:"duplicate_keys,omitempty" yaml:"duplicate_keys,omitempty"`
}

// Consistent reports whether an annotated file was produced.
func (r *ReplyResult) Consistent() bool {
	return r.Status == reconcile.StatusConsistent
}

// ReplyPipeline reconciles an offer text with the counterparty's reply
// spreadsheet and writes the annotated text.
type ReplyPipeline struct {
	variant   Variant
	schema    settlement.KeySchema
	policy    parser.Policy
	decoder   textdecode.TextDecoder
	reader    *spreadsheet.Reader
	indexer   *reconcile.KeyIndexer
	annotator *annotate.Annotator
	storage   storage.FileStorage
	logger    *zap.Logger
}

// NewReplyPipeline creates the reply pipeline of a variant.
func NewReplyPipeline(variant Variant, cfg config.ReplyConfig, store storage.FileStorage, logger *zap.Logger) (*ReplyPipeline, error) {
	var schema settlement.KeySchema
	switch variant {
	case VariantLocal:
		schema = settlement.LocalReplySchema
	case VariantOther:
		schema = settlement.OtherReplySchema
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	policy, err := parser.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	duplicates, err := reconcile.ParseDuplicatePolicy(cfg.Duplicates)
	if err != nil {
		return nil, err
	}
	style, err := annotate.ParseStyle(cfg.AnnotateStyle)
	if err != nil {
		return nil, err
	}
	decoder, err := cfg.Decoding.Decoder()
	if err != nil {
		return nil, err
	}
	successFlag := cfg.SuccessFlag
	if successFlag == "" {
		successFlag = settlement.DefaultSuccessFlag
	}

	logger = logger.With(zap.String("pipeline", string(variant)+"-reply"))
	return &ReplyPipeline{
		variant:   variant,
		schema:    schema,
		policy:    policy,
		decoder:   decoder,
		reader:    spreadsheet.NewReader(logger),
		indexer:   reconcile.NewKeyIndexer(schema, duplicates, logger),
		annotator: annotate.NewAnnotator(schema, style, successFlag, logger),
		storage:   store,
		logger:    logger,
	}, nil
}

// ReconcileAndAnnotate compares the keys of sourcePath with those of
// spreadsheetPath. When they agree, the annotated copy of sourcePath is
// written to outputPath (or next to the source when empty). Disagreement is
// reported in the result, not as an error, and writes nothing.
func (p *ReplyPipeline) ReconcileAndAnnotate(ctx context.Context, sourcePath, spreadsheetPath, outputPath string) (*ReplyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if outputPath == "" {
		outputPath = DefaultReplyOutput(sourcePath)
	}
	if err := utils.ValidateOutputPath(outputPath, sourcePath, spreadsheetPath); err != nil {
		return nil, fmt.Errorf("%w: %w", settlement.ErrWrite, err)
	}

	// Spreadsheet side
	rows, err := p.reader.ReadRows(spreadsheetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", settlement.ErrRead, spreadsheetPath, err)
	}
	index, err := p.indexer.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spreadsheetPath, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Text side
	data, err := readSource(sourcePath)
	if err != nil {
		return nil, err
	}
	decoded, err := p.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", settlement.ErrEncoding, sourcePath, err)
	}
	scan := parser.ScanReply(data, decoded, p.schema, p.policy)

	rec := reconcile.Reconcile(scan.Keys, index.Keys())
	result := &ReplyResult{
		Status:            rec.Status,
		Message:           rec.Status.Message(),
		OnlyInText:        rec.OnlyInText,
		OnlyInSpreadsheet: rec.OnlyInSpreadsheet,
		Issues:            scan.Issues,
		Charset:           decoded.Charset,
		CharsetConfidence: decoded.Confidence,
		DuplicateKeys:     index.Duplicates,
	}

	if !rec.Consistent() {
		p.logger.Warn("Reply does not match offer",
			zap.String("source", sourcePath),
			zap.String("spreadsheet", spreadsheetPath),
			zap.Int("only_in_text", len(rec.OnlyInText)),
			zap.Int("only_in_spreadsheet", len(rec.OnlyInSpreadsheet)))
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := p.annotator.Annotate(scan.Lines, index)
	if err := p.storage.SaveFileWithType(outputPath, out.Data, storage.FileTypeText); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", settlement.ErrWrite, outputPath, err)
	}
	result.OutputPath = outputPath
	result.Annotated = out.Annotated
	result.Issues = append(result.Issues, out.Issues...)
	slices.SortStableFunc(result.Issues, func(a, b settlement.LineIssue) int {
		return cmp.Compare(a.Line, b.Line)
	})

	p.logger.Info("Reply annotated",
		zap.String("source", sourcePath),
		zap.String("output", outputPath),
		zap.String("charset", decoded.Charset),
		zap.Int("charset_confidence", decoded.Confidence),
		zap.Int("keys", len(scan.Keys)),
		zap.Int("annotated", out.Annotated),
		zap.Int("issues", len(result.Issues)))

	return result, nil
}
