package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/regdigest/internal/chunker"
	"github.com/dgallion1/regdigest/internal/config"
	"github.com/dgallion1/regdigest/internal/metrics"
	"github.com/dgallion1/regdigest/internal/pdfpages"
	"github.com/dgallion1/regdigest/internal/report"
	"github.com/dgallion1/regdigest/internal/volume"
)

// PageExtractor writes a page range of src into dst.
type PageExtractor interface {
	Extract(ctx context.Context, src, dst string, r pdfpages.PageRange) (int, error)
}

// TextRecoverer returns the recognized text of every page of a document.
type TextRecoverer interface {
	Recover(ctx context.Context, path string) (string, error)
}

// Analyzer applies one prompt to one fragment.
type Analyzer interface {
	Analyze(ctx context.Context, fragment string, prompt volume.Prompt) (string, error)
}

// Options are the processor settings taken from configuration.
type Options struct {
	SourcePDF        string
	ExtractedPath    string
	ChunkSize        int
	SummaryChunkSize int
	DispatchMode     string
	Label            string
}

// OptionsFromConfig copies the processing settings out of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SourcePDF:        cfg.SourcePDF,
		ExtractedPath:    cfg.ExtractedPath,
		ChunkSize:        cfg.ChunkSize,
		SummaryChunkSize: cfg.SummaryChunkSize,
		DispatchMode:     cfg.DispatchMode,
		Label:            cfg.FragmentLabel,
	}
}

// Result summarizes a finished run.
type Result struct {
	RunID      string   `json:"run_id"`
	Volume     string   `json:"volume"`
	Plan       string   `json:"plan"`
	Aborted    bool     `json:"aborted"`
	Pages      int      `json:"pages"`
	Chars      int      `json:"chars"`
	Fragments  int      `json:"fragments"`
	Dispatches int      `json:"dispatches"`
	Files      []string `json:"files"`
}

// Processor turns one volume into its per-topic output files.
type Processor struct {
	extractor PageExtractor
	ocr       TextRecoverer
	analyzer  Analyzer
	writer    *report.Writer
	opts      Options
	log       *slog.Logger
}

func NewProcessor(extractor PageExtractor, ocr TextRecoverer, analyzer Analyzer, writer *report.Writer, opts Options, log *slog.Logger) *Processor {
	if opts.Label == "" {
		opts.Label = report.DefaultLabel
	}
	if opts.DispatchMode == "" {
		opts.DispatchMode = config.DispatchFirstFragment
	}
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		extractor: extractor,
		ocr:       ocr,
		analyzer:  analyzer,
		writer:    writer,
		opts:      opts,
		log:       log,
	}
}

// Extract writes the volume's pages of the source document to the
// intermediate artifact and returns the number of pages written.
func (p *Processor) Extract(ctx context.Context, vol volume.Volume) (int, error) {
	n, err := p.extractor.Extract(ctx, p.opts.SourcePDF, p.opts.ExtractedPath, vol.Pages)
	if err != nil {
		return 0, err
	}
	p.log.Info("volume extracted", "volume", vol.ID, "pages", n, "range", vol.Pages.String(), "path", p.opts.ExtractedPath)
	return n, nil
}

// Process runs recognition, chunking, dispatch and writing against the
// existing intermediate artifact.
func (p *Processor) Process(ctx context.Context, vol volume.Volume) (Result, error) {
	return p.Execute(ctx, NewRun(vol, true))
}

// Execute drives run through its states:
//
//	idle -> extracting -> recognizing -> aborted
//	                                  -> chunking -> dispatching -> writing -> done
//
// Any error moves the run to failed. Extraction is skipped when the run
// reuses the existing artifact.
func (p *Processor) Execute(ctx context.Context, run *Run) (Result, error) {
	vol := run.Volume()
	log := p.log.With("run_id", run.ID, "volume", vol.ID, "plan", vol.Plan)
	res := Result{RunID: run.ID, Volume: vol.ID, Plan: vol.Plan}

	fail := func(err error) (Result, error) {
		run.Fail(err)
		metrics.CaptureRun(string(StatusFailed))
		log.Error("run failed", "error", err)
		return res, err
	}

	if !run.ReuseArtifact {
		run.SetStatus(StatusExtracting)
		n, err := p.Extract(ctx, vol)
		if err != nil {
			return fail(fmt.Errorf("extract %s: %w", vol.ID, err))
		}
		res.Pages = n
		run.SetPages(n)
	}

	run.SetStatus(StatusRecognizing)
	text, err := p.ocr.Recover(ctx, p.opts.ExtractedPath)
	if err != nil {
		return fail(fmt.Errorf("recognize %s: %w", vol.ID, err))
	}
	res.Chars = utf8.RuneCountInString(text)
	run.SetChars(res.Chars)

	if strings.TrimSpace(text) == "" {
		log.Warn("document has no recognizable text, nothing written", "path", p.opts.ExtractedPath)
		res.Aborted = true
		run.SetStatus(StatusAborted)
		metrics.CaptureRun(string(StatusAborted))
		return res, nil
	}

	rawPath, err := p.writer.WriteText(ctx, report.RawTextTopic, vol.ID, text)
	if err != nil {
		return fail(err)
	}
	res.Files = append(res.Files, rawPath)
	run.AddFiles(rawPath)

	run.SetStatus(StatusChunking)
	chunks := chunker.Split(text, chunker.Config{Size: p.chunkSize(vol)})
	res.Fragments = len(chunks)
	run.SetTotalFragments(len(chunks))
	log.Info("text chunked", "chars", res.Chars, "est_tokens", chunker.EstimateTokens(text), "fragments", len(chunks), "chunk_size", p.chunkSize(vol))

	run.SetStatus(StatusDispatching)
	accs, dispatches, err := p.dispatch(ctx, run, vol, chunks, log)
	res.Dispatches = dispatches
	if err != nil {
		return fail(fmt.Errorf("dispatch %s: %w", vol.ID, err))
	}

	run.SetStatus(StatusWriting)
	for _, acc := range accs {
		paths, err := p.writer.WriteTopic(ctx, vol.ID, acc)
		if err != nil {
			return fail(err)
		}
		res.Files = append(res.Files, paths...)
		run.AddFiles(paths...)
	}

	run.SetStatus(StatusDone)
	metrics.CaptureRun(string(StatusDone))
	log.Info("volume complete", "fragments", res.Fragments, "dispatches", res.Dispatches, "files", len(res.Files))
	return res, nil
}

func (p *Processor) chunkSize(vol volume.Volume) int {
	switch {
	case vol.ChunkSize > 0:
		return vol.ChunkSize
	case vol.Plan == volume.PlanSummary:
		return p.opts.SummaryChunkSize
	default:
		return p.opts.ChunkSize
	}
}

func (p *Processor) dispatchMode(vol volume.Volume) string {
	if vol.DispatchMode != "" {
		return vol.DispatchMode
	}
	return p.opts.DispatchMode
}

// dispatch sends every fragment through the shared prompts and the first
// fragment through the answers prompt. It returns one accumulator per
// prompt, in prompt order.
func (p *Processor) dispatch(ctx context.Context, run *Run, vol volume.Volume, chunks []chunker.Chunk, log *slog.Logger) ([]*report.Accumulator, int, error) {
	shared := make([]*report.Accumulator, len(vol.Shared))
	for i, pr := range vol.Shared {
		shared[i] = report.NewAccumulator(pr.Topic, p.opts.Label)
	}
	var answers *report.Accumulator
	if vol.Answers != nil {
		answers = report.NewAccumulator(vol.Answers.Topic, p.opts.Label)
	}

	mode := p.dispatchMode(vol)
	dispatches := 0
	answered := false

	analyze := func(c chunker.Chunk, pr volume.Prompt) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		answer, err := p.analyzer.Analyze(ctx, c.Text, pr)
		if err != nil {
			return "", fmt.Errorf("fragment %d %s: %w", c.Index+1, pr.ID, err)
		}
		dispatches++
		run.IncrDispatches()
		return answer, nil
	}

	for _, c := range chunks {
		for i, pr := range vol.Shared {
			answer, err := analyze(c, pr)
			if err != nil {
				return nil, dispatches, err
			}
			shared[i].Add(c.Index, answer)
		}
		run.IncrFragmentsProcessed()
		metrics.IncrementFragmentsDispatched()
		log.Debug("fragment dispatched", "fragment", c.Index+1, "of", len(chunks), "est_tokens", chunker.EstimateTokens(c.Text))

		if answers != nil && !answered {
			answer, err := analyze(c, *vol.Answers)
			if err != nil {
				return nil, dispatches, err
			}
			answers.Add(c.Index, answer)
			answered = true
			if mode == config.DispatchFirstFragment {
				break
			}
		}
	}

	accs := shared
	if answers != nil {
		accs = append(accs, answers)
	}
	return accs, dispatches, nil
}
