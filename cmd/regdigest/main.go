package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dgallion1/regdigest/internal/api"
	"github.com/dgallion1/regdigest/internal/completion"
	"github.com/dgallion1/regdigest/internal/config"
	"github.com/dgallion1/regdigest/internal/ocr"
	"github.com/dgallion1/regdigest/internal/pdfpages"
	"github.com/dgallion1/regdigest/internal/pipeline"
	"github.com/dgallion1/regdigest/internal/report"
	"github.com/dgallion1/regdigest/internal/volume"
)

const usage = `usage: regdigest <command> [flags] [volume...]

commands:
  volumes    list the volume catalog
  extract    write a volume's pages to the intermediate document
  process    recognize, chunk and dispatch the existing intermediate document
  run        extract then process
  serve      start the HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	log := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "volumes":
		err = runVolumes(cfg)
	case "extract":
		err = runExtract(ctx, cfg, args, log)
	case "process":
		err = runProcess(ctx, cfg, args, log, true)
	case "run":
		err = runProcess(ctx, cfg, args, log, false)
	case "serve":
		err = runServe(ctx, cfg, log)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func loadCatalog(cfg config.Config) (*volume.Catalog, error) {
	if cfg.VolumesFile == "" {
		return volume.Default(), nil
	}
	return volume.LoadFile(cfg.VolumesFile)
}

// selectVolumes resolves the positional volume IDs, or the whole catalog
// when all is set.
func selectVolumes(catalog *volume.Catalog, ids []string, all, summary bool) ([]volume.Volume, error) {
	var vols []volume.Volume
	if all {
		vols = catalog.List()
	} else {
		if len(ids) == 0 {
			return nil, errors.New("no volume given (use a volume ID such as Tomo_1, or --all)")
		}
		for _, id := range ids {
			v, err := catalog.Lookup(id)
			if err != nil {
				return nil, err
			}
			vols = append(vols, v)
		}
	}
	if summary {
		for i := range vols {
			vols[i] = catalog.Summary(vols[i])
		}
	}
	return vols, nil
}

func runVolumes(cfg config.Config) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPAGES\tPROMPTS")
	for _, v := range catalog.List() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", v.ID, v.Title, v.Pages.Selection(), len(v.Prompts()))
	}
	return tw.Flush()
}

func runExtract(ctx context.Context, cfg config.Config, args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	src := fs.String("source", cfg.SourcePDF, "source regulation PDF")
	dst := fs.String("out", cfg.ExtractedPath, "intermediate document path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("extract takes exactly one volume ID")
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	vol, err := catalog.Lookup(fs.Arg(0))
	if err != nil {
		return err
	}

	n, err := pdfpages.NewExtractor().Extract(ctx, *src, *dst, vol.Pages)
	if err != nil {
		return err
	}
	log.Info("volume extracted", "volume", vol.ID, "pages", n, "range", vol.Pages.String(), "path", *dst)
	return nil
}

func runProcess(ctx context.Context, cfg config.Config, args []string, log *slog.Logger, reuse bool) error {
	name := "run"
	if reuse {
		name = "process"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	summary := fs.Bool("summary", false, "use the single-prompt summary plan")
	all := fs.Bool("all", false, "process every volume in catalog order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cfg.ValidateCompletion(); err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	vols, err := selectVolumes(catalog, fs.Args(), *all, *summary)
	if err != nil {
		return err
	}
	if reuse && len(vols) > 1 {
		return errors.New("process reads a single intermediate document; give one volume or use run")
	}

	proc, dispatcher, closeFn, err := buildProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, vol := range vols {
		res, err := proc.Execute(ctx, pipeline.NewRun(vol, reuse))
		if err != nil {
			return err
		}
		log.Info("volume finished",
			"volume", res.Volume,
			"plan", res.Plan,
			"aborted", res.Aborted,
			"fragments", res.Fragments,
			"dispatches", res.Dispatches,
			"files", len(res.Files),
		)
	}

	snap := dispatcher.Stats().Snapshot()
	log.Info("completion latency", "provider", dispatcher.Provider(), "model", dispatcher.Model(),
		"count", snap.Count, "p50_ms", snap.P50Ms, "p95_ms", snap.P95Ms)
	return nil
}

func runServe(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	if err := cfg.ValidateCompletion(); err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	proc, dispatcher, closeFn, err := buildProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	orch := pipeline.NewOrchestrator(proc, cfg.MaxQueueSize, cfg.RunTTL, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, catalog, dispatcher, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting regdigest", "port", cfg.Port, "provider", dispatcher.Provider(), "model", dispatcher.Model())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// buildProcessor wires the extractor, OCR engine, completion client and
// report writer.
func buildProcessor(ctx context.Context, cfg config.Config, log *slog.Logger) (*pipeline.Processor, *completion.Dispatcher, func(), error) {
	client, err := completion.New(ctx, &cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	dispatcher := completion.NewDispatcher(client, completion.NewLLMStats(time.Hour), log)

	recoverer := ocr.NewRecoverer(
		ocr.NewRasterizer(cfg.RasterFallbackPdftoppm, log),
		ocr.TesseractRecognizer{TessdataPrefix: cfg.TessdataPrefix},
		ocr.Options{DPI: cfg.OCRDPI, Language: cfg.OCRLanguage},
		log,
	)

	var uploader report.Uploader
	if cfg.S3Bucket != "" {
		u, err := report.NewS3Uploader(cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, nil, nil, err
		}
		uploader = u
		log.Info("mirroring reports to s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}
	writer := report.NewWriter(cfg.OutputDir, cfg.ReportFormats, uploader, log)

	proc := pipeline.NewProcessor(pdfpages.NewExtractor(), recoverer, dispatcher, writer, pipeline.OptionsFromConfig(cfg), log)

	closeFn := func() {
		if c, ok := client.(interface{ Close() }); ok {
			c.Close()
		}
	}
	return proc, dispatcher, closeFn, nil
}
