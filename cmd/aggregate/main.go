// Command aggregate computes per-site 2G/4G outage totals from an xlsx
// export without running the HTTP service.
//
//	aggregate -file outages.xlsx -sites ABC01,ABC02 -start 2023-01-01 -end 2023-01-31 -rate 100
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.opentelemetry.io/otel/trace/noop"

	"siteoutage/internal/config"
	"siteoutage/internal/exporter"
	"siteoutage/internal/infrastructure"
	"siteoutage/internal/outage"
	"siteoutage/internal/services"
	"siteoutage/internal/validation"
)

// errUsage marks bad command-line input.
var errUsage = errors.New("usage")

type options struct {
	file     string
	sites    string
	start    string
	end      string
	rate     string
	format   string
	out      string
	logLevel string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		slog.Error("aggregation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "xlsx workbook to aggregate (required)")
	fs.StringVar(&opts.sites, "sites", "", `site ids, comma separated or a JSON array such as ["ABC01"] (required)`)
	fs.StringVar(&opts.start, "start", "", "first day of the range, e.g. 2023-01-01 (required)")
	fs.StringVar(&opts.end, "end", "", "last day of the range, inclusive (required)")
	fs.StringVar(&opts.rate, "rate", "0", "penalty per billable day")
	fs.StringVar(&opts.format, "format", "json", "output format: json, csv or xlsx")
	fs.StringVar(&opts.out, "out", "", "output file (default stdout)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics on stderr")

	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w: %v", errUsage, err)
	}

	required := []struct{ name, value string }{
		{"file", opts.file},
		{"sites", opts.sites},
		{"start", opts.start},
		{"end", opts.end},
	}
	for _, r := range required {
		if r.value == "" {
			fs.Usage()
			return opts, fmt.Errorf("%w: -%s is required", errUsage, r.name)
		}
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	ctx = infrastructure.EnsureTraceID(ctx)

	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	sites, err := services.ParseSiteList(opts.sites)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg := config.Default()
	cfg.Logging.Level = opts.logLevel
	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	files := validation.NewFileValidator(logger)
	if err := files.ValidateWorkbook(opts.file, 0); err != nil {
		return err
	}
	if opts.out != "" {
		if err := files.ValidateOutputFile(opts.out); err != nil {
			return err
		}
	}

	doc, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	// The CLI trusts its input size; only the excelize limits apply.
	upload := cfg.Upload
	upload.MaxUploadBytes = 0
	upload.MaxConcurrent = 1

	svc := services.NewOutageService(upload, nil, noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName), logger)
	res, err := svc.Aggregate(ctx, services.AggregateRequest{
		Document:    doc,
		Filename:    filepath.Base(opts.file),
		Sites:       sites,
		StartDate:   opts.start,
		EndDate:     opts.end,
		PenaltyRate: outage.ParsePenaltyRate(opts.rate),
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, res.Records); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	if opts.out == "" {
		_, err = buf.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.InfoContext(ctx, "report written",
		slog.String("path", opts.out),
		slog.Int("records", len(res.Records)),
		slog.String("digest", res.Digest))
	return nil
}
