package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/podhmo/pagescript"
	"github.com/podhmo/pagescript/internal/recording"
	"gopkg.in/yaml.v3"
)

type options struct {
	paramsFile string
	hostFile   string
	hostName   string
	jobs       int
	mode       pagescript.Mode
}

func main() {
	var opts options
	flag.StringVar(&opts.paramsFile, "params", "", "YAML file with the parameters passed to every script")
	flag.StringVar(&opts.hostFile, "host", "", "YAML file with canned host values, responses and failing methods")
	flag.StringVar(&opts.hostName, "host-name", "page", "Name the host is bound to in scripts")
	flag.IntVar(&opts.jobs, "j", 4, "Number of scripts run at the same time (0 for no limit)")
	mode := flag.String("mode", "auto", "How scripts are run (auto, program, fragment)")
	var logLevel = slog.LevelWarn
	flag.TextVar(&logLevel, "log-level", &logLevel, "Log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] script.js...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	m, err := pagescript.ParseMode(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	opts.mode = m

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one script is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, logger, opts, flag.Args()); err != nil {
		stop()
		log.Fatalf("Error: %+v", err)
	}
}

func run(ctx context.Context, out io.Writer, logger *slog.Logger, opts options, files []string) error {
	var params map[string]any
	if opts.paramsFile != "" {
		if err := loadYAML(opts.paramsFile, &params); err != nil {
			return fmt.Errorf("load params: %w", err)
		}
	}
	var hostConfig recording.Config
	if opts.hostFile != "" {
		if err := loadYAML(opts.hostFile, &hostConfig); err != nil {
			return fmt.Errorf("load host config: %w", err)
		}
	}

	w := &prefixWriter{out: out}
	jobs := make([]pagescript.Job, 0, len(files))
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		name := filepath.Base(file)
		jobs = append(jobs, pagescript.Job{
			Name:   name,
			Source: string(src),
			Mode:   opts.mode,
			Context: pagescript.ExecutionContext{
				Host:       recording.New(hostConfig),
				Log:        func(s string) { w.println(name, s) },
				Parameters: params,
			},
		})
	}

	in := pagescript.New(
		pagescript.WithLogger(logger),
		pagescript.WithHostName(opts.hostName),
	)
	logger.InfoContext(ctx, "running scripts", "count", len(jobs), "mode", opts.mode, "limit", opts.jobs)

	failed := 0
	for _, r := range in.RunAll(ctx, jobs, opts.jobs) {
		if r.Err != nil {
			failed++
			logger.ErrorContext(ctx, "script failed", "name", r.Name, "error", r.Err)
			continue
		}
		logger.InfoContext(ctx, "script finished", "name", r.Name, "duration", r.Duration)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(jobs))
	}
	return nil
}

func loadYAML(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// prefixWriter serializes output lines of concurrently running scripts.
type prefixWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *prefixWriter) println(name, line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "[%s] %s\n", name, line)
}
