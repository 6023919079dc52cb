package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/capitan"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/tui"
)

type options struct {
	definitions string
	formID      string
	mode        string
	addr        string
	openapiDoc  string
	operation   string
	watch       bool
	format      string
	output      string
	logLevel    string
	logFormat   string
}

func main() {
	var opts options
	flag.StringVar(&opts.definitions, "definitions", "", "definition file or directory (bundled samples if empty)")
	flag.StringVar(&opts.formID, "form", "signup", "form id to run or render")
	flag.StringVar(&opts.mode, "mode", "tui", "tui, html or serve")
	flag.StringVar(&opts.addr, "addr", ":8080", "listen address for serve mode")
	flag.StringVar(&opts.openapiDoc, "openapi", "", "OpenAPI document path or URL to derive the form from")
	flag.StringVar(&opts.operation, "operation", "", "OpenAPI operation id (method:path when the operation has no id)")
	flag.BoolVar(&opts.watch, "watch", false, "reload definitions when files change (serve mode)")
	flag.StringVar(&opts.format, "format", "json", "tui output format: json, form or pretty")
	flag.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flag.StringVar(&opts.logFormat, "log-format", "console", "log format: console or json")
	flag.Parse()

	logger := newLogger(opts.logLevel, opts.logFormat)
	os.Exit(execute(opts, logger))
}

func execute(opts options, logger zerolog.Logger) int {
	hookSignals(logger)
	defer capitan.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			logger.Info().Msg("aborted")
			return 130
		}
		logger.Error().Err(err).Msg("formstate failed")
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, logger zerolog.Logger) error {
	switch opts.mode {
	case "serve":
		return serve(ctx, opts, logger)
	case "tui", "html":
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}

	def, err := loadDefinition(ctx, opts)
	if err != nil {
		return err
	}
	inst, err := definition.Build(def, nil,
		form.WithFormLogger(logger),
		form.WithScheduler(form.Immediate),
	)
	if err != nil {
		return err
	}
	defer inst.Close()

	renderers, err := newRenderers(opts)
	if err != nil {
		return err
	}
	name := render.HTMLName
	if opts.mode == "tui" {
		name = tui.Name
	}
	renderer, err := renderers.Get(name)
	if err != nil {
		return err
	}

	out, err := renderer.Render(ctx, inst, render.RenderOptions{})
	if err != nil {
		return err
	}
	return writeOutput(opts.output, out, logger)
}

func newRenderers(opts options) (*render.Registry, error) {
	html, err := render.NewHTML()
	if err != nil {
		return nil, err
	}
	registry := render.NewRegistry()
	registry.MustRegister(html)
	registry.MustRegister(tui.New(tui.WithOutputFormat(tui.OutputFormat(opts.format))))
	return registry, nil
}

func loadDefinition(ctx context.Context, opts options) (definition.Form, error) {
	if opts.openapiDoc != "" {
		if opts.operation == "" {
			return definition.Form{}, errors.New("-operation is required with -openapi")
		}
		raw, err := openapi.Fetch(ctx, opts.openapiDoc, openapi.WithHTTPFallback(15*time.Second))
		if err != nil {
			return definition.Form{}, err
		}
		return openapi.FromOperation(ctx, raw, opts.operation)
	}

	store, err := loadStore(opts.definitions)
	if err != nil {
		return definition.Form{}, err
	}
	def, ok := store.Form(opts.formID)
	if !ok {
		return definition.Form{}, fmt.Errorf("form %q not found (available: %s)", opts.formID, strings.Join(store.IDs(), ", "))
	}
	return def, nil
}

func loadStore(path string) (*definition.Store, error) {
	if path == "" {
		return definition.LoadFS(definition.EmbeddedFS())
	}
	return definition.LoadPath(path)
}

func writeOutput(path string, data []byte, logger zerolog.Logger) error {
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info().Str("path", path).Msg("output written")
	return nil
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

// hookSignals mirrors form lifecycle signals into the log.
func hookSignals(logger zerolog.Logger) {
	capitan.Hook(form.FormSubmitted, func(_ context.Context, e *capitan.Event) {
		name, _ := form.KeyForm.From(e)
		fields, _ := form.KeyFields.From(e)
		logger.Info().Str("form", name).Int("fields", fields).Msg("form submitted")
	})
	capitan.Hook(form.FormValidationFailed, func(_ context.Context, e *capitan.Event) {
		name, _ := form.KeyForm.From(e)
		failures, _ := form.KeyFailures.From(e)
		logger.Debug().Str("form", name).Int("failures", failures).Msg("form validation failed")
	})
	capitan.Hook(form.FormReset, func(_ context.Context, e *capitan.Event) {
		name, _ := form.KeyForm.From(e)
		logger.Debug().Str("form", name).Msg("form reset")
	})
}
