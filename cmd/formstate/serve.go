package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/httpform"
	"github.com/goliatone/go-formstate/pkg/metrics"
)

func serve(ctx context.Context, opts options, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	collector := metrics.NewWithRegistry(reg)

	source, cleanup, err := storeSource(opts, logger, collector)
	if err != nil {
		return err
	}
	defer cleanup()

	handler, err := httpform.New(httpform.Config{
		Source:   source,
		Observer: collector,
		Requests: collector,
		Logger:   logger,
		Submit: func(_ context.Context, formID string, values form.Values) (map[string][]string, error) {
			payload, err := json.Marshal(values)
			if err != nil {
				return nil, err
			}
			logger.Info().Str("form", formID).RawJSON("values", payload).Msg("submission accepted")
			return nil, nil
		},
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/forms", handler.Routes())

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", opts.addr).Msg("serving forms")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// storeSource picks the definition source: a watched holder when -watch is
// set, otherwise a static store.
func storeSource(opts options, logger zerolog.Logger, collector *metrics.Collector) (httpform.StoreSource, func(), error) {
	if !opts.watch {
		store, err := loadStore(opts.definitions)
		if err != nil {
			return nil, nil, err
		}
		collector.ObserveReload(store.Len(), nil)
		return httpform.StaticStore{S: store}, func() {}, nil
	}
	if opts.definitions == "" {
		return nil, nil, fmt.Errorf("-watch requires -definitions")
	}

	holder, err := definition.NewHolder(opts.definitions, logger)
	if err != nil {
		return nil, nil, err
	}
	collector.ObserveReload(holder.Store().Len(), nil)
	holder.OnChange(func(store *definition.Store) {
		collector.ObserveReload(store.Len(), nil)
	})
	holder.OnError(func(err error) {
		collector.ObserveReload(0, err)
	})
	if err := holder.Watch(); err != nil {
		return nil, nil, err
	}
	return holder, holder.Stop, nil
}
