// Command productdemo walks a product through its lifecycle: it defines a
// product, changes it through the repository and rebuilds it from the stored
// stream.
//
// Run against the in-memory store:
//
//	go run ./cmd/productdemo
//
// Or against NATS JetStream:
//
//	docker run --net=host nats:latest -js
//	BACKEND=nats go run ./cmd/productdemo
//
// With METRICS_ADDR set (e.g. ":2121") the repository metrics are served at
// /metrics until the process is interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahumphreys87/ddd-workshop/adapters/nats"
	promadapter "github.com/ahumphreys87/ddd-workshop/adapters/prometheus"
	"github.com/ahumphreys87/ddd-workshop/core/es"
	"github.com/ahumphreys87/ddd-workshop/domain/product"
	"github.com/ahumphreys87/ddd-workshop/ports/kv"
)

// === Config ===

var (
	backendType = getEnv("BACKEND", "mem")
	natsURL     = getEnv("NATS_URL", "")
	kvBucket    = getEnv("KV_BUCKET", "products")
	metricsAddr = getEnv("METRICS_ADDR", "")
	logLevel    = getEnvLevel("LOG_LEVEL", slog.LevelInfo)
)

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(getEnv(key, "")))); err != nil {
		return fallback
	}
	return lvl
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	if err := run(ctx, log); err != nil {
		log.Error("demo failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	store, closeStore, err := openStore(ctx, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	opts := []es.RepositoryOption{}
	if metricsAddr != "" {
		opts = append(opts, es.WithMetrics(promadapter.NewESMetrics(prometheus.DefaultRegisterer)))
	}
	repo := es.NewTypedRepository(log, store, product.Empty, opts...)

	log.Info("backend ready", slog.String("backend", backendType), slog.String("store", store.Name()))

	p, err := product.New("Espresso Machine", "Single boiler", 24900)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, p); err != nil {
		return fmt.Errorf("save new product: %w", err)
	}
	log.Info("product defined", slog.String("id", p.ID()), p.Version().SlogAttr())

	err = repo.Update(ctx, p.ID(), func(p *product.Product) error {
		if err := p.ChangeDescription("Single boiler, steam wand"); err != nil {
			return err
		}
		return p.ChangePrice(22900)
	})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	// A copy loaded before the update is stale and must not overwrite it.
	stale, err := repo.GetByID(ctx, p.ID())
	if err != nil {
		return err
	}
	if err := repo.Update(ctx, p.ID(), func(p *product.Product) error { return p.ChangeName("Espresso Machine Pro") }); err != nil {
		return fmt.Errorf("rename product: %w", err)
	}
	if err := stale.ChangeName("Espresso Machine Lite"); err != nil {
		return err
	}
	if err := repo.Save(ctx, stale); !errors.Is(err, es.ErrConcurrencyConflict) {
		return fmt.Errorf("expected a concurrency conflict, got %v", err)
	}
	log.Info("stale write rejected", slog.String("id", p.ID()))

	current, err := repo.GetByID(ctx, p.ID())
	if err != nil {
		return err
	}
	log.Info(
		"product loaded",
		slog.String("id", current.ID()),
		current.Version().SlogAttr(),
		slog.String("name", current.Name),
		slog.String("description", current.Description),
		slog.Int64("price", current.Price),
	)

	if metricsAddr == "" {
		return nil
	}
	return serveMetrics(ctx, log)
}

func openStore(ctx context.Context, log *slog.Logger) (kv.Store, func(), error) {
	switch backendType {
	case "mem":
		return kv.Open(kvBucket), func() {}, nil
	case "nats":
		connect := nats.ConnectDefault()
		if natsURL != "" {
			connect = nats.ConnectURL(natsURL)
		}
		s, err := nats.NewKvStore(ctx, nats.KvConfig{
			Connect: connect,
			Log:     log,
			Bucket:  kvBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backendType)
	}
}

func serveMetrics(ctx context.Context, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics server starting", slog.String("addr", metricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
