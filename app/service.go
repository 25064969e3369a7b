// Package app wires the configuration into a running service: stores,
// resolver chain, metrics sinks, event bus, notifier, job registry and the
// HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dinehop/dinehop/api"
	"github.com/dinehop/dinehop/config"
	"github.com/dinehop/dinehop/core/jobs"
	"github.com/dinehop/dinehop/core/model"
	corenotify "github.com/dinehop/dinehop/core/notify"
	"github.com/dinehop/dinehop/core/routing"
	corestore "github.com/dinehop/dinehop/core/store"
	"github.com/dinehop/dinehop/infra/geocode"
	"github.com/dinehop/dinehop/infra/logger"
	"github.com/dinehop/dinehop/infra/metrics"
	"github.com/dinehop/dinehop/infra/notify"
	"github.com/dinehop/dinehop/infra/osrm"
	"github.com/dinehop/dinehop/infra/store"
	"github.com/dinehop/dinehop/internal/eventbus"
)

// Service owns the long-lived components of one dinehop process.
type Service struct {
	Store    corestore.Store
	Registry *jobs.Registry
	Resolver jobs.ResolverFactory

	server   *http.Server
	bus      *eventbus.Bus
	notifier corenotify.Publisher
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	var st corestore.Store
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		st = s
	default:
		st = corestore.NewMemoryStore()
	}

	sink, err := metrics.New(cfg.Metrics, log)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var notifier corenotify.Publisher = corenotify.NopPublisher{}
	if cfg.Notify.Enabled {
		pub, err := notify.NewMQTTPublisher(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		notifier = pub
	}

	resolver := resolverFactory(cfg.Routing)

	bus := eventbus.New()
	registry := jobs.NewRegistry(st, bus, sink, resolver, logger.New("jobs"))
	registry.Seed = cfg.Matching.Seed

	var gc geocode.Geocoder
	if cfg.Geocode.Enabled {
		gc = geocode.NewNominatim(cfg.Geocode)
	}

	srv := api.NewServer(st, registry, resolver, gc, notifier,
		cfg.Matching.Weights,
		api.OptimizeSettings{MaxAttempts: cfg.Matching.OptimizeAttempts, Parallel: cfg.Matching.OptimizeParallel},
		cfg.Matching.Seed, logger.New("api"))

	svc := &Service{
		Store:    st,
		Registry: registry,
		Resolver: resolver,
		bus:      bus,
		notifier: notifier,
		log:      log,
		server: &http.Server{
			Addr:         cfg.API.Addr,
			Handler:      srv.Routes(),
			ReadTimeout:  time.Duration(cfg.API.ReadTimeoutS) * time.Second,
			WriteTimeout: time.Duration(cfg.API.WriteTimeoutS) * time.Second,
		},
	}
	go svc.forwardJobEvents()
	return svc, nil
}

// resolverFactory builds the per-event resolver chain. Fast-mode events skip
// the routing backend even when one is configured.
func resolverFactory(cfg config.RoutingConfig) jobs.ResolverFactory {
	fast := routing.FastResolver{SpeedKmh: cfg.SpeedKmh}
	var precise routing.Resolver
	if cfg.Backend == "osrm" {
		precise = osrm.NewClient(cfg.OSRM)
	}
	log := logger.New("routing")
	return func(ev model.Event) routing.Resolver {
		if ev.FastMode || precise == nil {
			return routing.NewCachedResolver(fast, cfg.Parallelism, log)
		}
		return routing.NewCachedResolver(precise, cfg.Parallelism, log)
	}
}

// forwardJobEvents relays job transitions from the bus to the notifier.
func (s *Service) forwardJobEvents() {
	sub := s.bus.Subscribe()
	for ev := range sub {
		je, ok := ev.(eventbus.JobEvent)
		if !ok {
			continue
		}
		if err := s.notifier.PublishJobEvent(je.Job); err != nil {
			s.log.Warnf("notify job event: %v", err)
		}
	}
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	s.Registry.Shutdown()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if err := s.notifier.Close(); err != nil {
		s.log.Errorf("notifier close: %v", err)
	}
	return s.Store.Close()
}
