package cli

import (
	"fmt"

	"github.com/aide-oss/aide/internal/agent"
	"github.com/aide-oss/aide/internal/config"
	"github.com/aide-oss/aide/internal/event"
	"github.com/aide-oss/aide/internal/extract"
	"github.com/aide-oss/aide/internal/memory"
	"github.com/aide-oss/aide/internal/provider"
	"github.com/aide-oss/aide/internal/provider/anthropic"
	"github.com/aide-oss/aide/internal/router"
	"github.com/aide-oss/aide/internal/search"
	"github.com/aide-oss/aide/internal/state"
	"github.com/aide-oss/aide/internal/telemetry"
)

// runtime bundles everything a command needs to process turns.
type runtime struct {
	cfg     *config.Config
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	bus     *event.Bus
	memory  memory.Store
	threads state.Store
	loop    *agent.TurnLoop
}

// newRuntime loads configuration and wires the full turn loop.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if verbose {
		logger = telemetry.NewVerboseLogger()
	}
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Logging.File); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	metrics := telemetry.NewMetrics()
	if cfg.Metrics.Path != "" {
		exporter, err := telemetry.NewJSONFileExporter(cfg.Metrics.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open metrics file: %w", err)
		}
		metrics.SetExporter(exporter)
	}

	bus := event.NewBus(logger)
	bus.SetEnabled(cfg.Hooks.Enabled)
	if err := registerHooks(bus, cfg, logger); err != nil {
		return nil, err
	}

	providerTimeout, err := cfg.Provider.ParsedTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid provider timeout: %w", err)
	}
	retryCfg := provider.DefaultRetryConfig()
	if cfg.Provider.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.Provider.MaxRetries
	}
	llm := provider.NewRetryProvider(
		anthropic.NewClient(cfg.Provider.APIKey, cfg.Provider.Model, providerTimeout),
		retryCfg,
	)

	memStore, err := memory.NewStore(cfg.Memory.Driver, cfg.Memory.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	threads, err := state.NewStore(cfg.State.Driver, cfg.State.Path)
	if err != nil {
		memStore.Close()
		return nil, fmt.Errorf("failed to initialize thread store: %w", err)
	}

	searchTimeout, err := cfg.Search.ParsedTimeout()
	if err != nil {
		memStore.Close()
		threads.Close()
		return nil, fmt.Errorf("invalid search timeout: %w", err)
	}
	registry := search.DefaultRegistry(cfg.Search.TavilyAPIKey, searchTimeout)

	loop := agent.New(agent.Options{
		Router:        router.New(llm, registry, logger, metrics, bus),
		Executor:      search.NewExecutor(registry, logger, metrics),
		Extractor:     extract.NewStructuredExtractor(llm, memStore, logger, metrics, bus),
		Consolidator:  extract.NewConsolidator(llm, memStore, logger, metrics, bus),
		Memory:        memStore,
		Threads:       threads,
		Logger:        logger,
		Metrics:       metrics,
		Bus:           bus,
		MaxIterations: cfg.Loop.MaxIterations,
	})

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		bus:     bus,
		memory:  memStore,
		threads: threads,
		loop:    loop,
	}, nil
}

func registerHooks(bus *event.Bus, cfg *config.Config, logger *telemetry.Logger) error {
	for _, h := range cfg.Hooks.Hooks {
		events := make([]event.EventType, 0, len(h.Events))
		for _, e := range h.Events {
			events = append(events, event.EventType(e))
		}
		switch h.Type {
		case "log":
			bus.Register(event.NewLogHook(h.Name, events, logger, h.Level))
		case "webhook":
			bus.Register(event.NewWebhookHook(h.Name, h.URL, events, h.Blocking))
		default:
			return fmt.Errorf("unsupported hook type: %s", h.Type)
		}
	}
	return nil
}

// close flushes metrics and releases stores.
func (r *runtime) close() {
	r.metrics.Flush("session", map[string]string{"name": r.cfg.Name})
	r.threads.Close()
	r.memory.Close()
	r.logger.Close()
}
