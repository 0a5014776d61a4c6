package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"modelrepomgr/internal/config"
	"modelrepomgr/internal/httpapi"
	"modelrepomgr/internal/lifecycle"
	"modelrepomgr/internal/manager"
	"modelrepomgr/internal/poller"
)

// repoFlags collects repeated -repo flags into a slice.
type repoFlags []string

func (f *repoFlags) String() string { return strings.Join(*f, ",") }
func (f *repoFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var repos repoFlags
	flag.Var(&repos, "repo", "repository root directory to poll (repeatable)")
	configPath := flag.String("config", "", "path to a daemon config file (.yaml/.yml/.json/.toml/.hcl); flags set on the command line override its values")
	addr := flag.String("addr", envOr("MODELD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	pollInterval := flag.Duration("poll-interval", 5*time.Second, "interval between repository polls (0 disables background polling)")
	namespacing := flag.Bool("enable-model-namespacing", false, "key models by (repository, name) instead of name alone")
	strictConfig := flag.Bool("strict-model-config", false, "strict model config setting (accepted and passed to the manager, which does not read it)")
	minComputeCapability := flag.Int("min-compute-capability", 0, "minimum compute capability (stored on the manager; no load path checks it)")
	schedulerConcurrency := flag.Int("scheduler-concurrency", 4, "max concurrent load/unload calls per scheduler iteration")
	ctxSize := flag.Int("llama-ctx-size", 2048, "default llama.cpp context size")
	threads := flag.Int("llama-threads", 4, "default llama.cpp thread count")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	httpapi.SetLogger(logger)

	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config %s: %v", *configPath, err)
		}
		repos = append(repos, fileCfg.Repos...)
		setFlags := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
		if fileCfg.Addr != "" && !setFlags["addr"] {
			*addr = fileCfg.Addr
		}
		if fileCfg.PollIntervalSeconds > 0 && !setFlags["poll-interval"] {
			*pollInterval = time.Duration(fileCfg.PollIntervalSeconds) * time.Second
		}
		if !setFlags["enable-model-namespacing"] {
			*namespacing = fileCfg.EnableModelNamespacing
		}
		if !setFlags["strict-model-config"] {
			*strictConfig = fileCfg.StrictModelConfig
		}
		if fileCfg.MinComputeCapability > 0 && !setFlags["min-compute-capability"] {
			*minComputeCapability = fileCfg.MinComputeCapability
		}
		if fileCfg.SchedulerConcurrency > 0 && !setFlags["scheduler-concurrency"] {
			*schedulerConcurrency = fileCfg.SchedulerConcurrency
		}
	}

	if len(repos) == 0 {
		log.Fatal("at least one -repo (or config repos entry) is required")
	}

	fsPoller := poller.NewFilesystemPoller(*namespacing)
	for _, path := range repos {
		if err := fsPoller.RegisterRepository(path, nil); err != nil {
			log.Fatalf("register repository %s: %v", path, err)
		}
	}

	lc := newLifecycle(*ctxSize, *threads)

	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Poller:                 fsPoller,
		Lifecycle:              lc,
		StrictModelConfig:      *strictConfig,
		PollingEnabled:         true,
		EnableModelNamespacing: *namespacing,
		MinComputeCapability:   *minComputeCapability,
		SchedulerConcurrency:   *schedulerConcurrency,
	})
	if err != nil {
		log.Fatalf("construct manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	httpapi.SetBaseContext(ctx)

	if _, err := mgr.PollAndUpdate(ctx); err != nil {
		logger.Error().Err(err).Msg("initial poll failed")
	}

	if *pollInterval > 0 {
		go runPollLoop(ctx, mgr, *pollInterval, logger)
	}

	mux := httpapi.NewMux(mgr)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Strs("repos", []string(repos)).Msg("modeld listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	if err := mgr.StopAllModels(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("stop all models error")
	}
}

func runPollLoop(ctx context.Context, mgr *manager.Manager, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := mgr.PollAndUpdate(ctx); err != nil {
				logger.Error().Err(err).Msg("poll failed")
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLifecycle returns the llama.cpp-backed lifecycle when built with
// -tags=llama, or its in-memory stand-in otherwise.
func newLifecycle(ctxSize, threads int) lifecycle.ModelLifecycle {
	if lifecycle.LlamaBuilt() {
		return lifecycle.NewLlamaLifecycle(ctxSize, threads)
	}
	return lifecycle.NewMemoryLifecycle()
}
