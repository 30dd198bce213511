package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"spec-scraper/pkg/config"
	"spec-scraper/pkg/crawler"
	"spec-scraper/pkg/fetch"
	"spec-scraper/pkg/report"
	"spec-scraper/pkg/storage"
)

func main() {
	// --- Early Initialization & Flags ---
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	configFileFlag := flag.String("config", "config.yaml", "Path to YAML config file")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	refreshFlag := flag.Bool("refresh", false, "Discard the response cache and refetch every spec")
	specsFlag := flag.String("specs", "", "Comma-separated shortnames to crawl (default: all configured)")
	pprofAddr := flag.String("pprof", "", "Address for pprof HTTP server (e.g., ':6060', empty to disable)")
	flag.Parse()

	// --- Logger Configuration ---
	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
		log.Infof("Setting log level to: %s", level.String())
	}

	// --- Load Application Configuration ---
	log.Infof("Loading configuration from %s", *configFileFlag)
	appCfg, err := loadConfig(*configFileFlag)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appWarnings, err := appCfg.Validate()
	for _, w := range appWarnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// --- Optional Spec Filter ---
	if *specsFlag != "" {
		wanted := make(map[string]bool)
		for _, name := range strings.Split(*specsFlag, ",") {
			wanted[strings.TrimSpace(name)] = true
		}
		var filtered []config.SpecConfig
		for _, specCfg := range appCfg.Specs {
			if wanted[specCfg.EffectiveShortname()] {
				filtered = append(filtered, specCfg)
			}
		}
		if len(filtered) == 0 {
			log.Fatalf("No configured specs match -specs filter '%s'", *specsFlag)
		}
		appCfg.Specs = filtered
		log.Infof("Spec filter active: crawling %d of the configured specs", len(filtered))
	}

	logAppConfig(appCfg, log)

	// --- Start pprof HTTP Server (Optional) ---
	if *pprofAddr != "" {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("PANIC in pprof server: %v", r)
				}
			}()
			log.Infof("Starting pprof HTTP server on: http://%s/debug/pprof/", *pprofAddr)
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				log.Errorf("Pprof server failed to start on %s: %v", *pprofAddr, err)
			}
		}()
	}

	// --- Global Context & Signal Handling ---
	var crawlCtx context.Context
	var cancelCrawl context.CancelFunc
	if appCfg.GlobalCrawlTimeout > 0 {
		log.Infof("Setting global crawl timeout: %v", appCfg.GlobalCrawlTimeout)
		crawlCtx, cancelCrawl = context.WithTimeout(context.Background(), appCfg.GlobalCrawlTimeout)
	} else {
		crawlCtx, cancelCrawl = context.WithCancel(context.Background())
	}
	defer cancelCrawl()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelCrawl()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// --- Initialize Components ---
	log.Info("Initializing components...")

	store, err := storage.NewBadgerStore(appCfg.StateDir, *refreshFlag, log.WithField("component", "store"))
	if err != nil {
		log.Fatalf("Failed to initialize response cache DB: %v", err)
	}
	defer store.Close()
	go store.RunGC(crawlCtx, 10*time.Minute)

	writer, err := report.NewWriter(log.WithField("component", "report"), appCfg.OutputDir)
	if err != nil {
		log.Fatalf("Failed to initialize report writer: %v", err)
	}

	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, appCfg, log)
	rateLimiter := fetch.NewRateLimiter(appCfg.DefaultDelayPerHost, log)

	crawlerInstance, err := crawler.NewCrawler(
		appCfg,
		log,
		store,
		fetcher,
		rateLimiter,
		writer,
		crawlCtx,
		cancelCrawl,
	)
	if err != nil {
		log.Fatalf("Failed to initialize crawler: %v", err)
	}

	// --- Run ---
	err = crawlerInstance.Run()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Crawl cancelled gracefully.")
			os.Exit(0)
		} else if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Crawl timed out (global timeout).")
			os.Exit(1)
		}
		log.Errorf("Crawl finished with error: %v", err)
		os.Exit(1)
	}

	log.Info("Crawl completed successfully.")
}

// loadConfig reads and parses the YAML application config. Defaults are
// applied later by Validate.
func loadConfig(path string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config '%s': %w", path, err)
	}
	var appCfg config.AppConfig
	if err := yaml.Unmarshal(yamlFile, &appCfg); err != nil {
		return nil, fmt.Errorf("parse config '%s': %w", path, err)
	}
	return &appCfg, nil
}

// logAppConfig logs the effective global configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Global Config: Workers:%d, MaxReqs:%d, Specs:%d",
		appCfg.NumWorkers, appCfg.MaxRequests, len(appCfg.Specs))
	log.Infof("Global Config: DefaultDelay:%v, StateDir:%s, OutputDir:%s, CacheTTL:%v",
		appCfg.DefaultDelayPerHost, appCfg.StateDir, appCfg.OutputDir, appCfg.CacheTTL)
	log.Infof("Global Config Retries: Max:%d, InitialDelay:%v, MaxDelay:%v",
		appCfg.MaxRetries, appCfg.InitialRetryDelay, appCfg.MaxRetryDelay)
	log.Infof("Global Config Timeouts: SemaphoreAcquire:%v, GlobalCrawl:%v, PerSpec:%v",
		appCfg.SemaphoreAcquireTimeout, appCfg.GlobalCrawlTimeout, appCfg.PerSpecTimeout)
	log.Infof("Global Config HTTP Client: Timeout:%v, MaxIdle:%d, MaxIdlePerHost:%d",
		appCfg.HTTPClientSettings.Timeout, appCfg.HTTPClientSettings.MaxIdleConns, appCfg.HTTPClientSettings.MaxIdleConnsPerHost)
}
