package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"proxyprobe/internal/batch"
	"proxyprobe/internal/config"
	"proxyprobe/internal/dedup"
	"proxyprobe/internal/filter"
	"proxyprobe/internal/geoip"
	"proxyprobe/internal/ledger"
	"proxyprobe/internal/logger"
	"proxyprobe/internal/model"
	"proxyprobe/internal/parser"
	"proxyprobe/internal/render"
	"proxyprobe/internal/sink"
	"proxyprobe/internal/source"
	"proxyprobe/internal/telegram"
	"proxyprobe/internal/tester"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	subscription := flag.String("config", "", "subscription URL, or a single share link")
	file := flag.String("file", "", "file with share links, plain or base64")
	port := flag.Int("port", cfg.StartPort, "first local SOCKS port")
	batchSize := flag.Int("batch", cfg.BatchSize, "endpoints tested concurrently per chunk")
	flag.Parse()

	cfg.StartPort, cfg.BatchSize = *port, *batchSize
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid_config", "error", err)
		os.Exit(2)
	}
	if *subscription == "" && *file == "" {
		fmt.Fprintln(os.Stderr, "usage: proxyprobe -config <url|link> | -file <path> [-port N] [-batch N]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *subscription, *file); err != nil {
		slog.Error("run_failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, subscription, file string) error {
	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run", runID))

	// 0. Setup
	// Check if binary exists
	if _, err := exec.LookPath(cfg.EnginePath); err != nil {
		return fmt.Errorf("engine binary %s: %w", cfg.EnginePath, err)
	}
	renderFn, err := render.ForEngine(cfg.EngineFormat)
	if err != nil {
		return err
	}

	endpoints, err := loadEndpoints(ctx, cfg, subscription, file)
	if err != nil {
		return err
	}
	endpoints = dedup.New().Unique(endpoints)
	if len(endpoints) == 0 {
		return errors.New("no endpoints to test")
	}
	kinds := lo.CountValuesBy(endpoints, func(raw string) model.Kind {
		kind, _ := parser.KindOf(raw)
		return kind
	})
	slog.Info("endpoints_loaded", "total", len(endpoints), "kinds", kinds)

	runDir, err := os.MkdirTemp(cfg.WorkDir, "proxyprobe-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	runner := &tester.Runner{
		BinPath: cfg.EnginePath,
		WorkDir: runDir,
		Settle:  cfg.SettleDelay,
		Render:  renderFn,
		Prober: &tester.Prober{
			URL:            cfg.ProbeURL,
			UserAgent:      cfg.ProbeUserAgent,
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.ProbeTimeout,
		},
		Ledger: ledger.Open(cfg.LedgerPath),
	}
	if cfg.Precheck {
		runner.Precheck = filter.NewPipeline(cfg.PrecheckTimeout)
	}
	if cfg.GeoIPPath != "" {
		db, err := geoip.Open(cfg.GeoIPPath)
		if err != nil {
			slog.Warn("geoip_unavailable", "path", cfg.GeoIPPath, "error", err)
		} else {
			defer db.Close()
			runner.GeoIP = db
		}
	}

	var results *sink.JSONLWriter
	if cfg.ResultsPath != "" {
		results, err = sink.NewJSONL(cfg.ResultsPath)
		if err != nil {
			return fmt.Errorf("open results sink: %w", err)
		}
		defer results.Close()
	}

	var notifier *telegram.Notifier
	if cfg.TelegramEnabled() {
		notifier = telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	}

	orch := &batch.Orchestrator{
		Trial:     runner,
		StartPort: cfg.StartPort,
		BatchSize: cfg.BatchSize,
		OnChunk: func(r batch.ChunkReport) {
			printChunk(r)
			if results != nil {
				if err := results.WriteAll(r.Results); err != nil {
					slog.Error("results_write_failed", "error", err)
				}
			}
			if notifier != nil {
				if _, err := notifier.NotifyNew(ctx, r.Results); err != nil {
					slog.Warn("telegram_notify_failed", "error", err)
				}
			}
		},
	}

	fmt.Printf("Loaded %d endpoints. Testing in batches of %d on ports %d-%d...\n",
		len(endpoints), cfg.BatchSize, cfg.StartPort, cfg.StartPort+cfg.BatchSize-1)

	startTotal := time.Now()
	all := orch.Run(ctx, endpoints)
	sum := batch.Tally(all)

	fmt.Printf("\n--- Scan Complete in %s ---\n", time.Since(startTotal).Round(time.Second))
	fmt.Printf("Tested: %d | Working: %d | Success rate: %.1f%%\n", sum.Tested, sum.Successful, sum.Rate)
	fmt.Printf("Working endpoints are recorded in %s\n", runner.Ledger.Path())

	if ctx.Err() != nil {
		slog.Warn("run_interrupted", "tested", sum.Tested, "total", len(endpoints))
	}
	return nil
}

// loadEndpoints gathers raw strings from the -config and -file inputs.
func loadEndpoints(ctx context.Context, cfg *config.Config, subscription, file string) ([]string, error) {
	var out []string

	switch {
	case strings.HasPrefix(subscription, "http://"), strings.HasPrefix(subscription, "https://"):
		links, err := source.LoadFromURL(ctx, subscription, cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, links...)
	case subscription != "":
		out = append(out, strings.TrimSpace(subscription))
	}

	if file != "" {
		links, err := source.LoadFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
		out = append(out, links...)
	}
	return out, nil
}

func printChunk(r batch.ChunkReport) {
	fmt.Printf("\nBatch %d/%d: %d working (%d new, %d existing), %d failed, %d error\n",
		r.Index, r.Total, r.Success, r.New, r.Existing, r.Failed, r.Error)

	for _, res := range r.Results {
		switch res.Status {
		case model.StatusSuccess:
			tag := "NEW"
			if res.AlreadyRecorded {
				tag = "KNOWN"
			}
			fmt.Printf("  ✅ [%s] %s | port %d | %s\n", tag, res.ObservedAddress, res.Port, shorten(res.Endpoint))
		default:
			slog.Debug("trial_result", "status", res.Status, "port", res.Port, "message", res.Message)
		}
	}
}

func shorten(raw string) string {
	if len(raw) <= 60 {
		return raw
	}
	n := 57
	for n > 0 && !utf8.RuneStart(raw[n]) {
		n--
	}
	return raw[:n] + "..."
}
