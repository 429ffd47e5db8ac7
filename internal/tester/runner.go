package tester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"proxyprobe/internal/filter"
	"proxyprobe/internal/geoip"
	"proxyprobe/internal/ledger"
	"proxyprobe/internal/model"
	"proxyprobe/internal/parser"
	"proxyprobe/internal/render"
)

const (
	msgUnsupported = "Unsupported config format"
	msgUnreachable = "Server unreachable"
	msgCancelled   = "Trial cancelled"
)

// Runner owns one local validation attempt per call to Run.
type Runner struct {
	BinPath string
	// WorkDir holds the transient config_<port>.json artifacts.
	WorkDir string
	Settle  time.Duration
	Render  render.Func
	Prober  *Prober
	Ledger  *ledger.Ledger

	// Optional.
	Precheck *filter.Pipeline
	GeoIP    *geoip.Database
}

// Run renders raw, starts the engine with a SOCKS listener on port, probes
// through it and classifies the outcome. Every failure is reported in the
// returned result. The engine is killed, the probe cancelled and the
// artifact removed on every exit path.
func (r *Runner) Run(ctx context.Context, raw string, port int) model.TrialResult {
	ep := parser.Normalize(raw)
	log := slog.With("port", port, "kind", ep.Kind(), "server", ep.Server)

	// 1. Render
	data, err := r.Render(ep, port)
	if err != nil {
		log.Debug("render_failed", "error", err)
		if errors.Is(err, render.ErrUnsupportedFormat) {
			return model.Errored(raw, port, msgUnsupported)
		}
		return model.Errored(raw, port, err.Error())
	}

	if r.Precheck != nil && !r.Precheck.Check(ep) {
		return model.Failed(raw, port, msgUnreachable)
	}

	configName := filepath.Join(r.WorkDir, fmt.Sprintf("config_%d.json", port))
	probeCtx, cancelProbe := context.WithCancel(ctx)
	var cmd *exec.Cmd

	defer func() {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		}
		cancelProbe()
		_ = os.Remove(configName)
	}()

	// 2. Artifact
	if err := os.WriteFile(configName, data, 0644); err != nil {
		log.Error("config_write_failed", "error", err)
		return model.Errored(raw, port, err.Error())
	}

	// 3. Engine
	cmd = exec.CommandContext(ctx, r.BinPath, "run", "-c", configName)
	if err := cmd.Start(); err != nil {
		log.Error("engine_start_failed", "error", err)
		return model.Errored(raw, port, err.Error())
	}

	// 4. Fixed settle delay for the listener to bind
	timer := time.NewTimer(r.Settle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return model.Errored(raw, port, msgCancelled)
	case <-timer.C:
	}

	// 5. Probe
	startProbe := time.Now()
	body, err := r.Prober.Probe(probeCtx, port)
	if err != nil {
		log.Debug("probe_failed", "duration", time.Since(startProbe), "error", err)
		return model.Failed(raw, port, describeProbeError(err))
	}

	// 6. Classify
	addr, reason := Classify(body)
	if reason != "" {
		log.Debug("probe_rejected", "reason", reason)
		return model.Failed(raw, port, reason)
	}

	result := model.TrialResult{
		Endpoint:        raw,
		Port:            port,
		Status:          model.StatusSuccess,
		ObservedAddress: addr,
	}
	r.GeoIP.Annotate(&result)

	// 7. Ledger
	if r.Ledger != nil {
		existed, err := r.Ledger.Record(raw)
		if err != nil {
			log.Error("ledger_append_failed", "error", err)
		}
		result.AlreadyRecorded = existed
	}

	log.Info("trial_succeeded", "ip", addr, "latency", time.Since(startProbe), "already_recorded", result.AlreadyRecorded)
	return result
}
