package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"proxyprobe/internal/model"
)

// Trial runs one validation attempt and always returns a terminal result.
type Trial interface {
	Run(ctx context.Context, raw string, port int) model.TrialResult
}

// TrialFunc adapts a plain function to Trial.
type TrialFunc func(ctx context.Context, raw string, port int) model.TrialResult

func (f TrialFunc) Run(ctx context.Context, raw string, port int) model.TrialResult {
	return f(ctx, raw, port)
}

// Orchestrator tests endpoints in sequential chunks of BatchSize. Every
// trial of a chunk runs concurrently on its own port and the next chunk
// starts only after all of them finished.
type Orchestrator struct {
	Trial     Trial
	StartPort int
	BatchSize int

	// OnChunk, if set, is called after each chunk completes.
	OnChunk func(ChunkReport)
}

// PortFor is the local port of the endpoint at index i.
func PortFor(start, i, batchSize int) int {
	return start + i%batchSize
}

// Run tests every endpoint and returns the results in input order. Once ctx
// is cancelled no further chunk is started; the results of the chunk in
// flight are still collected and returned.
func (o *Orchestrator) Run(ctx context.Context, endpoints []string) []model.TrialResult {
	size := max(o.BatchSize, 1)
	chunks := lo.Chunk(endpoints, size)
	results := make([]model.TrialResult, 0, len(endpoints))

	for ci, chunk := range chunks {
		if ctx.Err() != nil {
			slog.Warn("run_interrupted", "tested", len(results), "remaining", len(endpoints)-len(results))
			break
		}

		start := time.Now()
		out := o.runChunk(ctx, chunk, ci*size, size)
		results = append(results, out...)

		report := Summarize(out)
		report.Index = ci + 1
		report.Total = len(chunks)
		slog.Info("chunk_done",
			"chunk", report.Index, "of", report.Total,
			"success", report.Success, "new", report.New, "existing", report.Existing,
			"failed", report.Failed, "error", report.Error,
			"duration", time.Since(start).Round(time.Millisecond))
		if o.OnChunk != nil {
			o.OnChunk(report)
		}
	}
	return results
}

func (o *Orchestrator) runChunk(ctx context.Context, chunk []string, offset, size int) []model.TrialResult {
	out := make([]model.TrialResult, len(chunk))

	// Trials report failures in their result, so the group never errors and
	// a failing trial never cancels its siblings.
	var g errgroup.Group
	g.SetLimit(size)
	for i, raw := range chunk {
		i, raw := i, raw
		port := PortFor(o.StartPort, offset+i, size)
		g.Go(func() error {
			out[i] = o.Trial.Run(ctx, raw, port)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
