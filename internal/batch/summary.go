package batch

import (
	"github.com/samber/lo"

	"proxyprobe/internal/model"
)

// ChunkReport aggregates the results of one chunk.
type ChunkReport struct {
	Index   int
	Total   int
	Results []model.TrialResult

	Success  int
	Failed   int
	Error    int
	New      int
	Existing int
}

// Summarize counts outcomes; Index and Total are left to the caller.
func Summarize(results []model.TrialResult) ChunkReport {
	byStatus := func(s model.Status) func(model.TrialResult) bool {
		return func(r model.TrialResult) bool { return r.Status == s }
	}
	return ChunkReport{
		Results: results,
		Success: lo.CountBy(results, byStatus(model.StatusSuccess)),
		Failed:  lo.CountBy(results, byStatus(model.StatusFailed)),
		Error:   lo.CountBy(results, byStatus(model.StatusError)),
		New: lo.CountBy(results, func(r model.TrialResult) bool {
			return r.OK() && !r.AlreadyRecorded
		}),
		Existing: lo.CountBy(results, func(r model.TrialResult) bool {
			return r.OK() && r.AlreadyRecorded
		}),
	}
}

// Summary is the run-level tally.
type Summary struct {
	Tested     int
	Successful int
	// Rate is the success percentage, 0 when nothing was tested.
	Rate float64
}

// Tally computes the run-level summary.
func Tally(results []model.TrialResult) Summary {
	s := Summary{
		Tested:     len(results),
		Successful: lo.CountBy(results, model.TrialResult.OK),
	}
	if s.Tested > 0 {
		s.Rate = float64(s.Successful) / float64(s.Tested) * 100
	}
	return s
}
