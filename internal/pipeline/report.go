package pipeline

import (
	"context"
	"path"
	"time"

	"github.com/segmentio/encoding/json"

	"stock-trades/internal/manifest"
)

// LastRunPath is the summary of the latest RunAll, next to the manifests.
var LastRunPath = path.Join(manifest.Dir, "lastrun.json")

type stageSummary struct {
	Stage    Stage  `json:"stage"`
	RunID    string `json:"run_id"`
	Output   string `json:"output,omitempty"`
	RowsOut  int    `json:"rows_out"`
	Rejected int    `json:"rejected,omitempty"`
	Took     string `json:"took"`
}

type lastRun struct {
	StartedAt time.Time      `json:"started_at"`
	Succeeded []stageSummary `json:"succeeded"`
	Failed    *failedStage   `json:"failed,omitempty"`
}

type failedStage struct {
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason"`
}

// writeLastRun records which stages of a RunAll succeeded and why the first one failed.
func (p *Pipeline) writeLastRun(ctx context.Context, reports []RunReport, runErr error) error {
	lr := lastRun{Succeeded: []stageSummary{}}
	for i, r := range reports {
		if i == 0 {
			lr.StartedAt = r.StartedAt
		}
		if runErr != nil && i == len(reports)-1 {
			lr.Failed = &failedStage{Stage: r.Stage, Reason: runErr.Error()}
			break
		}
		lr.Succeeded = append(lr.Succeeded, stageSummary{
			Stage:    r.Stage,
			RunID:    r.RunID,
			Output:   r.Output,
			RowsOut:  r.RowsOut,
			Rejected: r.Rejected,
			Took:     r.Duration.Round(time.Millisecond).String(),
		})
	}
	data, err := json.MarshalIndent(lr, "", "  ")
	if err != nil {
		return err
	}
	return p.backend.Put(ctx, LastRunPath, data)
}
