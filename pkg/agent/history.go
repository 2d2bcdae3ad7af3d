package agent

import (
	"context"
	"time"

	"github.com/weavehq/loom/pkg/types"
)

// handleHistoryRequest answers a run history request with a history data
// event. Without a configured history library the response is empty rather
// than an error; executors render "no runs yet" the same way either way.
func (a *DefaultAgent) handleHistoryRequest(ctx context.Context, input *types.Input) {
	params := historyParams(input)

	if a.history == nil {
		a.emitEvent(types.NewHistoryDataEvent(nil, params.Limit))
		return
	}

	// Over-fetch when filtering so the failed-only view still fills up
	fetch := params.Limit
	if params.FailedOnly {
		fetch *= 4
	}

	recCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	records, err := a.history.RecentRuns(recCtx, fetch)
	if err != nil {
		agentLog.Warnf("Failed to load run history: %v", err)
		a.emitEvent(types.NewErrorEvent(err))
		return
	}

	runs := make([]types.HistoryRunData, 0, params.Limit)
	for _, rec := range records {
		if params.FailedOnly && rec.OK {
			continue
		}
		runs = append(runs, types.HistoryRunData{
			GraphID:   rec.GraphID,
			Goal:      rec.Goal,
			StartedAt: rec.StartedAt.Format(time.RFC3339),
			Duration:  rec.Duration,
			Nodes:     rec.Nodes,
			Failed:    rec.Failed,
			OK:        rec.OK,
		})
		if len(runs) == params.Limit {
			break
		}
	}

	a.emitEvent(types.NewHistoryDataEvent(runs, params.Limit))
}

// historyParams extracts request parameters from the input metadata,
// falling back to defaults when absent or of the wrong shape.
func historyParams(input *types.Input) types.HistoryRequestParams {
	params := types.HistoryRequestParams{Limit: 10}
	if input.Metadata == nil {
		return params
	}
	if p, ok := input.Metadata["params"].(types.HistoryRequestParams); ok {
		if p.Limit <= 0 {
			p.Limit = 10
		}
		return p
	}
	return params
}
