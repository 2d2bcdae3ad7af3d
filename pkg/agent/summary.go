package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/types"
)

const (
	// summarySystemPrompt frames the model as the reporting layer; it sees
	// node outcomes, never raw pages.
	summarySystemPrompt = `You are the reporting layer of a web automation agent. ` +
		`You are given the goal of a finished automation run and the outcome of every task in it. ` +
		`Write a short plain-text report for the user: what was found or accomplished, ` +
		`and what failed or was skipped, if anything. Lead with the findings, not the mechanics. ` +
		`Do not invent results that are not in the outcomes. Keep it under 200 words.`

	// summaryObsTokens bounds each node observation included in the
	// summary prompt so large page extracts cannot blow the context.
	summaryObsTokens = 300
)

// summarizeRun streams an LLM-written report of the run as message events.
// When no provider is configured (or the call fails) a locally composed
// summary is emitted instead, so executors always receive a message.
func (a *DefaultAgent) summarizeRun(ctx context.Context, goal string, result *engine.RunResult) {
	provider := a.getProvider()
	if provider == nil {
		a.emitLocalSummary(result)
		return
	}

	messages := []*types.Message{
		types.NewSystemMessage(summarySystemPrompt),
		types.NewUserMessage(a.buildSummaryPrompt(goal, result)),
	}

	var promptTokens int
	if a.tokenizer != nil {
		promptTokens = a.tokenizer.CountMessagesTokens(messages)
	}
	a.emitEvent(types.NewAPICallStartEvent("llm", promptTokens, 0))

	stream, err := provider.StreamCompletion(ctx, messages)
	if err != nil {
		a.emitEvent(types.NewAPICallEndEvent("llm"))
		if ctx.Err() != nil {
			return
		}
		agentLog.Warnf("Summary completion failed to start: %v", err)
		a.emitLocalSummary(result)
		return
	}

	a.emitEvent(types.NewMessageStartEvent())
	var content strings.Builder
	for chunk := range stream {
		if chunk.IsError() {
			if ctx.Err() == nil {
				a.emitEvent(types.NewErrorEvent(fmt.Errorf("summary stream failed: %w", chunk.Error)))
			}
			break
		}
		if chunk.IsThinking() || chunk.Content == "" {
			continue
		}
		content.WriteString(chunk.Content)
		a.emitEvent(types.NewMessageContentEvent(chunk.Content))
	}
	a.emitEvent(types.NewMessageEndEvent())
	a.emitEvent(types.NewAPICallEndEvent("llm"))

	if a.tokenizer != nil && content.Len() > 0 {
		completionTokens := a.tokenizer.CountTokens(content.String())
		a.emitEvent(types.NewTokenUsageEvent(promptTokens, completionTokens, promptTokens+completionTokens))
	}
}

// buildSummaryPrompt renders the run outcome as a compact textual table the
// model can report from. Observations are token-budgeted per node.
func (a *DefaultAgent) buildSummaryPrompt(goal string, result *engine.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Run %s finished in %s, ok=%v.\n\nTask outcomes:\n",
		result.GraphID, formatElapsed(result.Duration), result.OK)

	ids := make([]string, 0, len(result.Results))
	for id := range result.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := result.Results[id]
		fmt.Fprintf(&b, "- %s [%s]", id, res.Status)
		if res.Error != "" {
			fmt.Fprintf(&b, " error: %s", res.Error)
		}
		if res.Observation != "" {
			obs := res.Observation
			if a.tokenizer != nil {
				obs = a.tokenizer.Truncate(obs, summaryObsTokens)
			}
			fmt.Fprintf(&b, "\n  %s", strings.ReplaceAll(obs, "\n", "\n  "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// emitLocalSummary composes a summary without an LLM.
func (a *DefaultAgent) emitLocalSummary(result *engine.RunResult) {
	failed := result.Failed()
	skipped := result.Skipped()
	succeeded := len(result.Results) - len(failed) - len(skipped)

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s: %d succeeded, %d failed, %d skipped.",
		result.GraphID, formatElapsed(result.Duration), succeeded, len(failed), len(skipped))

	sort.Strings(failed)
	for _, id := range failed {
		fmt.Fprintf(&b, "\n%s failed: %s", id, result.Results[id].Error)
	}

	a.emitEvent(types.NewMessageStartEvent())
	a.emitEvent(types.NewMessageContentEvent(b.String()))
	a.emitEvent(types.NewMessageEndEvent())
}
