// Package planner breaks free-text browsing goals into ordered sub-task
// lists and compiles them into linear task graphs.
//
// Planning prefers the configured LLM provider: the model is asked for a
// bare JSON array of sub-task strings, and the reply is parsed tolerantly
// (code fences, surrounding prose, wrapper objects, and object-shaped items
// are all accepted). When no provider is configured, or the model's reply
// yields nothing usable, planning falls back to a deterministic heuristic so
// a goal always produces a runnable graph.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/logging"
	"github.com/weavehq/loom/pkg/types"
)

// Plan sources reported in PlanningEnd events and run artifacts.
const (
	// SourceLLM marks a plan produced by the language model.
	SourceLLM = "llm"
	// SourceHeuristic marks a plan produced by the built-in fallback.
	SourceHeuristic = "heuristic"
)

// DefaultMaxSubTasks bounds how many sub-tasks a plan may carry. Each
// sub-task expands to two or three tool nodes, so eight sub-tasks already
// means a graph of up to twenty-four browser operations.
const DefaultMaxSubTasks = 8

// Plan is the ordered sub-task breakdown of a goal.
type Plan struct {
	// Goal is the trimmed goal text the plan was built from.
	Goal string `json:"goal"`

	// SubTasks is the ordered list of free-text sub-tasks. Never empty.
	SubTasks []string `json:"subTasks"`

	// Source reports how the plan was produced: SourceLLM or SourceHeuristic.
	Source string `json:"source"`

	// Model names the model that produced an LLM plan. Empty for heuristic
	// plans.
	Model string `json:"model,omitempty"`
}

// Planner turns goals into plans. A nil provider is valid and yields
// heuristic plans only.
type Planner struct {
	provider    llm.Provider
	logger      *logging.Logger
	maxSubTasks int
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger used for planning diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMaxSubTasks overrides the sub-task cap. Values below one keep the
// default.
func WithMaxSubTasks(n int) Option {
	return func(p *Planner) {
		if n >= 1 {
			p.maxSubTasks = n
		}
	}
}

// WithModel directs planning calls at the named model when the provider
// supports per-call overrides. An empty name keeps the provider's default
// model, as does a provider without override support.
func WithModel(model string) Option {
	return func(p *Planner) {
		if model == "" || p.provider == nil {
			return
		}
		if cloner, ok := p.provider.(llm.ModelCloner); ok {
			p.provider = cloner.CloneWithModel(model)
		}
	}
}

// New creates a planner backed by the given provider. Pass nil to plan
// heuristically without a model.
func New(provider llm.Provider, opts ...Option) *Planner {
	p := &Planner{
		provider:    provider,
		logger:      logging.NewNop(),
		maxSubTasks: DefaultMaxSubTasks,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanGoal produces the ordered sub-task list for a goal.
//
// LLM failures downgrade to the heuristic plan rather than failing the
// call; context cancellation is the exception and is returned as-is so an
// aborted run does not proceed on a fallback plan.
func (p *Planner) PlanGoal(ctx context.Context, goal string) (*Plan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("goal cannot be empty")
	}

	if p.provider == nil {
		return p.heuristicPlan(goal), nil
	}

	subTasks, err := p.llmSubTasks(ctx, goal)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warnf("Planning with %s failed, using heuristic plan: %v", p.provider.GetModel(), err)
		return p.heuristicPlan(goal), nil
	}

	p.logger.Infof("Planned %d sub-task(s) with %s", len(subTasks), p.provider.GetModel())
	return &Plan{
		Goal:     goal,
		SubTasks: subTasks,
		Source:   SourceLLM,
		Model:    p.provider.GetModel(),
	}, nil
}

// BuildGraph plans the goal and compiles the resulting sub-tasks into a
// strictly linear graph carrying the goal in its metadata.
func (p *Planner) BuildGraph(ctx context.Context, goal string, opts engine.PlanOptions) (*engine.Graph, *Plan, error) {
	plan, err := p.PlanGoal(ctx, goal)
	if err != nil {
		return nil, nil, err
	}

	meta := engine.Meta{Goal: plan.Goal, CreatedAt: time.Now()}
	graph, err := engine.NewLinearGraphFromSubTasks(plan.SubTasks, meta, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling plan into graph: %w", err)
	}
	return graph, plan, nil
}

// llmSubTasks asks the provider for the sub-task breakdown and parses the
// reply.
func (p *Planner) llmSubTasks(ctx context.Context, goal string) ([]string, error) {
	messages := []*types.Message{
		types.NewSystemMessage(planSystemPrompt),
		types.NewUserMessage(buildPlanPrompt(goal, p.maxSubTasks)),
	}

	reply, err := p.provider.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("plan completion: %w", err)
	}

	subTasks := parseSubTasks(reply.Content)
	if len(subTasks) == 0 {
		return nil, fmt.Errorf("model reply carried no usable sub-tasks: %.200q", reply.Content)
	}
	if len(subTasks) > p.maxSubTasks {
		subTasks = subTasks[:p.maxSubTasks]
	}
	return subTasks, nil
}

// heuristicPlan is the no-model fallback. A goal written as an enumerated
// list is split into its items; any other goal becomes a single sub-task and
// the linear plan compiler's per-task heuristics decide the tool nodes.
func (p *Planner) heuristicPlan(goal string) *Plan {
	subTasks := splitEnumeratedLines(goal)
	if len(subTasks) == 0 {
		subTasks = []string{goal}
	}
	if len(subTasks) > p.maxSubTasks {
		subTasks = subTasks[:p.maxSubTasks]
	}
	return &Plan{Goal: goal, SubTasks: subTasks, Source: SourceHeuristic}
}

const planSystemPrompt = "You are the planning layer of a browser automation agent. " +
	"You break a user's goal into a short ordered list of browsing sub-tasks."

// buildPlanPrompt explains the downstream compiler's routing so the model
// phrases sub-tasks the compiler maps onto the right tool nodes.
func buildPlanPrompt(goal string, maxSubTasks int) string {
	return fmt.Sprintf(`Break the goal below into at most %d ordered browsing sub-tasks.
Output ONLY a JSON array of strings, no prose, no code fences.

Each sub-task runs against a shared browser tab through a fixed toolset:
- a sub-task containing a URL opens that URL, reads the page, and extracts structured data;
- a sub-task mentioning "analyze" or "links" reads the page and analyzes its links;
- any other sub-task reads the current page and extracts data guided by the sub-task text.

Rules:
- Keep each sub-task self-contained and concrete.
- Put the full URL inside the sub-task that should open it.
- Sub-tasks run strictly one after another in the given order.

Goal: %s`, maxSubTasks, goal)
}

// parseSubTasks pulls an ordered sub-task list out of a model reply. Replies
// are expected to be a bare JSON array of strings, but commonly arrive
// fenced, buried in prose, wrapped in a {"steps": [...]} object, or with
// object-shaped items; each shape is tolerated in turn before giving up.
func parseSubTasks(raw string) []string {
	text := normalizeJSONText(raw)

	if tasks := decodeSubTaskArray(text); len(tasks) > 0 {
		return tasks
	}

	if arr := extractJSONArray(text); arr != "" && arr != text {
		if tasks := decodeSubTaskArray(arr); len(tasks) > 0 {
			return tasks
		}
	}

	var wrapper struct {
		Steps    []any `json:"steps"`
		SubTasks []any `json:"subTasks"`
		Tasks    []any `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil {
		for _, items := range [][]any{wrapper.Steps, wrapper.SubTasks, wrapper.Tasks} {
			if tasks := subTaskStrings(items); len(tasks) > 0 {
				return tasks
			}
		}
	}
	return nil
}

// decodeSubTaskArray decodes a JSON array whose items are strings or
// description-bearing objects.
func decodeSubTaskArray(text string) []string {
	var items []any
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil
	}
	return subTaskStrings(items)
}

// subTaskStrings flattens decoded array items to trimmed, non-empty task
// strings. Object items contribute their first description-like field.
func subTaskStrings(items []any) []string {
	var tasks []string
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if t := strings.TrimSpace(v); t != "" {
				tasks = append(tasks, t)
			}
		case map[string]any:
			for _, key := range []string{"description", "task", "step", "text"} {
				if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
					tasks = append(tasks, strings.TrimSpace(s))
					break
				}
			}
		}
	}
	return tasks
}

// normalizeJSONText strips the decoration models wrap around JSON payloads:
// surrounding whitespace and markdown code fences with an optional language
// hint line.
func normalizeJSONText(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		if idx := strings.IndexByte(t, '\n'); idx != -1 {
			t = t[idx+1:]
		}
		if j := strings.LastIndex(t, "```"); j != -1 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	return t
}

// extractJSONArray returns the first top-level JSON array in s, or "" when
// none closes. Plain depth counting; brackets inside string literals will
// fool it, which is acceptable for a salvage parse.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// enumPrefix matches the list markers users paste in multi-step goals:
// "1." / "2)" / "-" / "*" at the start of a line.
var enumPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s+`)

// splitEnumeratedLines returns the goal's enumerated lines with their list
// markers stripped. Fewer than two enumerated lines is not a list, and nil
// is returned so prose with a stray dash stays a single sub-task.
func splitEnumeratedLines(goal string) []string {
	var tasks []string
	for _, line := range strings.Split(goal, "\n") {
		if !enumPrefix.MatchString(line) {
			continue
		}
		task := strings.TrimSpace(enumPrefix.ReplaceAllString(line, ""))
		if task != "" {
			tasks = append(tasks, task)
		}
	}
	if len(tasks) < 2 {
		return nil
	}
	return tasks
}
