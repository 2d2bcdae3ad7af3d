// Package templates manages named graph templates and run history on top of
// the store port.
//
// A template is a saved list of node specs plus metadata; it compiles into
// a fresh graph on every use. Run history keeps one summary record per
// finished run, with ids that sort chronologically so listing the store
// collection lists runs in order.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/store"
)

// Store collections used by the library.
const (
	collectionTemplates = "templates"
	collectionRuns      = "runs"
)

// runIDTimeLayout makes run record ids sort chronologically. Nanoseconds
// keep rapid back-to-back runs from colliding.
const runIDTimeLayout = "20060102T150405.000000000"

// Template is a reusable, named graph definition.
type Template struct {
	// Name identifies the template. It doubles as the storage id, so it is
	// restricted to letters, digits, '.', '_' and '-'.
	Name string `json:"name"`

	// Description is free text shown when templates are listed.
	Description string `json:"description,omitempty"`

	// Goal is the default goal text stamped onto graphs built from this
	// template. BuildGraph can override it per use.
	Goal string `json:"goal,omitempty"`

	// Specs is the node list the template compiles into.
	Specs []engine.NodeSpec `json:"specs"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RunRecord summarizes one finished run for history listings.
type RunRecord struct {
	GraphID   string    `json:"graphId"`
	Goal      string    `json:"goal,omitempty"`
	Source    string    `json:"source,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
	OK        bool      `json:"ok"`
	Nodes     int       `json:"nodes"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

// Library manages templates and run history. It is safe for concurrent use
// when its store is.
type Library struct {
	store store.Store
}

// NewLibrary creates a library on top of the given store.
func NewLibrary(s store.Store) *Library {
	return &Library{store: s}
}

// SaveTemplate validates and persists a template. The node specs must
// compile into a graph before anything is written. CreatedAt is stamped
// on first save, UpdatedAt on every save.
func (l *Library) SaveTemplate(ctx context.Context, tpl *Template) error {
	if tpl == nil {
		return fmt.Errorf("template cannot be nil")
	}
	if err := store.ValidateKey("template name", tpl.Name); err != nil {
		return err
	}
	if len(tpl.Specs) == 0 {
		return fmt.Errorf("template %q has no nodes", tpl.Name)
	}
	if _, err := engine.NewGraph(tpl.Specs, engine.Meta{}); err != nil {
		return fmt.Errorf("template %q does not compile: %w", tpl.Name, err)
	}

	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding template: %w", err)
	}
	return l.store.Put(ctx, collectionTemplates, tpl.Name, data)
}

// LoadTemplate returns the named template. The error matches
// store.ErrNotFound when it does not exist.
func (l *Library) LoadTemplate(ctx context.Context, name string) (*Template, error) {
	data, err := l.store.Get(ctx, collectionTemplates, name)
	if err != nil {
		return nil, err
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("decoding template %q: %w", name, err)
	}
	return &tpl, nil
}

// DeleteTemplate removes the named template. Absent templates are ignored.
func (l *Library) DeleteTemplate(ctx context.Context, name string) error {
	return l.store.Delete(ctx, collectionTemplates, name)
}

// ListTemplates returns the saved template names, ascending.
func (l *Library) ListTemplates(ctx context.Context) ([]string, error) {
	return l.store.List(ctx, collectionTemplates)
}

// BuildGraph loads the named template and compiles it into a fresh graph.
// A non-empty goal overrides the template's default goal in the graph
// metadata.
func (l *Library) BuildGraph(ctx context.Context, name, goal string) (*engine.Graph, error) {
	tpl, err := l.LoadTemplate(ctx, name)
	if err != nil {
		return nil, err
	}
	if goal == "" {
		goal = tpl.Goal
	}

	graph, err := engine.NewGraph(tpl.Specs, engine.Meta{Goal: goal, CreatedAt: time.Now().UTC()})
	if err != nil {
		// Only reachable when a record was written around SaveTemplate.
		return nil, fmt.Errorf("template %q does not compile: %w", name, err)
	}
	return graph, nil
}

// RecordRun appends a run summary to the history.
func (l *Library) RecordRun(ctx context.Context, rec *RunRecord) error {
	if rec == nil {
		return fmt.Errorf("run record cannot be nil")
	}
	if rec.GraphID == "" {
		return fmt.Errorf("run record has no graph id")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	id := rec.StartedAt.UTC().Format(runIDTimeLayout) + "-" + rec.GraphID
	return l.store.Put(ctx, collectionRuns, id, data)
}

// RecentRuns returns run records newest first. A limit below one returns
// all of them. Records that fail to load or decode are dropped from the
// listing rather than failing it; an id can expire between listing and
// loading when the store has a TTL.
func (l *Library) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	ids, err := l.store.List(ctx, collectionRuns)
	if err != nil {
		return nil, fmt.Errorf("listing run history: %w", err)
	}

	var runs []RunRecord
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(runs) >= limit {
			break
		}
		data, err := l.store.Get(ctx, collectionRuns, ids[i])
		if err != nil {
			continue
		}
		var rec RunRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		runs = append(runs, rec)
	}
	return runs, nil
}

// Close closes the underlying store.
func (l *Library) Close() error {
	return l.store.Close()
}
