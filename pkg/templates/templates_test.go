package templates_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/store"
	"github.com/weavehq/loom/pkg/store/file"
	"github.com/weavehq/loom/pkg/templates"
)

func newTestLibrary(t *testing.T) (*templates.Library, store.Store) {
	t.Helper()

	s := file.New(t.TempDir())
	return templates.NewLibrary(s), s
}

func pricingSpecs() []engine.NodeSpec {
	return []engine.NodeSpec{
		{
			ID:     "open",
			Kind:   string(engine.KindTool),
			ToolID: "navigate_to_url",
			Input:  map[string]any{"url": "https://example.com/pricing"},
		},
		{
			ID:        "read",
			Kind:      string(engine.KindTool),
			ToolID:    "read_page_content",
			DependsOn: []string{"open"},
		},
		{
			ID:          "extract",
			Kind:        string(engine.KindTool),
			ToolID:      "extract_structured_content",
			DependsOn:   []string{"read"},
			Input:       map[string]any{"instruction": "List plan names and prices"},
			RetryPolicy: &engine.RetryPolicySpec{MaxAttempts: 2, BackoffMs: 100},
		},
	}
}

func TestSaveAndLoadTemplate(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	tpl := &templates.Template{
		Name:        "pricing-scan",
		Description: "Open the pricing page and extract plans",
		Goal:        "Collect the published plan prices",
		Specs:       pricingSpecs(),
	}
	require.NoError(t, lib.SaveTemplate(ctx, tpl))
	assert.False(t, tpl.CreatedAt.IsZero())
	assert.False(t, tpl.UpdatedAt.IsZero())

	loaded, err := lib.LoadTemplate(ctx, "pricing-scan")
	require.NoError(t, err)
	assert.Equal(t, "pricing-scan", loaded.Name)
	assert.Equal(t, "Collect the published plan prices", loaded.Goal)
	require.Len(t, loaded.Specs, 3)
	assert.Equal(t, []string{"read"}, loaded.Specs[2].DependsOn)
	require.NotNil(t, loaded.Specs[2].RetryPolicy)
	assert.Equal(t, 2, loaded.Specs[2].RetryPolicy.MaxAttempts)
}

func TestSaveTemplatePreservesCreatedAt(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	tpl := &templates.Template{Name: "keep-created", Specs: pricingSpecs()}
	require.NoError(t, lib.SaveTemplate(ctx, tpl))
	created := tpl.CreatedAt

	loaded, err := lib.LoadTemplate(ctx, "keep-created")
	require.NoError(t, err)
	loaded.Description = "updated"
	require.NoError(t, lib.SaveTemplate(ctx, loaded))

	again, err := lib.LoadTemplate(ctx, "keep-created")
	require.NoError(t, err)
	assert.True(t, created.Equal(again.CreatedAt))
	assert.Equal(t, "updated", again.Description)
}

func TestSaveTemplateValidation(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		tpl     *templates.Template
		wantErr string
	}{
		{
			name:    "nil template",
			tpl:     nil,
			wantErr: "template cannot be nil",
		},
		{
			name:    "empty name",
			tpl:     &templates.Template{Specs: pricingSpecs()},
			wantErr: "template name cannot be empty",
		},
		{
			name:    "unsafe name",
			tpl:     &templates.Template{Name: "../escape", Specs: pricingSpecs()},
			wantErr: "invalid template name",
		},
		{
			name:    "no nodes",
			tpl:     &templates.Template{Name: "empty"},
			wantErr: "has no nodes",
		},
		{
			name: "unknown dependency",
			tpl: &templates.Template{
				Name: "broken",
				Specs: []engine.NodeSpec{
					{ID: "a", Kind: string(engine.KindTool), ToolID: "read_page_content", DependsOn: []string{"ghost"}},
				},
			},
			wantErr: "does not compile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lib.SaveTemplate(ctx, tt.tpl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildGraph(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	require.NoError(t, lib.SaveTemplate(ctx, &templates.Template{
		Name:  "pricing-scan",
		Goal:  "Default goal",
		Specs: pricingSpecs(),
	}))

	graph, err := lib.BuildGraph(ctx, "pricing-scan", "")
	require.NoError(t, err)
	assert.Equal(t, "Default goal", graph.Meta().Goal)
	assert.Equal(t, 3, graph.Len())

	overridden, err := lib.BuildGraph(ctx, "pricing-scan", "Check enterprise pricing")
	require.NoError(t, err)
	assert.Equal(t, "Check enterprise pricing", overridden.Meta().Goal)

	// Each build is a distinct graph instance.
	assert.NotEqual(t, graph.ID(), overridden.ID())
}

func TestBuildGraphMissingTemplate(t *testing.T) {
	lib, _ := newTestLibrary(t)

	_, err := lib.BuildGraph(context.Background(), "no-such-template", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteAndListTemplates(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	require.NoError(t, lib.SaveTemplate(ctx, &templates.Template{Name: "beta", Specs: pricingSpecs()}))
	require.NoError(t, lib.SaveTemplate(ctx, &templates.Template{Name: "alpha", Specs: pricingSpecs()}))

	names, err := lib.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	require.NoError(t, lib.DeleteTemplate(ctx, "alpha"))
	_, err = lib.LoadTemplate(ctx, "alpha")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunHistory(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i, graphID := range []string{"graph-one", "graph-two", "graph-three"} {
		require.NoError(t, lib.RecordRun(ctx, &templates.RunRecord{
			GraphID:   graphID,
			Goal:      "goal " + graphID,
			Source:    "llm",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  "1.2s",
			OK:        i != 1,
			Nodes:     3,
			Succeeded: 3,
		}))
	}

	recent, err := lib.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "graph-three", recent[0].GraphID)
	assert.Equal(t, "graph-two", recent[1].GraphID)
	assert.False(t, recent[1].OK)

	all, err := lib.RecentRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "graph-one", all[2].GraphID)
}

func TestRecentRunsSkipsCorruptRecords(t *testing.T) {
	lib, s := newTestLibrary(t)
	ctx := context.Background()

	require.NoError(t, lib.RecordRun(ctx, &templates.RunRecord{
		GraphID:   "good-run",
		StartedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.Put(ctx, "runs", "zzz-corrupt", []byte("{not json")))

	recent, err := lib.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "good-run", recent[0].GraphID)
}

func TestRecordRunValidation(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	require.Error(t, lib.RecordRun(ctx, nil))
	require.Error(t, lib.RecordRun(ctx, &templates.RunRecord{}))
}
