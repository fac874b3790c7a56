package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
)

type stubProvider struct {
	id        string
	contents  []analysis.ContentType
	tasks     []analysis.Task
	available bool
}

func (s *stubProvider) Descriptor() providers.Descriptor {
	return providers.Descriptor{ID: s.id, ContentTypes: s.contents, Tasks: s.tasks}
}

func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Analyze(context.Context, analysis.Request) analysis.Result {
	return analysis.Result{Provider: s.id, Success: true}
}

func textProvider(id string, available bool) *stubProvider {
	return &stubProvider{
		id:        id,
		contents:  []analysis.ContentType{analysis.ContentText, analysis.ContentURL},
		tasks:     providers.AllTasks(),
		available: available,
	}
}

func newRegistry(t *testing.T, ps ...providers.Provider) *providers.Registry {
	t.Helper()
	reg := providers.NewRegistry()
	for _, p := range ps {
		require.NoError(t, reg.Register(p))
	}
	return reg
}

func TestCandidates_LocalAlwaysLast(t *testing.T) {
	local := &stubProvider{id: "local", contents: providers.AllContentTypes(), tasks: providers.AllTasks(), available: true}
	reg := newRegistry(t,
		textProvider("openai", true),
		textProvider("anthropic", true),
		local,
	)
	r := New(reg, nil, "local")

	got, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "")
	require.NoError(t, err)
	require.Equal(t, []string{"openai", "anthropic", "local"}, got)
}

func TestCandidates_FiltersUnavailable(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", false),
		textProvider("anthropic", true),
		&stubProvider{id: "local", contents: providers.AllContentTypes(), tasks: providers.AllTasks(), available: true},
	)
	r := New(reg, nil, "local")

	got, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "")
	require.NoError(t, err)
	require.Equal(t, []string{"anthropic", "local"}, got)
}

func TestCandidates_PreferredMovesToFront(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", true),
		textProvider("anthropic", true),
		textProvider("gemini", true),
		&stubProvider{id: "local", contents: providers.AllContentTypes(), tasks: providers.AllTasks(), available: true},
	)
	r := New(reg, nil, "local")

	got, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "gemini")
	require.NoError(t, err)
	require.Equal(t, []string{"gemini", "openai", "anthropic", "local"}, got)
}

func TestCandidates_PreferredUnavailableIgnored(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", true),
		textProvider("anthropic", false),
		&stubProvider{id: "local", contents: providers.AllContentTypes(), tasks: providers.AllTasks(), available: true},
	)
	r := New(reg, nil, "local")

	got, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "anthropic")
	require.NoError(t, err)
	require.Equal(t, []string{"openai", "local"}, got)
}

func TestCandidates_PreferredLocalStaysLast(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", true),
		&stubProvider{id: "local", contents: providers.AllContentTypes(), tasks: providers.AllTasks(), available: true},
	)
	r := New(reg, nil, "local")

	got, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "local")
	require.NoError(t, err)
	require.Equal(t, []string{"openai", "local"}, got)
}

func TestCandidates_TableRanking(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", true),
		textProvider("anthropic", true),
		textProvider("gemini", true),
	)
	table := Table{}
	table.Entry(analysis.TaskFactCheck, analysis.ContentText, "anthropic", "gemini", "openai")
	r := New(reg, table, "local")

	got, err := r.Candidates(analysis.ContentText, analysis.TaskFactCheck, "")
	require.NoError(t, err)
	require.Equal(t, []string{"anthropic", "gemini", "openai"}, got)

	// Entries missing from the table keep registration order.
	got, err = r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "")
	require.NoError(t, err)
	require.Equal(t, []string{"openai", "anthropic", "gemini"}, got)
}

func TestCandidates_Deterministic(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", true),
		textProvider("anthropic", true),
		textProvider("gemini", true),
	)
	r := New(reg, nil, "local")

	first, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Candidates(analysis.ContentText, analysis.TaskAnalyze, "")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCandidates_NoProvider(t *testing.T) {
	reg := newRegistry(t, textProvider("openai", true))
	r := New(reg, nil, "local")

	_, err := r.Candidates(analysis.ContentImage, analysis.TaskAnalyze, "")
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestSupporting_RegistrationOrderWithLocal(t *testing.T) {
	reg := newRegistry(t,
		textProvider("openai", true),
		textProvider("anthropic", false),
		textProvider("gemini", true),
		&stubProvider{id: "local", contents: providers.AllContentTypes(), tasks: providers.AllTasks(), available: true},
	)
	r := New(reg, nil, "local")

	got, err := r.Supporting(analysis.ContentText, analysis.TaskAnalyze)
	require.NoError(t, err)
	require.Equal(t, []string{"openai", "gemini", "local"}, got)
}

func TestSupporting_NoProvider(t *testing.T) {
	reg := newRegistry(t, textProvider("openai", false))
	r := New(reg, nil, "local")

	_, err := r.Supporting(analysis.ContentText, analysis.TaskAnalyze)
	require.ErrorIs(t, err, ErrNoProvider)
}
