package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

type fixedProvider struct{ id string }

func (f *fixedProvider) Descriptor() Descriptor {
	return Descriptor{ID: f.id, ContentTypes: AllContentTypes(), Tasks: AllTasks()}
}
func (f *fixedProvider) Available() bool { return true }
func (f *fixedProvider) Analyze(context.Context, analysis.Request) analysis.Result {
	return analysis.Result{Provider: f.id}
}

func TestRegistry_PreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"openai", "anthropic", "gemini", "local"} {
		require.NoError(t, reg.Register(&fixedProvider{id: id}))
	}
	require.Equal(t, []string{"openai", "anthropic", "gemini", "local"}, reg.IDs())

	all := reg.All()
	require.Len(t, all, 4)
	require.Equal(t, "openai", all[0].Descriptor().ID)
}

func TestRegistry_RejectsDuplicatesAndEmptyIDs(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fixedProvider{id: "openai"}))
	require.Error(t, reg.Register(&fixedProvider{id: "openai"}))
	require.Error(t, reg.Register(&fixedProvider{id: ""}))
}

func TestRegistry_GetUnknownIsNil(t *testing.T) {
	reg := NewRegistry()
	require.Nil(t, reg.Get("nope"))
}

func TestDescriptor_Supports(t *testing.T) {
	d := Descriptor{
		ID:           "x",
		ContentTypes: []analysis.ContentType{analysis.ContentText},
		Tasks:        []analysis.Task{analysis.TaskAnalyze},
	}
	require.True(t, d.SupportsContent(analysis.ContentText))
	require.False(t, d.SupportsContent(analysis.ContentImage))
	require.True(t, d.SupportsTask(analysis.TaskAnalyze))
	require.False(t, d.SupportsTask(analysis.TaskSummarize))
}
