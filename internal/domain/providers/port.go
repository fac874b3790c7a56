package providers

import (
	"context"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

// Provider is the uniform adapter capability every analysis backend exposes,
// remote or local.
//
// Analyze applies its own request timeout, translates any transport or remote
// error into a failed Result, and never retries internally; backoff policy
// lives in the orchestrator. Available is a cheap credential-presence check,
// never a network round trip, so the router can filter without latency cost.
type Provider interface {
	Descriptor() Descriptor
	Available() bool
	Analyze(ctx context.Context, req analysis.Request) analysis.Result
}

// Descriptor declares a provider's identity and what it supports. Built once
// at process start from static configuration; read-only thereafter.
type Descriptor struct {
	ID           string
	ContentTypes []analysis.ContentType
	Tasks        []analysis.Task
}

// SupportsContent reports whether the provider handles the content type.
func (d Descriptor) SupportsContent(ct analysis.ContentType) bool {
	for _, c := range d.ContentTypes {
		if c == ct {
			return true
		}
	}
	return false
}

// SupportsTask reports whether the provider handles the task.
func (d Descriptor) SupportsTask(task analysis.Task) bool {
	for _, t := range d.Tasks {
		if t == task {
			return true
		}
	}
	return false
}

// AllContentTypes is the full content type set, used by the local fallback
// provider which must accept everything.
func AllContentTypes() []analysis.ContentType {
	return []analysis.ContentType{
		analysis.ContentText,
		analysis.ContentImage,
		analysis.ContentVideo,
		analysis.ContentAudio,
		analysis.ContentURL,
		analysis.ContentDocument,
	}
}

// AllTasks is the full task set.
func AllTasks() []analysis.Task {
	return []analysis.Task{analysis.TaskAnalyze, analysis.TaskFactCheck, analysis.TaskSummarize}
}
