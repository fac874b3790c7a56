package analysis

import (
	"time"
)

// ContentType enum
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentURL      ContentType = "url"
	ContentDocument ContentType = "document"
)

// Task enum
type Task string

const (
	TaskAnalyze   Task = "analyze"
	TaskFactCheck Task = "fact_check"
	TaskSummarize Task = "summarize"
)

// Request is the normalized in-process form of a submitted analysis.
// Immutable once created; the HTTP layer builds it after parsing the body
// or resolving an uploaded artifact.
type Request struct {
	Content           string      `json:"content"`
	ContentType       ContentType `json:"content_type"`
	Task              Task        `json:"task"`
	PreferredProvider string      `json:"preferred_provider,omitempty"`
}

// Result of one provider invocation. Failures are carried as data, never as
// a raised error: Success=false plus a populated Error.
type Result struct {
	Provider string        `json:"provider"`
	Success  bool          `json:"success"`
	Score    float64       `json:"score"`
	Verdict  string        `json:"verdict,omitempty"`
	Claims   []string      `json:"claims,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	Error    *Failure      `json:"error,omitempty"`
	Latency  time.Duration `json:"latency_ns"`
	Cached   bool          `json:"cached"`
}

// FailureKind drives the orchestrator's retry policy: transient failures are
// retried with backoff, permanent ones move straight to the next candidate.
type FailureKind string

const (
	FailureTransient FailureKind = "transient"
	FailurePermanent FailureKind = "permanent"
)

// Failure is the typed error descriptor embedded in a failed Result.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string { return string(f.Kind) + ": " + f.Message }

// Transient builds a retryable failure (timeouts, rate limits, 5xx).
func Transient(msg string) *Failure {
	return &Failure{Kind: FailureTransient, Message: msg}
}

// Permanent builds a non-retryable failure (bad credentials, malformed request).
func Permanent(msg string) *Failure {
	return &Failure{Kind: FailurePermanent, Message: msg}
}

// Retryable reports whether the result's failure should be retried.
// Successful results and results without an error descriptor are not.
func (r Result) Retryable() bool {
	return !r.Success && r.Error != nil && r.Error.Kind == FailureTransient
}

// Agreement categorizes the spread of successful consensus scores.
type Agreement string

const (
	AgreementHigh     Agreement = "high"
	AgreementModerate Agreement = "moderate"
	AgreementLow      Agreement = "low"
	AgreementNone     Agreement = "none"
)

// ConsensusResult combines independent provider results. AggregateScore is nil
// when no provider succeeded; callers must check before using it.
type ConsensusResult struct {
	PerProvider    []Result  `json:"per_provider"`
	AggregateScore *float64  `json:"aggregate_score,omitempty"`
	Agreement      Agreement `json:"agreement"`
}

// Successes counts the successful per-provider entries.
func (c *ConsensusResult) Successes() int {
	n := 0
	for _, r := range c.PerProvider {
		if r.Success {
			n++
		}
	}
	return n
}
