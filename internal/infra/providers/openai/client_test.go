package openai

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want analysis.FailureKind
	}{
		{"deadline", context.DeadlineExceeded, analysis.FailureTransient},
		{"canceled", context.Canceled, analysis.FailureTransient},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, analysis.FailureTransient},
		{"server error", &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}, analysis.FailureTransient},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, analysis.FailurePermanent},
		{"forbidden", &openai.APIError{HTTPStatusCode: 403, Message: "denied"}, analysis.FailurePermanent},
		{"bad request", &openai.APIError{HTTPStatusCode: 400, Message: "malformed"}, analysis.FailurePermanent},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, analysis.FailureTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			require.Equal(t, tc.want, got.Kind)
		})
	}
}

func TestClient_AvailabilityAndDescriptor(t *testing.T) {
	c := NewClient("sk-test", "", time.Second)
	require.True(t, c.Available())
	require.Equal(t, ProviderID, c.Descriptor().ID)
	require.True(t, c.Descriptor().SupportsContent(analysis.ContentText))
	require.False(t, c.Descriptor().SupportsContent(analysis.ContentImage))

	empty := NewClient("", "", time.Second)
	require.False(t, empty.Available())
}

func TestAnalyze_MissingKeyIsPermanent(t *testing.T) {
	c := NewClient("", "", time.Second)
	res := c.Analyze(context.Background(), analysis.Request{Content: "x", ContentType: analysis.ContentText})
	require.False(t, res.Success)
	require.Equal(t, analysis.FailurePermanent, res.Error.Kind)
}
