package local

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

const humanSample = `The rain came sideways that night, hammering the tin roof until conversation was pointless. Maria lit a candle. Somewhere below, a dog barked twice and gave up. We played cards badly, laughed harder than the jokes deserved, and fell asleep before ten. By morning the river had taken the footbridge, and nobody seemed surprised at all.`

func TestDetector_AlwaysAvailable(t *testing.T) {
	d := New()
	require.True(t, d.Available())
	require.Equal(t, ProviderID, d.Descriptor().ID)
}

func TestDetector_AlwaysSucceeds(t *testing.T) {
	d := New()
	for _, ct := range []analysis.ContentType{analysis.ContentText, analysis.ContentImage, analysis.ContentAudio} {
		res := d.Analyze(context.Background(), analysis.Request{Content: humanSample, ContentType: ct, Task: analysis.TaskAnalyze})
		require.True(t, res.Success)
		require.Equal(t, ProviderID, res.Provider)
		require.GreaterOrEqual(t, res.Score, float64(0))
		require.LessOrEqual(t, res.Score, float64(100))
	}
}

func TestDetector_ShortTextNeutral(t *testing.T) {
	d := New()
	res := d.Analyze(context.Background(), analysis.Request{Content: "too short", ContentType: analysis.ContentText, Task: analysis.TaskAnalyze})
	require.True(t, res.Success)
	require.Equal(t, float64(50), res.Score)
	require.Equal(t, "insufficient signal", res.Verdict)
}

func TestDetector_OpaqueMediaNeutral(t *testing.T) {
	d := New()
	res := d.Analyze(context.Background(), analysis.Request{Content: humanSample, ContentType: analysis.ContentVideo, Task: analysis.TaskAnalyze})
	require.Equal(t, float64(50), res.Score)
	require.Equal(t, "insufficient signal", res.Verdict)
}

func TestDetector_ClicheHeavyTextScoresHigher(t *testing.T) {
	d := New()
	slop := strings.Repeat("In today's fast-paced world, it's important to note that a holistic approach plays a crucial role. ", 8)

	hi := d.Analyze(context.Background(), analysis.Request{Content: slop, ContentType: analysis.ContentText, Task: analysis.TaskAnalyze})
	lo := d.Analyze(context.Background(), analysis.Request{Content: humanSample, ContentType: analysis.ContentText, Task: analysis.TaskAnalyze})
	require.Greater(t, hi.Score, lo.Score)
}

func TestDetector_FactCheckExtractsNumericClaims(t *testing.T) {
	d := New()
	text := "The company was founded in 1987 by three engineers. Its revenue reached 4.2 billion dollars last year. The weather was pleasant."

	res := d.Analyze(context.Background(), analysis.Request{Content: text, ContentType: analysis.ContentText, Task: analysis.TaskFactCheck})
	require.True(t, res.Success)
	require.Equal(t, "unverified", res.Verdict)
	require.Equal(t, float64(50), res.Score)
	require.NotEmpty(t, res.Claims)
	for _, c := range res.Claims {
		require.Regexp(t, `\d`, c)
	}
}

func TestDetector_SummarizeTakesLeadingSentences(t *testing.T) {
	d := New()
	res := d.Analyze(context.Background(), analysis.Request{Content: humanSample, ContentType: analysis.ContentText, Task: analysis.TaskSummarize})
	require.True(t, res.Success)
	require.NotEmpty(t, res.Summary)
	require.True(t, strings.HasPrefix(res.Summary, "The rain came sideways"))
	require.Less(t, len(res.Summary), len(humanSample))
}

func TestDetector_ScoreStaysInsideBounds(t *testing.T) {
	d := New()
	slop := strings.Repeat("delve into the rich tapestry and unlock the potential of the ever-evolving landscape. ", 30)
	res := d.Analyze(context.Background(), analysis.Request{Content: slop, ContentType: analysis.ContentText, Task: analysis.TaskAnalyze})
	require.LessOrEqual(t, res.Score, float64(98))
	require.GreaterOrEqual(t, res.Score, float64(2))
}
