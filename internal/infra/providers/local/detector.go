// Package local implements the built-in heuristic analyzer. It is pure
// computation with no credentials or network access, so it is always
// available and serves as the universal fallback at the end of every
// routing chain.
package local

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
)

// ProviderID is the registry id for this adapter.
const ProviderID = "local"

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	wordPattern = regexp.MustCompile(`[A-Za-z']+`)
)

// clichePhrases are stock phrases heavily over-represented in LLM output.
// Matched case-insensitively against the raw text.
var clichePhrases = []string{
	"delve into",
	"rich tapestry",
	"in today's fast-paced world",
	"it's important to note",
	"it is important to note",
	"in conclusion",
	"as an ai",
	"i cannot fulfill",
	"furthermore, it is",
	"plays a crucial role",
	"a testament to",
	"navigate the complexities",
	"ever-evolving landscape",
	"unlock the potential",
	"in the realm of",
	"at the end of the day",
	"holistic approach",
	"seamlessly integrate",
}

// Detector scores submitted content with weighted text statistics. It
// implements the Provider port and accepts every content type; for opaque
// media it falls back to a neutral baseline rather than failing, since the
// fallback provider must always produce a result.
type Detector struct{}

func New() *Detector { return &Detector{} }

func (d *Detector) Descriptor() providers.Descriptor {
	return providers.Descriptor{
		ID:           ProviderID,
		ContentTypes: providers.AllContentTypes(),
		Tasks:        providers.AllTasks(),
	}
}

// Available is always true: the detector needs no credentials.
func (d *Detector) Available() bool { return true }

func (d *Detector) Analyze(_ context.Context, req analysis.Request) analysis.Result {
	start := time.Now()

	var res analysis.Result
	switch req.Task {
	case analysis.TaskFactCheck:
		res = d.factCheck(req)
	case analysis.TaskSummarize:
		res = d.summarize(req)
	default:
		res = d.detect(req)
	}

	res.Provider = ProviderID
	res.Success = true
	res.Latency = time.Since(start)
	return res
}

// detect estimates the AI-generated probability of the content.
func (d *Detector) detect(req analysis.Request) analysis.Result {
	if !textual(req.ContentType) {
		return analysis.Result{
			Score:   50,
			Verdict: "insufficient signal",
			Summary: fmt.Sprintf("heuristic analysis has no model for %s content; returning a neutral baseline", req.ContentType),
		}
	}

	text := req.Content
	words := tokenize(text)
	if len(words) < 20 {
		return analysis.Result{
			Score:   50,
			Verdict: "insufficient signal",
			Summary: "content too short for statistical analysis",
		}
	}

	var claims []string

	uniformity := sentenceUniformity(text)
	if uniformity > 0.6 {
		claims = append(claims, "sentence-length variability is unusually low")
	}

	richness := 1 - typeTokenRatio(words)
	if richness > 0.7 {
		claims = append(claims, "vocabulary richness is unusually low")
	}

	cliche := clicheSignal(text, len(words))
	if cliche > 0.5 {
		claims = append(claims, "high density of stock AI phrasing")
	}

	repetition := shingleRepetition(words, 8)
	if repetition > 0.3 {
		claims = append(claims, "long repeated word sequences detected")
	}

	score := 100 * (0.30*uniformity + 0.25*richness + 0.25*cliche + 0.20*repetition)
	score = clamp(score, 2, 98)

	verdict := "likely human-written"
	switch {
	case score >= 70:
		verdict = "likely AI-generated"
	case score >= 40:
		verdict = "uncertain"
	}

	return analysis.Result{
		Score:   score,
		Verdict: verdict,
		Claims:  claims,
	}
}

// factCheck cannot verify anything offline; it extracts the checkable claims
// and reports a neutral credibility so the caller still gets structure.
func (d *Detector) factCheck(req analysis.Request) analysis.Result {
	claims := extractClaims(req.Content, 5)
	return analysis.Result{
		Score:   50,
		Verdict: "unverified",
		Claims:  claims,
		Summary: "offline heuristic cannot verify claims against external sources",
	}
}

// summarize returns the leading sentences as a naive extractive summary.
func (d *Detector) summarize(req analysis.Request) analysis.Result {
	sentences := splitSentences(req.Content)
	n := len(sentences)
	if n > 3 {
		n = 3
	}
	summary := strings.TrimSpace(strings.Join(sentences[:n], ". "))
	if summary != "" {
		summary += "."
	}
	return analysis.Result{
		Score:   clamp(float64(len(sentences))*10, 10, 90),
		Verdict: "extractive summary",
		Summary: summary,
	}
}

func textual(ct analysis.ContentType) bool {
	switch ct {
	case analysis.ContentText, analysis.ContentURL, analysis.ContentDocument:
		return true
	}
	return false
}

func tokenize(text string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(text), -1)
	return raw
}

func splitSentences(text string) []string {
	parts := sentenceEnd.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentenceUniformity maps the standard deviation of sentence lengths onto
// [0,1]: machine text tends toward very even sentences (low deviation).
func sentenceUniformity(text string) float64 {
	sentences := splitSentences(text)
	lengths := make([]float64, 0, len(sentences))
	for _, s := range sentences {
		if n := len(tokenize(s)); n > 0 {
			lengths = append(lengths, float64(n))
		}
	}
	if len(lengths) < 3 {
		return 0.5
	}

	var sum float64
	for _, l := range lengths {
		sum += l
	}
	mean := sum / float64(len(lengths))

	var variance float64
	for _, l := range lengths {
		d := l - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(len(lengths)))

	// sd of 10+ words is plainly human variation; near zero is suspicious.
	return clamp(1-sd/10, 0, 1)
}

// typeTokenRatio is unique words over total words.
func typeTokenRatio(words []string) float64 {
	if len(words) == 0 {
		return 1
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words))
}

// clicheSignal counts stock-phrase hits per hundred words, saturating at 1.
func clicheSignal(text string, wordCount int) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, phrase := range clichePhrases {
		hits += strings.Count(lower, phrase)
	}
	if wordCount == 0 {
		return 0
	}
	perHundred := float64(hits) / float64(wordCount) * 100
	return clamp(perHundred/1.5, 0, 1)
}

// shingleRepetition is the fraction of word n-grams that occur more than
// once, a cheap near-duplication signal.
func shingleRepetition(words []string, n int) float64 {
	if len(words) <= n {
		return 0
	}
	seen := make(map[string]int)
	total := 0
	for i := 0; i+n <= len(words); i++ {
		key := strings.Join(words[i:i+n], " ")
		seen[key]++
		total++
	}
	repeated := 0
	for _, count := range seen {
		if count > 1 {
			repeated += count
		}
	}
	return float64(repeated) / float64(total)
}

// extractClaims pulls sentences that look checkable: ones carrying digits
// first, then any substantial sentence.
func extractClaims(text string, max int) []string {
	hasDigit := regexp.MustCompile(`\d`)
	sentences := splitSentences(text)

	var claims []string
	add := func(s string) {
		if len(s) > 15 && len(s) < 250 && len(claims) < max {
			claims = append(claims, s)
		}
	}
	for _, s := range sentences {
		if hasDigit.MatchString(s) {
			add(s)
		}
	}
	if len(claims) == 0 {
		for _, s := range sentences {
			add(s)
			if len(claims) >= 3 {
				break
			}
		}
	}
	return claims
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
