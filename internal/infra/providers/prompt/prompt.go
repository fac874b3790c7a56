package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

// SystemPrompt provides strict directions and schema for JSON output,
// specialized per task.
func SystemPrompt(task analysis.Task) string {
	base := `You are an expert content-provenance analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- score is a number from 0 to 100.
- claims is an array of short strings; keep items concise.

Schema (example with empty values):
{
  "score": 0,
  "verdict": "<string>",
  "claims": ["<string>"],
  "summary": "<string>"
}`

	switch task {
	case analysis.TaskFactCheck:
		return base + `

Task: fact-check the submitted content. score is the credibility of the content (0 = certainly false, 100 = well supported). List the key factual claims you checked in claims and state the overall verdict.`
	case analysis.TaskSummarize:
		return base + `

Task: summarize the submitted content in summary. score is your confidence in the summary's faithfulness (0-100). verdict is one line describing the content.`
	default:
		return base + `

Task: estimate the probability that the submitted content was generated by an AI model. score is that probability (0 = certainly human, 100 = certainly AI). Explain the strongest signals in claims.`
	}
}

// UserPrompt builds a compact user message around the submitted content.
func UserPrompt(req analysis.Request) string {
	if req.ContentType == analysis.ContentURL {
		return fmt.Sprintf("Analyze the content at this URL and respond with the JSON per schema. URL: %s", req.Content)
	}
	return fmt.Sprintf("Content type: %s. Analyze the following content and respond with the JSON per schema.\n\n%s", req.ContentType, req.Content)
}

// Payload matches the schema used by the system prompt.
type Payload struct {
	Score   float64  `json:"score"`
	Verdict string   `json:"verdict"`
	Claims  []string `json:"claims"`
	Summary string   `json:"summary"`
}

// ParseResponse extracts the schema payload from a raw model response.
// Models occasionally wrap the JSON in markdown fences or prose despite the
// instructions, so the first balanced object is fished out before decoding.
func ParseResponse(raw string) (Payload, error) {
	var p Payload
	jsonStr := extractJSON(raw)
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return Payload{}, fmt.Errorf("parse model response: %w", err)
	}
	if p.Score < 0 {
		p.Score = 0
	}
	if p.Score > 100 {
		p.Score = 100
	}
	return p, nil
}

// extractJSON finds the JSON object inside a raw response, handling ```json
// fences and leading/trailing prose.
func extractJSON(text string) string {
	if i := strings.Index(text, "```json"); i != -1 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j != -1 {
			return strings.TrimSpace(rest[:j])
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}
