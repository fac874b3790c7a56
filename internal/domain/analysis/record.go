package analysis

import "time"

// RecordID identifier type
type RecordID string

// Record is one persisted analysis outcome, kept for auditing and history
// endpoints. Only the content digest is stored, never the payload.
type Record struct {
	ID            RecordID    `json:"id"`
	TenantID      string      `json:"tenant_id"`
	ContentDigest string      `json:"content_digest"`
	ContentType   ContentType `json:"content_type"`
	Task          Task        `json:"task"`
	Provider      string      `json:"provider"`
	Success       bool        `json:"success"`
	Score         float64     `json:"score"`
	ResultJSON    string      `json:"result_json"`
	Cached        bool        `json:"cached"`
	LatencyMS     int64       `json:"latency_ms"`
	CreatedAt     time.Time   `json:"created_at"`
}
