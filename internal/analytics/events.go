package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventIndexBuild EventType = "index_build"
)

// SearchEvent describes one answered query, both passes included.
type SearchEvent struct {
	Type          EventType `json:"type"`
	Query         string    `json:"query"`
	Terms         []string  `json:"terms"`
	ExpandedQuery string    `json:"expanded_query,omitempty"`
	TotalPrimary  int       `json:"total_primary"`
	TotalExpanded int       `json:"total_expanded"`
	Returned      int       `json:"returned"`
	LatencyMs     int64     `json:"latency_ms"`
	CacheHit      bool      `json:"cache_hit"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
}

// IndexEvent describes a completed collection indexing run.
type IndexEvent struct {
	Type        EventType `json:"type"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	TotalTokens int       `json:"total_tokens"`
	Checksum    string    `json:"checksum"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	Timestamp   time.Time `json:"timestamp"`
}
