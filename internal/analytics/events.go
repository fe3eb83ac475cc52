package analytics

import "time"

type EventType string

const (
	EventIndexFile EventType = "index_file"
	EventErasePath EventType = "erase_path"
	EventQuery     EventType = "query"
	EventStrategy  EventType = "strategy_change"
	EventClear     EventType = "clear"
)

// Envelope is what goes on the wire: a unique id, the session that produced
// the event, and the typed payload.
type Envelope struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type IndexEvent struct {
	Path      string `json:"path"`
	TermCount int    `json:"term_count"`
	SizeBytes int    `json:"size_bytes"`
	LatencyUs int64  `json:"latency_us"`
}

type EraseEvent struct {
	Path    string `json:"path"`
	Removed int    `json:"removed"`
}

type QueryEvent struct {
	Term      string `json:"term"`
	Hits      int    `json:"hits"`
	CacheHit  bool   `json:"cache_hit"`
	LatencyUs int64  `json:"latency_us"`
}

type StrategyEvent struct {
	Strategy  string `json:"strategy"`
	Reindexed int    `json:"reindexed"`
	Failed    int    `json:"failed"`
}
