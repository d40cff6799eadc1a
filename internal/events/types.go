package events

import (
	"time"

	"github.com/gorilla/websocket"
)

// EventType identifies the kind of event pushed to subscribers
type EventType string

const (
	// EventTypeDocumentRedacted is sent after a document has been processed
	EventTypeDocumentRedacted EventType = "document_redacted"
	// EventTypeRequestLog is sent for every completed HTTP request
	EventTypeRequestLog EventType = "request_log"
	// EventTypeSystemStatus carries periodic service status
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection is sent when a subscriber connects or disconnects
	EventTypeConnection EventType = "connection"

	eventTypePong EventType = "pong"
)

// Event is the envelope written to subscribers
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	RequestID string    `json:"request_id,omitempty"`
}

// DocumentRedactedEvent summarizes one processed document. Counts only, never text.
type DocumentRedactedEvent struct {
	RequestID       string         `json:"request_id"`
	Filename        string         `json:"filename"`
	DocumentHash    string         `json:"document_hash"`
	TotalPages      int            `json:"total_pages"`
	TotalRedactions int            `json:"total_redactions"`
	Counts          map[string]int `json:"counts"`
	CacheHit        bool           `json:"cache_hit"`
	ProcessingMS    float64        `json:"processing_ms"`
}

// RequestLogEvent describes a completed HTTP request
type RequestLogEvent struct {
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	ClientIP   string        `json:"client_ip"`
	UserAgent  string        `json:"user_agent,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// SystemStatusEvent carries service status
type SystemStatusEvent struct {
	Status             string `json:"status"`
	Uptime             string `json:"uptime"`
	DocumentsProcessed int64  `json:"documents_processed"`
	TotalRedactions    int64  `json:"total_redactions"`
	Categories         int    `json:"categories"`
	ConnectedClients   int    `json:"connected_clients"`
}

// ConnectionEvent describes a subscriber joining or leaving
type ConnectionEvent struct {
	Action    string `json:"action"` // "connected", "disconnected"
	ClientID  string `json:"client_id"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ClientMessage is a message read from a subscriber
type ClientMessage struct {
	Type   string      `json:"type"`
	Events []EventType `json:"events,omitempty"`
}

// Client is one connected subscriber
type Client struct {
	ID          string
	conn        *websocket.Conn
	send        chan Event
	events      map[EventType]bool // nil means everything
	ConnectedAt time.Time
	IP          string
	UserAgent   string
}

// HubConfig controls which event types are broadcast
type HubConfig struct {
	BroadcastDocuments   bool
	BroadcastRequests    bool
	BroadcastSystem      bool
	BroadcastConnections bool
	Username             string
	Password             string
}

// HubStats tracks hub activity
type HubStats struct {
	TotalConnections  int64     `json:"total_connections"`
	ActiveConnections int64     `json:"active_connections"`
	TotalMessages     int64     `json:"total_messages"`
	TotalBroadcasts   int64     `json:"total_broadcasts"`
	DroppedEvents     int64     `json:"dropped_events"`
	LastBroadcastTime time.Time `json:"last_broadcast_time"`
}
