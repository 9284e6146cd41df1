package server

import (
	"time"

	"github.com/teranos/homepage/sysinfo"
)

const (
	// ShutdownTimeout is the default graceful shutdown budget when none is configured.
	// It covers the HTTP drain and the pool drain that follows it.
	ShutdownTimeout = 10 * time.Second

	// maxFormBytes bounds a guestbook POST body
	maxFormBytes = 64 << 10

	// staticMaxAge is the Cache-Control max-age for /static responses, in seconds
	staticMaxAge = 86400
)

// ServerState represents the server lifecycle state
type ServerState int32

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// Guestbook feedback copy
const (
	feedbackRateLimitedTitle = "Rate limited"
	feedbackRateLimitedDesc  = "You're being too fast! Try again in a few seconds."
	feedbackBadBodyTitle     = "Error while posting"
	feedbackBadBodyDesc      = "The server could not read the given data."
	feedbackEmptyTitle       = "Content empty"
	feedbackEmptyDesc        = "No content supplied"
	feedbackTooLongTitle     = "Content too long"
	feedbackTooLongDesc      = "Messages are limited to %d characters."
	feedbackStoreTitle       = "Error while creating message"
	feedbackStoreDesc        = "The server could not create your message"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string        `json:"status"`
	Version    string        `json:"version"`
	Commit     string        `json:"commit"`
	Workers    int           `json:"workers"`
	Pending    int           `json:"pending"`
	Active     int           `json:"active"`
	Panics     uint64        `json:"panics"`
	Identities *int          `json:"tracked_identities,omitempty"`
	Host       *sysinfo.Host `json:"host,omitempty"`
	Slots      []SlotHealth  `json:"slots"`
}

// SlotHealth reports whether a cache slot has ever been filled
type SlotHealth struct {
	Name   string `json:"name"`
	Filled bool   `json:"filled"`
}
