// Package alert implements the smart alert pipeline: entity/context
// types with fingerprinting, deduplication, grouping, prioritization,
// adaptive thresholds, and the manager that ties them together with
// rate limiting, mirroring the source system's alert core package.
package alert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Priority is an alert priority level, ordered LOW < MEDIUM < HIGH < CRITICAL.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Type identifies a kind of network alert.
type Type string

const (
	TypePacketLoss     Type = "packet_loss"
	TypeHighLatency    Type = "high_latency"
	TypeConnectionLost Type = "connection_lost"
	TypeHighJitter     Type = "high_jitter"
	TypeHighAvgLatency Type = "high_avg_latency"
	TypeMTUIssue       Type = "mtu_issue"
	TypeRouteChange    Type = "route_change"
	TypeDNSFailure     Type = "dns_failure"
	TypeIPChange       Type = "ip_change"
	TypeHopIssue       Type = "hop_issue"
	TypeMemoryExceeded Type = "memory_exceeded"
	TypeAnomaly        Type = "anomaly"
)

// Context identifies what an alert is about, used for grouping and
// root-cause correlation.
type Context struct {
	Service     string
	Component   string
	ProblemType string
	Target      string
	Metadata    map[string]any
}

// Matches reports whether two contexts should be treated as the same
// alert group. Non-strict matching ignores Target; strict also
// requires Target to match.
func (c Context) Matches(other Context, strict bool) bool {
	base := c.Service == other.Service && c.Component == other.Component && c.ProblemType == other.ProblemType
	if !strict {
		return base
	}
	return base && c.Target == other.Target
}

// Entity is one raised alert.
type Entity struct {
	AlertType   Type
	Message     string
	Priority    Priority
	Context     Context
	Timestamp   time.Time
	Fingerprint string
	Metadata    map[string]any
	Suppressed  bool
	GroupID     string
}

// NewEntity constructs an Entity and computes its fingerprint.
func NewEntity(alertType Type, message string, priority Priority, ctx Context, metadata map[string]any) Entity {
	e := Entity{
		AlertType: alertType,
		Message:   message,
		Priority:  priority,
		Context:   ctx,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
	e.Fingerprint = e.generateFingerprint()
	return e
}

// generateFingerprint hashes alert type + context (+ threshold
// metadata, if present) to a 16-hex-char SHA-256 prefix, matching the
// source system's fingerprint exactly so dedup semantics carry over.
func (e Entity) generateFingerprint() string {
	components := []string{
		string(e.AlertType),
		e.Context.Service,
		e.Context.Component,
		e.Context.ProblemType,
		e.Context.Target,
	}
	if th, ok := e.Metadata["threshold"]; ok {
		components = append(components, fmt.Sprintf("%v", th))
	}
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// Group aggregates related alerts to reduce notification noise.
type Group struct {
	GroupID   string
	Alerts    []Entity
	Context   *Context
	Priority  Priority
	CreatedAt time.Time
	UpdatedAt time.Time
	Active    bool
}

// NewGroup creates an empty group with the given ID.
func NewGroup(id string) *Group {
	now := time.Now().UTC()
	return &Group{GroupID: id, Priority: PriorityLow, CreatedAt: now, UpdatedAt: now, Active: true}
}

// AddAlert appends alert to the group, raises the group's priority if
// the alert's is higher, and stamps the alert's GroupID.
func (g *Group) AddAlert(alert *Entity) {
	g.Alerts = append(g.Alerts, *alert)
	g.UpdatedAt = time.Now().UTC()
	if alert.Priority > g.Priority {
		g.Priority = alert.Priority
	}
	if g.Context == nil {
		ctx := alert.Context
		g.Context = &ctx
	}
	alert.GroupID = g.GroupID
}

// Count is the number of alerts currently in the group.
func (g *Group) Count() int { return len(g.Alerts) }

// Summary renders a short human-readable description of the group.
func (g *Group) Summary() string {
	if len(g.Alerts) == 0 {
		return "empty alert group"
	}
	first := g.Alerts[0]
	if len(g.Alerts) == 1 {
		return first.Message
	}
	return fmt.Sprintf("%s (+%d similar)", first.Message, len(g.Alerts)-1)
}

// AgeSeconds is how long ago the group was created.
func (g *Group) AgeSeconds() float64 {
	return time.Since(g.CreatedAt).Seconds()
}

// ShouldEscalate reports whether the group is old enough to escalate.
func (g *Group) ShouldEscalate(active bool, escalationThreshold time.Duration) bool {
	return active && time.Since(g.CreatedAt) >= escalationThreshold
}

// History is a bounded, time-retained record of past alerts used for
// baseline calculation and correlation lookups.
type History struct {
	entries         []Entity
	maxSize         int
	retention       time.Duration
}

func NewHistory(maxSize int, retention time.Duration) *History {
	return &History{maxSize: maxSize, retention: retention}
}

// Add appends alert and prunes entries outside the retention window
// or beyond maxSize (oldest first).
func (h *History) Add(alert Entity) {
	h.entries = append(h.entries, alert)
	h.cleanup()
}

func (h *History) cleanup() {
	cutoff := time.Now().Add(-h.retention)
	kept := h.entries[:0:0]
	for _, e := range h.entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	h.entries = kept
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// ByType returns all entries of the given type.
func (h *History) ByType(t Type) []Entity {
	var out []Entity
	for _, e := range h.entries {
		if e.AlertType == t {
			out = append(out, e)
		}
	}
	return out
}

// ByContext returns all entries whose context non-strictly matches ctx.
func (h *History) ByContext(ctx Context) []Entity {
	var out []Entity
	for _, e := range h.entries {
		if e.Context.Matches(ctx, false) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns entries from within the last d.
func (h *History) Recent(d time.Duration) []Entity {
	cutoff := time.Now().Add(-d)
	var out []Entity
	for _, e := range h.entries {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// CountByPriority tallies entries per priority level.
func (h *History) CountByPriority() map[Priority]int {
	counts := map[Priority]int{PriorityLow: 0, PriorityMedium: 0, PriorityHigh: 0, PriorityCritical: 0}
	for _, e := range h.entries {
		counts[e.Priority]++
	}
	return counts
}

// All returns a copy of every retained entry, oldest first.
func (h *History) All() []Entity {
	out := make([]Entity, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len is the number of retained entries.
func (h *History) Len() int { return len(h.entries) }
