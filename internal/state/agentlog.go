package state

import "time"

// DefaultAgentLogLimit is the number of agent log entries retained.
const DefaultAgentLogLimit = 30

// AgentLogEntry is one line of agent activity.
type AgentLogEntry struct {
	JobID   string
	Agent   string
	Message string
	Time    time.Time
}

// AgentLog is a bounded rolling buffer keeping the most recent entries.
type AgentLog struct {
	ring  []AgentLogEntry
	next  int
	count int
}

// NewAgentLog returns a log retaining at most limit entries.
func NewAgentLog(limit int) *AgentLog {
	if limit <= 0 {
		limit = DefaultAgentLogLimit
	}
	return &AgentLog{ring: make([]AgentLogEntry, limit)}
}

// Append adds an entry, evicting the oldest one when full.
func (l *AgentLog) Append(entry AgentLogEntry) {
	l.ring[l.next] = entry
	l.next = (l.next + 1) % len(l.ring)
	if l.count < len(l.ring) {
		l.count++
	}
}

// Len returns the number of retained entries.
func (l *AgentLog) Len() int {
	return l.count
}

// Entries returns the retained entries, oldest first.
func (l *AgentLog) Entries() []AgentLogEntry {
	out := make([]AgentLogEntry, l.count)
	if l.count < len(l.ring) {
		copy(out, l.ring[:l.count])
		return out
	}
	for i := 0; i < l.count; i++ {
		out[i] = l.ring[(l.next+i)%len(l.ring)]
	}
	return out
}

// Clear drops every entry.
func (l *AgentLog) Clear() {
	for i := range l.ring {
		l.ring[i] = AgentLogEntry{}
	}
	l.next = 0
	l.count = 0
}
