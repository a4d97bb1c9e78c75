package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentLog_KeepsMostRecentEntries(t *testing.T) {
	l := NewAgentLog(0)
	for i := 0; i < 45; i++ {
		l.Append(AgentLogEntry{Message: fmt.Sprintf("m%d", i)})
	}

	entries := l.Entries()
	require.Len(t, entries, DefaultAgentLogLimit)
	assert.Equal(t, "m15", entries[0].Message)
	assert.Equal(t, "m44", entries[len(entries)-1].Message)
}

func TestAgentLog_PartialAndClear(t *testing.T) {
	l := NewAgentLog(5)
	l.Append(AgentLogEntry{Message: "a"})
	l.Append(AgentLogEntry{Message: "b"})

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Message)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Entries())

	l.Append(AgentLogEntry{Message: "c"})
	assert.Equal(t, "c", l.Entries()[0].Message)
}
