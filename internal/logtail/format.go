package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Record is one decoded zerolog line.
type Record struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Parse decodes a JSON log line. Lines that are not JSON objects are
// returned as a record with only Message set and ok false.
func Parse(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{Message: line}, false
	}
	rec := Record{Fields: make(map[string]string)}
	for key, value := range raw {
		switch key {
		case "time":
			if s, ok := value.(string); ok {
				rec.Time, _ = time.Parse(time.RFC3339, s)
			}
		case "level":
			rec.Level, _ = value.(string)
		case "message":
			rec.Message, _ = value.(string)
		default:
			rec.Fields[key] = fmt.Sprint(value)
		}
	}
	return rec, true
}

var levelStyles = map[string]lipgloss.Style{
	"debug": lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
	"info":  lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")),
	"warn":  lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c")).Bold(true),
	"error": lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
}

var fieldKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))

// Format renders a log line as "15:04:05 INF message key=value". Fields are
// sorted by key. When color is set levels and keys are styled.
func Format(line string, color bool) string {
	rec, ok := Parse(line)
	if !ok {
		return line
	}

	level := strings.ToUpper(rec.Level)
	if len(level) > 3 {
		level = level[:3]
	}
	if level == "" {
		level = "???"
	}
	if color {
		if style, found := levelStyles[rec.Level]; found {
			level = style.Render(level)
		}
	}

	stamp := "--:--:--"
	if !rec.Time.IsZero() {
		stamp = rec.Time.Local().Format("15:04:05")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", stamp, level, rec.Message)

	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if color {
			key = fieldKeyStyle.Render(k)
		}
		fmt.Fprintf(&b, " %s=%s", key, rec.Fields[k])
	}
	return b.String()
}
