package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestFormat(t *testing.T) {
	stamp := "2026-10-15T09:30:05Z"
	parsed, _ := time.Parse(time.RFC3339, stamp)
	clock := parsed.Local().Format("15:04:05")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text passes through",
			input:    "not json at all",
			expected: "not json at all",
		},
		{
			name:     "fields sorted",
			input:    `{"level":"warn","time":"` + stamp + `","job_id":"abc","attempt":2,"message":"event stream connect failed"}`,
			expected: clock + " WAR event stream connect failed attempt=2 job_id=abc",
		},
		{
			name:     "missing time and level",
			input:    `{"message":"hello"}`,
			expected: "--:--:-- ??? hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.input, false); got != tt.expected {
				t.Errorf("Format() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormat_ColorKeepsText(t *testing.T) {
	line := `{"level":"error","message":"detail fetch failed","job_id":"abc"}`
	got := Format(line, true)
	for _, want := range []string{"ERR", "detail fetch failed", "job_id", "abc"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Format(color) = %q, missing %q", got, want)
		}
	}
}
