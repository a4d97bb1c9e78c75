package command

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/squadboard/internal/banana"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Width(14)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
)

var stageColors = map[banana.Stage]string{
	banana.StageQueued:         "#6272A4",
	banana.StageResearch:       "#8BE9FD",
	banana.StagePromptCrafting: "#BD93F9",
	banana.StageGenerating:     "#FF79C6",
	banana.StageEvaluating:     "#FFB86C",
	banana.StageComplete:       "#50FA7B",
	banana.StageFailed:         "#FF5555",
}

func stageText(stage banana.Stage) string {
	color, ok := stageColors[stage]
	if !ok {
		return stage.Label()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(stage.Label())
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
